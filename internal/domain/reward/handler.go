package reward

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitclash/fitclash-api/internal/middleware"
	"github.com/fitclash/fitclash-api/internal/pkg/response"
	"github.com/fitclash/fitclash-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /rewards
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		if err := validator.ValidateVar(category, "reward_category"); err != nil {
			response.BadRequest(w, "invalid category")
			return
		}
	}

	rewards, err := h.svc.ListRewards(r.Context(), category)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]*RewardResponse, 0, len(rewards))
	for i := range rewards {
		out = append(out, rewards[i].ToResponse())
	}
	response.OK(w, out)
}

// Get handles GET /rewards/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid reward id")
		return
	}

	reward, err := h.svc.GetReward(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRewardNotFound) {
			response.NotFound(w, "reward not found")
		} else {
			response.InternalError(w)
		}
		return
	}

	response.OK(w, reward.ToResponse())
}

// Claim handles POST /rewards/{id}/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	rewardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid reward id")
		return
	}

	claim, err := h.svc.Claim(r.Context(), userID, rewardID)
	if err != nil {
		var insufficient *InsufficientPointsError
		switch {
		case errors.Is(err, ErrRewardNotFound):
			response.NotFound(w, "reward not found")
		case errors.Is(err, ErrOutOfStock):
			response.Conflict(w, "reward is out of stock")
		case errors.As(err, &insufficient):
			response.UnprocessableEntity(w, "INSUFFICIENT_POINTS", "not enough points to claim this reward", map[string]string{
				"shortfall": strconv.Itoa(insufficient.Shortfall),
			})
		case errors.Is(err, ErrConcurrencyConflict):
			response.Conflict(w, "reward was claimed concurrently, please retry")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, claim.ToResponse())
}

// ListClaims handles GET /claims
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	claims, err := h.svc.ListClaims(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]*ClaimDetailResponse, 0, len(claims))
	for i := range claims {
		out = append(out, claims[i].ToResponse())
	}
	response.OK(w, out)
}

// Create handles POST /rewards (admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRewardRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	reward, err := h.svc.CreateReward(r.Context(), RewardInput{
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Category:       req.Category,
		ImageURL:       req.ImageURL,
		Stock:          req.Stock,
		IsActive:       req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidReward) {
			response.BadRequest(w, err.Error())
		} else {
			response.InternalError(w)
		}
		return
	}

	response.Created(w, reward.ToResponse())
}

// Update handles PATCH /rewards/{id} (admin)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid reward id")
		return
	}

	var req UpdateRewardRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	reward, err := h.svc.UpdateReward(r.Context(), id, RewardUpdate{
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Category:       req.Category,
		ImageURL:       req.ImageURL,
		Stock:          req.Stock,
		IsActive:       req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRewardNotFound):
			response.NotFound(w, "reward not found")
		case errors.Is(err, ErrInvalidReward):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, reward.ToResponse())
}

// UpdateClaimStatus handles PATCH /claims/{id}/status (admin)
func (h *Handler) UpdateClaimStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid claim id")
		return
	}

	var req ClaimStatusRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	var tracking *string
	if req.TrackingNumber != "" {
		tracking = &req.TrackingNumber
	}

	claim, err := h.svc.UpdateClaimStatus(r.Context(), id, ClaimStatus(req.Status), tracking)
	if err != nil {
		switch {
		case errors.Is(err, ErrClaimNotFound):
			response.NotFound(w, "claim not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, claim.ToResponse())
}

// Routes mounts the reward catalog endpoints
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/claim", h.Claim)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
	})
	return r
}

// ClaimRoutes mounts the claim history and fulfillment endpoints
func (h *Handler) ClaimRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.ListClaims)
	r.With(middleware.RequireAdmin()).Patch("/{id}/status", h.UpdateClaimStatus)
	return r
}
