package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

// RecordEvent handles POST /points/events
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req EventRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	tx, err := h.svc.RecordEvent(r.Context(), userID, EarnSource(req.Source), req.ReferenceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEvent):
			response.Conflict(w, "event already recorded")
		case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrZeroPoints):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, tx.ToResponse())
}

// Balance handles GET /points/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	earned, err := h.svc.TotalEarned(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, BalanceResponse{Balance: balance, TotalEarned: earned})
}

// Summary handles GET /points/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	summary, err := h.svc.Summarize(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, summary)
}

// ListTransactions handles GET /points/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	filters, err := parseListFilters(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	txs, err := h.svc.ListTransactions(r.Context(), userID, filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, toResponses(txs))
}

// Audit handles GET /points/audit (admin)
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		response.BadRequest(w, "user_id query parameter must be a UUID")
		return
	}

	sum, err := h.svc.AuditBalance(r.Context(), targetID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, AuditResponse{UserID: targetID.String(), AuditBalance: sum})
}

// Grant handles POST /points/grant (admin)
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(w, "user_id must be a UUID")
		return
	}

	tx, err := h.svc.Grant(r.Context(), targetID, req.Points, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrZeroPoints), errors.Is(err, ErrMissingUser):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, tx.ToResponse())
}

func parseListFilters(r *http.Request) (ListFilters, error) {
	var filters ListFilters
	q := r.URL.Query()

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, errors.New("since must be RFC3339")
		}
		filters.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, errors.New("until must be RFC3339")
		}
		filters.Until = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filters, errors.New("limit must be a non-negative integer")
		}
		filters.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filters, errors.New("offset must be a non-negative integer")
		}
		filters.Offset = n
	}

	return filters, nil
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/events", h.RecordEvent)
	r.Get("/balance", h.Balance)
	r.Get("/summary", h.Summary)
	r.Get("/transactions", h.ListTransactions)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/audit", h.Audit)
		r.Post("/grant", h.Grant)
	})
	return r
}
