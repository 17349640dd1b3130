package leaderboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fitclash/fitclash-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Top handles GET /leaderboard
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	period := Period(r.URL.Query().Get("period"))

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	standings, err := h.svc.Top(r.Context(), period, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidPeriod) {
			response.BadRequest(w, "period must be week, month, or all")
		} else {
			response.InternalError(w)
		}
		return
	}

	response.OK(w, standings)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Top)
	return r
}
