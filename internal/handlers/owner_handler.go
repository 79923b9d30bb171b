package handlers

import (
	"net/http"

	"store-rating/internal/middleware"
	"store-rating/internal/services"

	"github.com/rs/zerolog"
)

type OwnerHandler struct {
	ratingService *services.RatingService
	logger        zerolog.Logger
}

func NewOwnerHandler(ratingService *services.RatingService, logger zerolog.Logger) *OwnerHandler {
	return &OwnerHandler{
		ratingService: ratingService,
		logger:        logger,
	}
}

func (h *OwnerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())

	dashboard, err := h.ratingService.OwnerDashboard(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}
