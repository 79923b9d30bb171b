package handlers

import (
	"net/http"

	"store-rating/internal/middleware"
	"store-rating/internal/models"
	"store-rating/internal/services"

	"github.com/rs/zerolog"
)

// RatingHandler serves the regular user's store browsing and rating endpoints.
type RatingHandler struct {
	ratingService *services.RatingService
	logger        zerolog.Logger
}

func NewRatingHandler(ratingService *services.RatingService, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		logger:        logger,
	}
}

func (h *RatingHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())
	q := r.URL.Query()

	filter := models.StoreFilter{Search: q.Get("search")}

	stores, err := h.ratingService.ListStoresForUser(r.Context(), id.UserID, filter, models.ParseSort(q.Get("sortBy"), q.Get("order")))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stores)
}

func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())

	var req models.RatingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.ratingService.SubmitRating(r.Context(), id.UserID, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, MessageResponse{Message: "Rating submitted successfully"})
}

func (h *RatingHandler) Modify(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())

	var req models.RatingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.ratingService.ModifyRating(r.Context(), id.UserID, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Rating modified successfully"})
}
