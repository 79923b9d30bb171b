package handlers

import (
	"net/http"
	"strconv"

	"store-rating/internal/apperrors"
	"store-rating/internal/models"
	"store-rating/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	adminService  *services.AdminService
	ratingService *services.RatingService
	logger        zerolog.Logger
}

func NewAdminHandler(adminService *services.AdminService, ratingService *services.RatingService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		ratingService: ratingService,
		logger:        logger,
	}
}

type createdUserResponse struct {
	Message string `json:"message"`
	UserID  int    `json:"userId"`
}

type createdStoreResponse struct {
	Message string `json:"message"`
	StoreID int    `json:"storeId"`
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.DashboardStats(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.AddUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	userID, err := h.adminService.AddUser(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdUserResponse{
		Message: "User added successfully",
		UserID:  userID,
	})
}

func (h *AdminHandler) AddStore(w http.ResponseWriter, r *http.Request) {
	var req models.AddStoreRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	storeID, err := h.adminService.AddStore(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdStoreResponse{
		Message: "Store added successfully",
		StoreID: storeID,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.UserFilter{
		Name:    q.Get("name"),
		Email:   q.Get("email"),
		Address: q.Get("address"),
		Role:    q.Get("role"),
	}

	users, err := h.adminService.ListUsers(r.Context(), filter, models.ParseSort(q.Get("sortBy"), q.Get("order")))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.StoreFilter{
		Name:    q.Get("name"),
		Email:   q.Get("email"),
		Address: q.Get("address"),
	}

	stores, err := h.ratingService.ListStores(r.Context(), filter, models.ParseSort(q.Get("sortBy"), q.Get("order")))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stores)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || userID <= 0 {
		respondError(w, r, h.logger, apperrors.NotFound("User not found"))
		return
	}

	user, err := h.adminService.GetUserDetails(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}
