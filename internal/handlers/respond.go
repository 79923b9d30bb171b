package handlers

import (
	"encoding/json"
	"net/http"

	"store-rating/internal/apperrors"
	"store-rating/internal/middleware"

	"github.com/rs/zerolog"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	return nil
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondError renders err as the {error, message} envelope. Anything that is
// not a domain error is logged and reported as a generic server error.
func respondError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindServer {
		logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}

	respondWithJSON(w, appErr.Status(), ErrorResponse{
		Error:   string(appErr.Kind),
		Message: appErr.Message,
	})
}
