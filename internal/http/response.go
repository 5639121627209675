package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"hostel-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// WriteServiceError renders err with the status of its kind. Errors that are
// not ServiceErrors are logged and reported as internal.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var svcErr services.ServiceError
	if !errors.As(err, &svcErr) {
		logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", RequestIDFrom(r.Context())).
			Msg("request failed")
	}
	mapped := services.AsServiceError(err)
	WriteError(w, mapped.Kind.Status(), mapped.Code, mapped.Message)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteServiceError(w, r, s.Log, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrValidation("Invalid " + name)
	}
	return id, nil
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
