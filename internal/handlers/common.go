package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"movie-night-backend/internal/services"
	"movie-night-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Response is the envelope of every API response
type Response struct {
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
	Results interface{} `json:"results,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// ErrorMessages are the user-facing messages of a route for each error kind
type ErrorMessages struct {
	NotFound string
	Conflict string
}

// MovieID accepts a JSON number or a numeric string
type MovieID int

func (m *MovieID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("movieId must be an integer")
	}
	*m = MovieID(n)
	return nil
}

func respondJSON(w http.ResponseWriter, statusCode int, body Response) {
	writeJSON(w, statusCode, body)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondResult(w http.ResponseWriter, statusCode int, message string, result interface{}) {
	respondJSON(w, statusCode, Response{Message: message, Result: result})
}

func respondResults(w http.ResponseWriter, message string, results interface{}) {
	respondJSON(w, http.StatusOK, Response{Message: message, Results: results})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, Response{Message: message, Error: http.StatusText(statusCode)})
}

// respondServiceError maps a service error onto status, message and error detail
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, msgs ErrorMessages) {
	status := statusFor(err)
	body := Response{Error: http.StatusText(status)}

	switch status {
	case http.StatusBadRequest:
		body.Message = "Validation error occurred"
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			body.Error = verr
		} else {
			body.Error = err.Error()
		}
	case http.StatusNotFound:
		body.Message = orDefault(msgs.NotFound, "Not found")
	case http.StatusConflict:
		switch {
		case errors.Is(err, services.ErrInWatched):
			body.Message = "Already added in watched movies"
		case errors.Is(err, services.ErrInWatchList):
			body.Message = "Already added in watchlist"
		default:
			body.Message = orDefault(msgs.Conflict, "Already exists")
		}
	case http.StatusUnauthorized:
		body.Message = "Unauthorized"
	case http.StatusForbidden:
		body.Message = "Forbidden"
	default:
		body.Message = "Unknown error occurred"
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	}
	respondJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v. Failures are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", services.ErrValidation, err)
	}
	return nil
}

// movieIDParam parses the movieId URL parameter
func movieIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "movieId"))
	if err != nil {
		return 0, fmt.Errorf("%w: movieId must be an integer", services.ErrValidation)
	}
	return id, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
