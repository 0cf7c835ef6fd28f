package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"familytree/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStorageFailure):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrCycleRejected),
		errors.Is(err, service.ErrInviteExpired),
		errors.Is(err, service.ErrInviteAlreadyUsed),
		errors.Is(err, service.ErrAlreadyHasRole):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondWithServiceError writes err with its mapped status. Server errors
// are logged and hidden from the client.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, status, ErrInternalServerError, logMsg, err)
		return
	}
	respondWithError(w, status, err.Error(), "", nil)
}
