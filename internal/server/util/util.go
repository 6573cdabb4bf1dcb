package util

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Maps carrying their own "success" key pass through untouched; anything
	// else gets the standard envelope.
	var response interface{}
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		response = payload
	} else {
		response = JSONResponse{Success: true, Data: payload}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	log.Printf("HTTP Error %d: %s", statusCode, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := JSONError{
		Success: false,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// HandleServiceError translates the services' coded errors to HTTP
// responses. Internal details never leak past the error message the service
// chose to expose.
func HandleServiceError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch st.Code() {
	case codes.InvalidArgument:
		WriteJSONError(w, http.StatusBadRequest, st.Message())
	case codes.Unauthenticated:
		WriteJSONError(w, http.StatusUnauthorized, st.Message())
	case codes.PermissionDenied:
		WriteJSONError(w, http.StatusForbidden, st.Message())
	case codes.NotFound:
		WriteJSONError(w, http.StatusNotFound, st.Message())
	case codes.AlreadyExists:
		WriteJSONError(w, http.StatusConflict, st.Message())
	case codes.DeadlineExceeded:
		WriteJSONError(w, http.StatusGatewayTimeout, "The request took too long to process.")
	default:
		WriteJSONError(w, http.StatusInternalServerError, st.Message())
	}
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	// Expect header: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
