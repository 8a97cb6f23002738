package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ledgerline/covtrace/internal/covenant"
)

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(data)
}

// WriteError sends a JSON error envelope.
func WriteError(w http.ResponseWriter, statusCode int, errorCode ErrorCode, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   string(errorCode),
		Message: message,
	})
}

// writeHandlerError translates handler errors into JSON envelopes. Typed
// API errors keep their status; engine lookup failures map to 404 and
// everything else to 500.
func writeHandlerError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		WriteError(w, apiErr.StatusCode, apiErr.Code, apiErr.Message)
	case errors.Is(err, covenant.ErrFacilityNotFound):
		WriteError(w, http.StatusNotFound, ErrorCodeNotFound, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, ErrorCodeInternalError, err.Error())
	}
}
