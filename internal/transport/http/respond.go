package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "pathway/pkg/domain-errors"
)

// errorResponse is the JSON error envelope every endpoint uses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusOf maps domain error codes to HTTP statuses. Unknown codes fall
// through to 500 so a new code can never silently leak a 200.
func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnknownObjective, dErrors.CodeUnknownSection:
		return http.StatusUnprocessableEntity
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeConsentDenied, dErrors.CodeInsufficientSample:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates a domain error into the JSON envelope. Non-domain
// errors become opaque 500s; internal details never reach the wire.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusOf(code)
	message := ""
	if status < http.StatusInternalServerError {
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			message = dErr.Message
		}
	}
	writeJSON(w, status, errorResponse{Error: string(code), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
