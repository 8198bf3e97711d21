package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders err as an ErrorResponse using the status carried by the AppError.
// The returned error is the encoding failure, if any; headers are already sent by then.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	response := ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	return json.NewEncoder(w).Encode(response)
}
