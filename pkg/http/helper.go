package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	apperrors "slotkeeper/pkg/errors"
	"strings"
)

// DecodeJSON strictly decodes a single JSON object from the request body.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body cannot be empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput("Request body too large")
		}
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}
	if decoder.More() {
		return apperrors.InvalidInput("Request body must contain a single JSON object")
	}
	return nil
}

// RequiredQuery returns the trimmed values of the named query parameters or an
// InvalidInput error listing the missing ones.
func RequiredQuery(r *http.Request, names ...string) (map[string]string, error) {
	query := r.URL.Query()
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, apperrors.InvalidInput("Missing required query parameters: " + strings.Join(missing, ", "))
	}
	return values, nil
}
