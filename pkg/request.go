package pkg

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const maxJSONBodyBytes = 4 << 20

// DecodeJSONBody decodes the request body into v. An empty body leaves v
// untouched, malformed JSON is a ValidationError.
func DecodeJSONBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewValidationError("request body too large, limit is %d bytes", tooLarge.Limit)
		}
		return NewValidationError("invalid json body: %s", err)
	}
	return nil
}

// IntVar reads a positive integer path variable.
func IntVar(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	if raw == "" {
		return 0, NewValidationError("%s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, NewValidationError("invalid %s: %q", name, raw)
	}
	return v, nil
}

// QueryInt reads an integer query parameter clamped to [min, max].
// Missing or malformed values yield def.
func QueryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
