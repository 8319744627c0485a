package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError marks a malformed or incomplete request payload.
// Handlers map it to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsTruthy reports whether s is one of 1, true, yes, on (case-insensitive).
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// FlexBool decodes JSON booleans, numbers and truthy strings into a bool.
// Admin forms send checkbox values in all three shapes.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*b = false
	case bool:
		*b = FlexBool(val)
	case float64:
		*b = val != 0
	case string:
		*b = FlexBool(IsTruthy(val))
	default:
		return fmt.Errorf("cannot decode %s as bool", data)
	}
	return nil
}

// FlexInt decodes a JSON number or a numeric string into an int.
// Empty strings and null decode to zero.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*i = 0
	case float64:
		*i = FlexInt(val)
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			*i = 0
			return nil
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("cannot decode %q as int: %w", val, err)
		}
		*i = FlexInt(n)
	default:
		return fmt.Errorf("cannot decode %s as int", data)
	}
	return nil
}
