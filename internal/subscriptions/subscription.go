package subscriptions

import (
	"errors"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/pkg"
)

// MaxListed caps the admin listing.
const MaxListed = 500

var ErrNotFound = errors.New("subscription not found")

type Subscription struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type SubscribeParams struct {
	Email         string       `json:"email"`
	AcceptedTerms pkg.FlexBool `json:"accepted_terms"`
}

// validate returns the normalized email of a subscribe request.
func (p SubscribeParams) validate() (string, error) {
	if !p.AcceptedTerms {
		return "", pkg.NewValidationError("you must accept the terms")
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if !pkg.IsValidEmail(email) {
		return "", pkg.NewValidationError("invalid email")
	}
	return email, nil
}
