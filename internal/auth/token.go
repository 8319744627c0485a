package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// BearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively; anything else yields "".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
