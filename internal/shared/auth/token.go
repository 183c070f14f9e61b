package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// BearerFromHeader returns the token carried by an Authorization header value, or "".
// The scheme comparison is case-insensitive.
func BearerFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// AuthorizationValue formats token for an outgoing Authorization header; "" when token is blank.
func AuthorizationValue(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// TokenFromRequest looks for a session token in, in order: the explicit candidate
// (usually a path parameter), the Authorization header and the queryParam query value.
func TokenFromRequest(r *http.Request, candidate, queryParam string) string {
	if token := strings.TrimSpace(candidate); token != "" {
		return token
	}
	if r == nil {
		return ""
	}
	if token := BearerFromHeader(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if queryParam == "" {
		queryParam = "token"
	}
	if r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}
