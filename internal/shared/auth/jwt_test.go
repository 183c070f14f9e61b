package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTValidatorValidatesHS256(t *testing.T) {
	now := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	v, err := NewJWTValidator("secret", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.now = func() time.Time { return now }

	token := signHS256(t, "secret", Claims{
		Username: "ada",
		Roles:    []string{"Admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "coder-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "coder-1" || claims.Username != "ada" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
	if claims.SessionID == "" {
		t.Fatal("expected derived session id")
	}
	if !claims.HasRole("admin") {
		t.Fatal("expected admin role")
	}
}

func TestJWTValidatorRejects(t *testing.T) {
	now := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	v, _ := NewJWTValidator("secret", "")
	v.now = func() time.Time { return now }

	expired := signHS256(t, "secret", Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "coder-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}})
	wrongKey := signHS256(t, "other", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "coder-1"}})
	noSubject := signHS256(t, "secret", Claims{Username: "ada"})

	cases := map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"no subject": noSubject,
		"garbage":    "not-a-token",
	}
	for name, token := range cases {
		if _, err := v.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}

	if _, err := v.Validate("   "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestJWTValidatorWithoutKey(t *testing.T) {
	v, _ := NewJWTValidator("", "")
	if v.Configured() {
		t.Fatal("expected unconfigured validator")
	}
	if _, err := v.Validate("abc"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewJWTValidatorRejectsBadPEM(t *testing.T) {
	if _, err := NewJWTValidator("", "-----BEGIN PUBLIC KEY-----\nnope\n-----END PUBLIC KEY-----"); err == nil {
		t.Fatal("expected pem parse error")
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/courses?token=query-token", nil)
	if got := TokenFromRequest(req, "", ""); got != "query-token" {
		t.Fatalf("expected query token, got %q", got)
	}

	req.Header.Set("Authorization", "BEARER header-token")
	if got := TokenFromRequest(req, "", ""); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}
	if got := TokenFromRequest(req, " path-token ", ""); got != "path-token" {
		t.Fatalf("expected path token, got %q", got)
	}
	if got := TokenFromRequest(nil, "", ""); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestAuthorizationValue(t *testing.T) {
	if got := AuthorizationValue("  abc "); got != "Bearer abc" {
		t.Fatalf("unexpected header: %q", got)
	}
	if got := AuthorizationValue(" "); got != "" {
		t.Fatalf("expected empty header, got %q", got)
	}
	if got := BearerFromHeader("Basic abc"); got != "" {
		t.Fatalf("expected non-bearer to be ignored, got %q", got)
	}
}
