package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/normalization"
)

const (
	loginPath    = "/Auth/login"
	registerPath = "/Coder"
	mePath       = "/Auth/me"
)

// AuthHTTPClient implements port.AuthGateway against the API's auth endpoints.
type AuthHTTPClient struct {
	rest *RESTClient
}

func NewAuthHTTPClient(rest *RESTClient) *AuthHTTPClient {
	return &AuthHTTPClient{rest: rest}
}

// Login returns the API token found under token, accessToken or data.token.
func (c *AuthHTTPClient) Login(ctx context.Context, form domain.LoginForm) (string, error) {
	body, err := json.Marshal(map[string]string{"username": form.Username, "password": form.Password})
	if err != nil {
		return "", err
	}
	raw, err := c.rest.call(ctx, apiCall{method: http.MethodPost, path: loginPath, body: bytes.NewReader(body), contentType: "application/json"})
	if err != nil {
		return "", err
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &payload); err != nil {
		return "", fmt.Errorf("decode login: %w", err)
	}
	token := normalization.FirstString(payload, "token", "accessToken", "access_token")
	if token == "" {
		if data, ok := payload["data"].(map[string]any); ok {
			token = normalization.FirstString(data, "token", "accessToken")
		}
	}
	if token == "" {
		slog.Warn("auth login response without token")
		return "", port.NewServerError(http.StatusBadGateway, "login response carried no token", nil)
	}
	return token, nil
}

func (c *AuthHTTPClient) Register(ctx context.Context, form domain.RegisterForm) (domain.Record, error) {
	body, err := json.Marshal(map[string]string{
		"username": form.Username,
		"email":    form.Email,
		"password": form.Password,
		"fullName": form.FullName,
	})
	if err != nil {
		return nil, err
	}
	raw, err := c.rest.call(ctx, apiCall{method: http.MethodPost, path: registerPath, body: bytes.NewReader(body), contentType: "application/json"})
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw, domain.EntityConfig{Name: "coders"})
}

func (c *AuthHTTPClient) Me(ctx context.Context, token string) (domain.Record, error) {
	if strings.TrimSpace(token) == "" {
		return nil, port.ErrUnauthorized
	}
	raw, err := c.rest.call(ctx, apiCall{method: http.MethodGet, path: mePath, token: token})
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw, domain.EntityConfig{Name: "coders"})
}

var _ port.AuthGateway = (*AuthHTTPClient)(nil)
