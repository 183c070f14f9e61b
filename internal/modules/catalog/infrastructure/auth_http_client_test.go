package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

func newTestAuthClient(t *testing.T, handler http.HandlerFunc) *AuthHTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAuthHTTPClient(NewRESTClient(server.URL, RESTOptions{Client: server.Client()}))
}

func TestAuthLoginReadsTokenShapes(t *testing.T) {
	cases := map[string]string{
		"token":        `{"token":"abc"}`,
		"access token": `{"accessToken":"abc"}`,
		"wrapped":      `{"data":{"token":"abc"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/Auth/login" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var form map[string]string
				_ = json.NewDecoder(r.Body).Decode(&form)
				if form["username"] != "ada" || form["password"] != "secret" {
					t.Errorf("unexpected form %v", form)
				}
				_, _ = io.WriteString(w, body)
			})

			token, err := client.Login(context.Background(), domain.LoginForm{Username: "ada", Password: "secret"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != "abc" {
				t.Fatalf("expected token abc, got %q", token)
			}
		})
	}
}

func TestAuthLoginWithoutToken(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user":"ada"}`)
	})

	_, err := client.Login(context.Background(), domain.LoginForm{Username: "ada", Password: "secret"})
	var serverErr *port.ServerError
	if !errors.As(err, &serverErr) || serverErr.Status != http.StatusBadGateway {
		t.Fatalf("expected bad gateway server error, got %v", err)
	}
}

func TestAuthLoginRejected(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
	})

	_, err := client.Login(context.Background(), domain.LoginForm{Username: "ada", Password: "wrong"})
	if !errors.Is(err, port.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	var serverErr *port.ServerError
	if !errors.As(err, &serverErr) || serverErr.Message != "Invalid credentials" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAuthMeSendsBearer(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"42","username":"ada"}}`)
	})

	me, err := client.Me(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.ID() != "42" || me["username"] != "ada" {
		t.Fatalf("unexpected profile %v", me)
	}

	if _, err := client.Me(context.Background(), " "); !errors.Is(err, port.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without token, got %v", err)
	}
}

func TestAuthRegisterPostsCoder(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Coder" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var form map[string]string
		_ = json.NewDecoder(r.Body).Decode(&form)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "7", "username": form["username"], "fullName": form["fullName"]})
	})

	created, err := client.Register(context.Background(), domain.RegisterForm{Username: "ada", Email: "ada@example.com", Password: "secret1", FullName: "Ada L"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID() != "7" || created["fullName"] != "Ada L" {
		t.Fatalf("unexpected record %v", created)
	}
}
