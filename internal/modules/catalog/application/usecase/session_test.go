package usecase

import (
	"context"
	"errors"
	"testing"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

func TestSessionLoginEmptyFields(t *testing.T) {
	gateway := &fakeGateway{}
	uc := NewSessionUseCase(gateway, nil)

	result := uc.Login(context.Background(), domain.LoginForm{Username: "", Password: "  "})

	var verr *domain.ValidationError
	if !errors.As(result.Err, &verr) {
		t.Fatalf("expected validation error, got %v", result.Err)
	}
	if len(verr.Fields) != 2 || verr.Fields["username"] == "" || verr.Fields["password"] == "" {
		t.Fatalf("expected two field errors, got %v", verr.Fields)
	}
	if gateway.loginCalls != 0 || gateway.meCalls != 0 {
		t.Fatal("expected zero network calls")
	}
}

func TestSessionLoginRehydratesUser(t *testing.T) {
	gateway := &fakeGateway{token: "jwt", user: domain.Record{"id": "7", "username": "ana"}}
	uc := NewSessionUseCase(gateway, nil)

	result := uc.Login(context.Background(), domain.LoginForm{Username: " ana ", Password: "secret"})

	if !result.OK {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if result.Data.Token != "jwt" || result.Data.User.ID() != "7" {
		t.Fatalf("unexpected session %+v", result.Data)
	}
	if gateway.loginCalls != 1 || gateway.meCalls != 1 {
		t.Fatalf("expected login then me, got %d/%d", gateway.loginCalls, gateway.meCalls)
	}
}

func TestSessionLoginMapsServerFieldErrors(t *testing.T) {
	gateway := &fakeGateway{err: port.NewServerError(400, "invalid", map[string]string{"Password": "wrong password"})}
	uc := NewSessionUseCase(gateway, nil)

	result := uc.Login(context.Background(), domain.LoginForm{Username: "ana", Password: "nope"})

	var verr *domain.ValidationError
	if !errors.As(result.Err, &verr) || verr.Fields["password"] != "wrong password" {
		t.Fatalf("expected password field error, got %v", result.Err)
	}
}

func TestSessionRegisterValidation(t *testing.T) {
	gateway := &fakeGateway{}
	uc := NewSessionUseCase(gateway, nil)

	result := uc.Register(context.Background(), domain.RegisterForm{Username: "ab", Email: "not-an-email", Password: "123", FullName: ""})

	var verr *domain.ValidationError
	if !errors.As(result.Err, &verr) {
		t.Fatalf("expected validation error, got %v", result.Err)
	}
	for _, field := range []string{"username", "email", "password", "fullName"} {
		if verr.Fields[field] == "" {
			t.Fatalf("expected an error for %s, got %v", field, verr.Fields)
		}
	}
	if gateway.registerCalls != 0 {
		t.Fatal("expected no request for an invalid form")
	}

	ok := uc.Register(context.Background(), domain.RegisterForm{Username: "ana", Email: "ana@example.com", Password: "secret1", FullName: "Ana"})
	if !ok.OK || ok.Data.ID() != "c-1" {
		t.Fatalf("unexpected register result %+v", ok)
	}
}

func TestSessionMeRequiresToken(t *testing.T) {
	uc := NewSessionUseCase(&fakeGateway{}, nil)
	if result := uc.Me(context.Background(), " "); !errors.Is(result.Err, port.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", result.Err)
	}
}
