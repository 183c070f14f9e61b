package port

import (
	"context"

	"lmsWs/internal/modules/catalog/domain"
)

// AuthGateway talks to the API's authentication endpoints.
type AuthGateway interface {
	Login(ctx context.Context, form domain.LoginForm) (string, error)
	Register(ctx context.Context, form domain.RegisterForm) (domain.Record, error)
	Me(ctx context.Context, token string) (domain.Record, error)
}
