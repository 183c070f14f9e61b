package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

// SessionUseCase is the authentication gate: it checks forms locally, then signs in or
// registers against the API and rehydrates the current user.
type SessionUseCase struct {
	Gateway  port.AuthGateway
	validate *validator.Validate
}

// NewSessionUseCase builds the gate. A nil validate gets a fresh validator.
func NewSessionUseCase(gateway port.AuthGateway, validate *validator.Validate) *SessionUseCase {
	if validate == nil {
		validate = NewValidator()
	}
	return &SessionUseCase{Gateway: gateway, validate: validate}
}

// NewValidator reports field errors under their json names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// Login returns the token and the current user. Blank fields fail with a
// *domain.ValidationError before any request.
func (uc *SessionUseCase) Login(ctx context.Context, form domain.LoginForm) domain.Result[domain.Session] {
	form.Username = strings.TrimSpace(form.Username)
	check := form
	check.Password = strings.TrimSpace(form.Password)
	if verr := uc.check(check); verr != nil {
		return domain.Failure[domain.Session](verr)
	}

	token, err := uc.Gateway.Login(ctx, form)
	if err != nil {
		slog.Warn("session login failed", slog.String("username", form.Username), slog.Any("error", err))
		return domain.Failure[domain.Session](mapServerFields(err))
	}
	session := domain.Session{Token: token}

	user, err := uc.Gateway.Me(ctx, token)
	if err != nil {
		slog.Warn("session rehydrate failed", slog.String("username", form.Username), slog.Any("error", err))
		return domain.Success(session)
	}
	session.User = user
	slog.Info("session login", slog.String("username", form.Username))
	return domain.Success(session)
}

// Register creates a coder account.
func (uc *SessionUseCase) Register(ctx context.Context, form domain.RegisterForm) domain.Result[domain.Record] {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.FullName = strings.TrimSpace(form.FullName)
	if verr := uc.check(form); verr != nil {
		return domain.Failure[domain.Record](verr)
	}

	record, err := uc.Gateway.Register(ctx, form)
	if err != nil {
		slog.Warn("session register failed", slog.String("username", form.Username), slog.Any("error", err))
		return domain.Failure[domain.Record](mapServerFields(err))
	}
	slog.Info("session registered", slog.String("username", form.Username))
	return domain.Success(record)
}

// Me rehydrates the current user for token.
func (uc *SessionUseCase) Me(ctx context.Context, token string) domain.Result[domain.Record] {
	if strings.TrimSpace(token) == "" {
		return domain.Failure[domain.Record](port.ErrUnauthorized)
	}
	user, err := uc.Gateway.Me(ctx, strings.TrimSpace(token))
	if err != nil {
		return domain.Failure[domain.Record](err)
	}
	return domain.Success(user)
}

func (uc *SessionUseCase) check(form any) *domain.ValidationError {
	err := uc.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr := domain.NewValidationError()
		verr.Add("form", err.Error())
		return verr
	}
	verr := domain.NewValidationError()
	for _, fieldErr := range fieldErrs {
		verr.Add(fieldErr.Field(), fieldMessage(fieldErr))
	}
	return verr
}

func fieldMessage(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fieldErr.Param())
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " is invalid"
	}
}

// mapServerFields turns API field errors into a ValidationError so forms can show them
// next to the offending inputs.
func mapServerFields(err error) error {
	var serverErr *port.ServerError
	if !errors.As(err, &serverErr) || len(serverErr.Fields) == 0 {
		return err
	}
	verr := domain.NewValidationError()
	for field, message := range serverErr.Fields {
		verr.Add(lowerFirst(field), message)
	}
	return verr
}

func lowerFirst(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return trimmed
	}
	return strings.ToLower(trimmed[:1]) + trimmed[1:]
}
