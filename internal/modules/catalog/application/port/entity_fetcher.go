package port

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lmsWs/internal/modules/catalog/domain"
)

var (
	ErrForbidden         = errors.New("entity fetch forbidden")
	ErrNotFound          = errors.New("entity not found")
	ErrUnsupported       = errors.New("entity unsupported")
	ErrMissingController = errors.New("entity controller is required")
	ErrMissingID         = errors.New("entity id is required")
	ErrEmptyKeyword      = errors.New("search keyword is required")
	ErrUnauthorized      = errors.New("unauthorized")
)

// EntityFetcher is the generic REST client for every configured entity.
type EntityFetcher interface {
	List(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error)
	Search(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error)
	Detail(ctx context.Context, token string, entity domain.EntityConfig, id string) (domain.Record, error)
	Create(ctx context.Context, token string, entity domain.EntityConfig, payload domain.WritePayload) (domain.Record, error)
	Update(ctx context.Context, token string, entity domain.EntityConfig, id string, payload domain.WritePayload) (domain.Record, error)
	Delete(ctx context.Context, token string, entity domain.EntityConfig, id string) error
}

// ServerError is an error reported by the API, either through a non-2xx status or an
// error-bearing 2xx payload.
type ServerError struct {
	Status  int
	Message string
	Fields  map[string]string
	cause   error
}

func NewServerError(status int, message string, fields map[string]string) *ServerError {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		trimmed = http.StatusText(status)
	}
	if trimmed == "" {
		trimmed = "request failed"
	}
	serverErr := &ServerError{Status: status, Message: trimmed, Fields: fields}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		serverErr.cause = ErrForbidden
	case http.StatusNotFound:
		serverErr.cause = ErrNotFound
	}
	return serverErr
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *ServerError) Unwrap() error {
	return e.cause
}

// HTTPStatus lets httputil.ErrorMapper forward the API status; 2xx error payloads map
// to 400.
func (e *ServerError) HTTPStatus() int {
	if e.Status >= http.StatusBadRequest {
		return e.Status
	}
	return http.StatusBadRequest
}
