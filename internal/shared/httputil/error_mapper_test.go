package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errMissing = errors.New("missing id")

type upstreamError struct{ status int }

func (e *upstreamError) Error() string   { return fmt.Sprintf("upstream said %d", e.status) }
func (e *upstreamError) HTTPStatus() int { return e.status }

func TestErrorMapperMap(t *testing.T) {
	mapper := NewErrorMapper().
		WithMapping(errMissing, http.StatusBadRequest, "").
		WithDefault(http.StatusBadGateway, "upstream failure")

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "request timeout"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "request cancelled"},
		{"mapped uses error text", fmt.Errorf("delete: %w", errMissing), http.StatusBadRequest, "delete: missing id"},
		{"status carrier", fmt.Errorf("list: %w", &upstreamError{status: http.StatusConflict}), http.StatusConflict, "upstream said 409"},
		{"carrier below 400 falls to default", &upstreamError{status: http.StatusOK}, http.StatusBadGateway, "upstream failure"},
		{"default", errors.New("boom"), http.StatusBadGateway, "upstream failure"},
	}

	for _, tc := range cases {
		info := mapper.Map(tc.err)
		if info.Status != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, info.Status)
		}
		if info.Message != tc.message {
			t.Fatalf("%s: expected message %q, got %q", tc.name, tc.message, info.Message)
		}
	}
}
