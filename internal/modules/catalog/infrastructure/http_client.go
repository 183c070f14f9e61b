package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/shared/auth"
)

const (
	defaultBaseURL   = "https://localhost:7015/api"
	maxResponseBytes = 8 << 20
)

// RESTOptions tunes the shared API client.
type RESTOptions struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	Progress      port.ProgressListener
	Client        *http.Client
}

// RESTClient wraps http.Client with base URL handling, cache-busting headers, request
// progress events and retries for idempotent reads.
type RESTClient struct {
	baseURL  string
	client   *http.Client
	attempts int
	backoff  time.Duration
	progress port.ProgressListener
	active   atomic.Int64
}

func NewRESTClient(baseURL string, opts RESTOptions) *RESTClient {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	trimmed = strings.TrimRight(trimmed, "/")
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeoutOrDefault(opts.Timeout)}
	} else if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	attempts := opts.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &RESTClient{baseURL: trimmed, client: client, attempts: attempts, backoff: opts.RetryBackoff, progress: opts.Progress}
}

// NewRequest builds a request against the base URL with the headers every API call carries.
func (c *RESTClient) NewRequest(ctx context.Context, method, endpoint, token string, body io.Reader) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")
	if value := auth.AuthorizationValue(token); value != "" {
		req.Header.Set("Authorization", value)
	}
	return req, nil
}

// Do sends req. GET requests are retried on transport errors and 5xx responses with
// exponential backoff when more than one attempt is configured.
func (c *RESTClient) Do(req *http.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	c.emit(port.ProgressEvent{RequestID: requestID, Method: req.Method, Path: req.URL.Path, Phase: port.ProgressStart, Active: int(c.active.Add(1))})

	res, err := c.send(req)

	event := port.ProgressEvent{RequestID: requestID, Method: req.Method, Path: req.URL.Path, Phase: port.ProgressDone, Active: int(c.active.Add(-1))}
	if err != nil {
		event.Err = err.Error()
	} else {
		event.Status = res.StatusCode
	}
	c.emit(event)
	return res, err
}

func (c *RESTClient) send(req *http.Request) (*http.Response, error) {
	attempts := 1
	if req.Method == http.MethodGet {
		attempts = c.attempts
	}
	var (
		res *http.Response
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err = c.client.Do(req.Clone(req.Context()))
		if !retryable(res, err) || attempt == attempts {
			return res, err
		}
		if res != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
			res.Body.Close()
		}
		wait := c.backoff << (attempt - 1)
		slog.Warn("api request retry", slog.String("method", req.Method), slog.String("path", req.URL.Path), slog.Int("attempt", attempt), slog.Duration("backoff", wait), slog.Any("error", err))
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}
		}
	}
	return res, err
}

func retryable(res *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return res.StatusCode >= http.StatusInternalServerError
}

func (c *RESTClient) emit(event port.ProgressEvent) {
	if c.progress == nil {
		return
	}
	event.At = time.Now().UTC()
	c.progress.OnProgress(event)
}

type apiCall struct {
	method      string
	path        string
	token       string
	query       url.Values
	body        io.Reader
	contentType string
}

// call performs one API exchange and returns the body of a successful response. Non-2xx
// statuses and error-bearing payloads come back as *port.ServerError.
func (c *RESTClient) call(ctx context.Context, in apiCall) ([]byte, error) {
	req, err := c.NewRequest(ctx, in.method, in.path, in.token, in.body)
	if err != nil {
		slog.Error("api request build failed", slog.String("path", in.path), slog.Any("error", err))
		return nil, err
	}
	if len(in.query) > 0 {
		req.URL.RawQuery = in.query.Encode()
	}
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	slog.Debug("api request", slog.String("method", in.method), slog.String("url", req.URL.String()))

	res, err := c.Do(req)
	if err != nil {
		slog.Error("api request error", slog.String("method", in.method), slog.String("path", in.path), slog.Any("error", err))
		return nil, fmt.Errorf("api request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("api response read failed: %w", err)
	}
	slog.Debug("api response", slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()), slog.Int("bytes", len(raw)))

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		serverErr := serverErrorFrom(res.StatusCode, raw)
		slog.Warn("api unexpected status", slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()), slog.String("message", serverErr.Message))
		return nil, serverErr
	}
	if serverErr := payloadError(raw); serverErr != nil {
		slog.Warn("api error payload", slog.String("url", req.URL.String()), slog.String("message", serverErr.Message))
		return nil, serverErr
	}
	return raw, nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return 10 * time.Second
	}
	return value
}
