package infrastructure

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

// EntityHTTPClient implements port.EntityFetcher for every entity in the domain table.
type EntityHTTPClient struct {
	rest *RESTClient
}

func NewEntityHTTPClient(rest *RESTClient) *EntityHTTPClient {
	return &EntityHTTPClient{rest: rest}
}

func (c *EntityHTTPClient) List(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
	if strings.TrimSpace(entity.Controller) == "" {
		return domain.ListResult{}, port.ErrMissingController
	}
	normalized := query.Normalize()
	slog.Info("entity list fetch start", slog.String("entity", entity.Name), slog.Int("page", normalized.Page), slog.Int("pageSize", normalized.PageSize))
	return c.fetchList(ctx, token, entity, entity.ListPath(), normalized)
}

func (c *EntityHTTPClient) Search(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
	if strings.TrimSpace(entity.Controller) == "" {
		return domain.ListResult{}, port.ErrMissingController
	}
	normalized := query.Normalize()
	if normalized.Keyword == "" {
		return domain.ListResult{}, port.ErrEmptyKeyword
	}
	slog.Info("entity search start", slog.String("entity", entity.Name), slog.String("keyword", normalized.Keyword))
	return c.fetchList(ctx, token, entity, entity.SearchRoute(), normalized)
}

func (c *EntityHTTPClient) fetchList(ctx context.Context, token string, entity domain.EntityConfig, path string, query domain.ListQuery) (domain.ListResult, error) {
	raw, err := c.rest.call(ctx, apiCall{
		method: http.MethodGet,
		path:   path,
		token:  token,
		query:  query.Values(entity.FilterAliases),
	})
	if err != nil {
		return domain.ListResult{}, err
	}
	return decodeListEnvelope(raw, query.Page, query.PageSize, entity)
}

func (c *EntityHTTPClient) Detail(ctx context.Context, token string, entity domain.EntityConfig, id string) (domain.Record, error) {
	path, err := resourcePath(entity, id)
	if err != nil {
		return nil, err
	}
	slog.Info("entity detail fetch start", slog.String("entity", entity.Name), slog.String("resourceId", strings.TrimSpace(id)))
	raw, err := c.rest.call(ctx, apiCall{method: http.MethodGet, path: path, token: token})
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw, entity)
}

func (c *EntityHTTPClient) Create(ctx context.Context, token string, entity domain.EntityConfig, payload domain.WritePayload) (domain.Record, error) {
	if strings.TrimSpace(entity.Controller) == "" {
		return nil, port.ErrMissingController
	}
	return c.write(ctx, token, entity, http.MethodPost, entity.ListPath(), payload)
}

func (c *EntityHTTPClient) Update(ctx context.Context, token string, entity domain.EntityConfig, id string, payload domain.WritePayload) (domain.Record, error) {
	path, err := resourcePath(entity, id)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, token, entity, http.MethodPut, path, payload)
}

func (c *EntityHTTPClient) Delete(ctx context.Context, token string, entity domain.EntityConfig, id string) error {
	path, err := resourcePath(entity, id)
	if err != nil {
		return err
	}
	slog.Info("entity delete start", slog.String("entity", entity.Name), slog.String("resourceId", strings.TrimSpace(id)))
	_, err = c.rest.call(ctx, apiCall{method: http.MethodDelete, path: path, token: token})
	return err
}

func (c *EntityHTTPClient) write(ctx context.Context, token string, entity domain.EntityConfig, method, path string, payload domain.WritePayload) (domain.Record, error) {
	body, contentType, err := encodeWriteBody(entity, payload)
	if err != nil {
		return nil, err
	}
	slog.Info("entity write start", slog.String("entity", entity.Name), slog.String("method", method), slog.Bool("multipart", payload.HasFiles()))
	raw, err := c.rest.call(ctx, apiCall{method: method, path: path, token: token, body: body, contentType: contentType})
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw, entity)
}

func resourcePath(entity domain.EntityConfig, id string) (string, error) {
	if strings.TrimSpace(entity.Controller) == "" {
		return "", port.ErrMissingController
	}
	if strings.TrimSpace(id) == "" {
		return "", port.ErrMissingID
	}
	return entity.ResourcePath(escapeSegment(id)), nil
}

func escapeSegment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}

var _ port.EntityFetcher = (*EntityHTTPClient)(nil)
