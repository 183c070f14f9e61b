package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

const (
	fetchKindList   = "list"
	fetchKindSearch = "search"
)

// InvalidationListener is told when an entity's lists went stale.
type InvalidationListener func(ctx context.Context, entity string)

// CatalogUseCase is the single parametrized list/detail/create/update/delete service for
// every configured entity. Every operation returns a domain.Result.
type CatalogUseCase struct {
	Fetcher port.EntityFetcher
	cache   port.ListCache
	search  *SearchUseCase
	group   singleflight.Group

	mu        sync.RWMutex
	listeners []InvalidationListener
	// epochs counts invalidations per entity; a shared fetch is only joined within one epoch.
	epochs map[string]uint64
}

// NewCatalogUseCase builds the service. cache may be nil.
func NewCatalogUseCase(fetcher port.EntityFetcher, cache port.ListCache) *CatalogUseCase {
	uc := &CatalogUseCase{Fetcher: fetcher, cache: cache, epochs: make(map[string]uint64)}
	uc.search = &SearchUseCase{fetch: func(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
		return uc.cachedFetch(ctx, token, entity, fetchKindSearch, query, uc.Fetcher.Search)
	}}
	return uc
}

// OnInvalidate registers a listener for local writes and external change events.
func (uc *CatalogUseCase) OnInvalidate(listener InvalidationListener) {
	if listener == nil {
		return
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, listener)
}

// Resolve maps any accepted entity spelling onto its configuration.
func (uc *CatalogUseCase) Resolve(entity string) (domain.EntityConfig, error) {
	if strings.TrimSpace(entity) == "" {
		return domain.EntityConfig{}, port.ErrMissingController
	}
	config, ok := domain.LookupEntity(entity)
	if !ok {
		return domain.EntityConfig{}, fmt.Errorf("%w: %s", port.ErrUnsupported, strings.TrimSpace(entity))
	}
	return config, nil
}

// List fetches one page. A query carrying a keyword goes through the search endpoint.
func (uc *CatalogUseCase) List(ctx context.Context, token, entity string, query domain.ListQuery) domain.Result[domain.ListResult] {
	config, err := uc.Resolve(entity)
	if err != nil {
		return domain.Failure[domain.ListResult](err)
	}
	normalized := query.Normalize()
	if normalized.Keyword != "" {
		return uc.search.search(ctx, token, config, normalized.Keyword, normalized)
	}

	result, err := uc.cachedFetch(ctx, token, config, fetchKindList, normalized, uc.Fetcher.List)
	if err != nil {
		slog.Warn("catalog list failed", slog.String("entity", config.Name), slog.String("queryKey", normalized.CanonicalKey()), slog.Any("error", err))
		return domain.Failure[domain.ListResult](err)
	}
	return domain.Success(result)
}

// Search runs a keyword search. A blank keyword resolves to an empty page without
// touching the network.
func (uc *CatalogUseCase) Search(ctx context.Context, token, entity, keyword string, query domain.ListQuery) domain.Result[domain.ListResult] {
	return uc.search.Search(ctx, token, entity, keyword, query)
}

// ListFetcher adapts List for a list controller bound to one token and entity.
func (uc *CatalogUseCase) ListFetcher(token string, entity domain.EntityConfig) FetchFunc {
	return func(ctx context.Context, query domain.ListQuery) (domain.ListResult, error) {
		return uc.List(ctx, token, entity.Name, query).Unwrap()
	}
}

func (uc *CatalogUseCase) Detail(ctx context.Context, token, entity, id string) domain.Result[domain.Record] {
	config, err := uc.Resolve(entity)
	if err != nil {
		return domain.Failure[domain.Record](err)
	}
	resource := strings.TrimSpace(id)
	if resource == "" {
		return domain.Failure[domain.Record](port.ErrMissingID)
	}
	record, err := uc.Fetcher.Detail(ctx, token, config, resource)
	if err != nil {
		slog.Warn("catalog detail failed", slog.String("entity", config.Name), slog.String("resourceId", resource), slog.Any("error", err))
		return domain.Failure[domain.Record](err)
	}
	return domain.Success(record)
}

func (uc *CatalogUseCase) Create(ctx context.Context, token, entity string, payload domain.WritePayload) domain.Result[domain.Record] {
	config, err := uc.writable(entity)
	if err != nil {
		return domain.Failure[domain.Record](err)
	}
	record, err := uc.Fetcher.Create(ctx, token, config, payload)
	if err != nil {
		slog.Warn("catalog create failed", slog.String("entity", config.Name), slog.Any("error", err))
		return domain.Failure[domain.Record](err)
	}
	slog.Info("catalog created", slog.String("entity", config.Name), slog.String("resourceId", record.ID()))
	uc.Invalidate(ctx, config.Name)
	return domain.Success(record)
}

func (uc *CatalogUseCase) Update(ctx context.Context, token, entity, id string, payload domain.WritePayload) domain.Result[domain.Record] {
	config, err := uc.writable(entity)
	if err != nil {
		return domain.Failure[domain.Record](err)
	}
	resource := strings.TrimSpace(id)
	if resource == "" {
		return domain.Failure[domain.Record](port.ErrMissingID)
	}
	record, err := uc.Fetcher.Update(ctx, token, config, resource, payload)
	if err != nil {
		slog.Warn("catalog update failed", slog.String("entity", config.Name), slog.String("resourceId", resource), slog.Any("error", err))
		return domain.Failure[domain.Record](err)
	}
	slog.Info("catalog updated", slog.String("entity", config.Name), slog.String("resourceId", resource))
	uc.Invalidate(ctx, config.Name)
	return domain.Success(record)
}

// Delete removes a record and returns its id. A blank id is rejected before any request.
func (uc *CatalogUseCase) Delete(ctx context.Context, token, entity, id string) domain.Result[string] {
	config, err := uc.writable(entity)
	if err != nil {
		return domain.Failure[string](err)
	}
	resource := strings.TrimSpace(id)
	if resource == "" {
		return domain.Failure[string](port.ErrMissingID)
	}
	if err := uc.Fetcher.Delete(ctx, token, config, resource); err != nil {
		slog.Warn("catalog delete failed", slog.String("entity", config.Name), slog.String("resourceId", resource), slog.Any("error", err))
		return domain.Failure[string](err)
	}
	slog.Info("catalog deleted", slog.String("entity", config.Name), slog.String("resourceId", resource))
	uc.Invalidate(ctx, config.Name)
	return domain.Success(resource)
}

// Invalidate drops the cached pages of entity and notifies the listeners.
func (uc *CatalogUseCase) Invalidate(ctx context.Context, entity string) {
	name := strings.TrimSpace(entity)
	if name == "" {
		return
	}
	uc.mu.Lock()
	uc.epochs[name]++
	uc.mu.Unlock()
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, name); err != nil {
			slog.Warn("catalog cache invalidate failed", slog.String("entity", name), slog.Any("error", err))
		}
	}
	uc.mu.RLock()
	listeners := append([]InvalidationListener(nil), uc.listeners...)
	uc.mu.RUnlock()
	for _, listener := range listeners {
		listener(ctx, name)
	}
}

func (uc *CatalogUseCase) writable(entity string) (domain.EntityConfig, error) {
	config, err := uc.Resolve(entity)
	if err != nil {
		return config, err
	}
	if config.ReadOnly {
		return config, fmt.Errorf("%w: %s is read-only", port.ErrUnsupported, config.Name)
	}
	return config, nil
}

type listFetch func(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error)

func (uc *CatalogUseCase) epoch(entity string) uint64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.epochs[entity]
}

// cachedFetch serves from the list cache, then coalesces identical concurrent requests.
// The epoch and cache version are read before fetching: a request issued after an
// invalidation never joins an older shared fetch, and an older fetch stores its page
// under the version it started with. The shared request outlives a caller that gives
// up; that caller gets its ctx error.
func (uc *CatalogUseCase) cachedFetch(ctx context.Context, token string, entity domain.EntityConfig, kind string, query domain.ListQuery, fetch listFetch) (domain.ListResult, error) {
	key := tokenFingerprint(token) + "|" + kind + "|" + query.CanonicalKey()
	epoch := uc.epoch(entity.Name)

	var version int64
	cacheable := uc.cache != nil
	if cacheable {
		ver, err := uc.cache.Version(ctx, entity.Name)
		if err != nil {
			slog.Warn("catalog cache version read failed", slog.String("entity", entity.Name), slog.Any("error", err))
			cacheable = false
		} else {
			version = ver
			cached, ok, err := uc.cache.Get(ctx, entity.Name, version, key)
			if err != nil {
				slog.Warn("catalog cache read failed", slog.String("entity", entity.Name), slog.Any("error", err))
			} else if ok {
				slog.Debug("catalog cache hit", slog.String("entity", entity.Name), slog.String("queryKey", key), slog.Int64("version", version))
				return cached, nil
			}
		}
	}

	detached := context.WithoutCancel(ctx)
	flightKey := fmt.Sprintf("%s|%d|%d|%s", entity.Name, epoch, version, key)
	resultCh := uc.group.DoChan(flightKey, func() (any, error) {
		result, err := fetch(detached, token, entity, query)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if cacheErr := uc.cache.Set(detached, entity.Name, version, key, result); cacheErr != nil {
				slog.Warn("catalog cache write failed", slog.String("entity", entity.Name), slog.Any("error", cacheErr))
			}
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return domain.ListResult{}, ctx.Err()
	case outcome := <-resultCh:
		if outcome.Err != nil {
			return domain.ListResult{}, outcome.Err
		}
		result, ok := outcome.Val.(domain.ListResult)
		if !ok {
			return domain.ListResult{}, errors.New("catalog: unexpected shared result")
		}
		return result, nil
	}
}

// tokenFingerprint keeps per-user pages apart in the cache without storing the token.
func tokenFingerprint(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:8])
}
