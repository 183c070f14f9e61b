package usecase

import (
	"context"
	"strconv"
	"sync"

	"lmsWs/internal/modules/catalog/domain"
)

type fetcherCall struct {
	method string
	entity string
	id     string
	query  domain.ListQuery
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  []fetcherCall
	list   domain.ListResult
	record domain.Record
	err    error
}

func (f *fakeFetcher) track(call fetcherCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() fetcherCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return fetcherCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeFetcher) List(_ context.Context, _ string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
	f.track(fetcherCall{method: "list", entity: entity.Name, query: query})
	return f.list, f.err
}

func (f *fakeFetcher) Search(_ context.Context, _ string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
	f.track(fetcherCall{method: "search", entity: entity.Name, query: query})
	return f.list, f.err
}

func (f *fakeFetcher) Detail(_ context.Context, _ string, entity domain.EntityConfig, id string) (domain.Record, error) {
	f.track(fetcherCall{method: "detail", entity: entity.Name, id: id})
	return f.record, f.err
}

func (f *fakeFetcher) Create(_ context.Context, _ string, entity domain.EntityConfig, _ domain.WritePayload) (domain.Record, error) {
	f.track(fetcherCall{method: "create", entity: entity.Name})
	return f.record, f.err
}

func (f *fakeFetcher) Update(_ context.Context, _ string, entity domain.EntityConfig, id string, _ domain.WritePayload) (domain.Record, error) {
	f.track(fetcherCall{method: "update", entity: entity.Name, id: id})
	return f.record, f.err
}

func (f *fakeFetcher) Delete(_ context.Context, _ string, entity domain.EntityConfig, id string) error {
	f.track(fetcherCall{method: "delete", entity: entity.Name, id: id})
	return f.err
}

type memoryCache struct {
	mu          sync.Mutex
	pages       map[string]domain.ListResult
	versions    map[string]int64
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{pages: map[string]domain.ListResult{}, versions: map[string]int64{}}
}

func pageKey(entity string, version int64, key string) string {
	return entity + "#" + strconv.FormatInt(version, 10) + "#" + key
}

func (c *memoryCache) Version(_ context.Context, entity string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[entity], nil
}

func (c *memoryCache) Get(_ context.Context, entity string, version int64, key string) (domain.ListResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.pages[pageKey(entity, version, key)]
	return result, ok, nil
}

func (c *memoryCache) Set(_ context.Context, entity string, version int64, key string, result domain.ListResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[pageKey(entity, version, key)] = result
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, entity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[entity]++
	c.invalidated = append(c.invalidated, entity)
	return nil
}

type fakeGateway struct {
	loginCalls    int
	meCalls       int
	registerCalls int
	token         string
	user          domain.Record
	err           error
}

func (g *fakeGateway) Login(_ context.Context, _ domain.LoginForm) (string, error) {
	g.loginCalls++
	return g.token, g.err
}

func (g *fakeGateway) Register(_ context.Context, form domain.RegisterForm) (domain.Record, error) {
	g.registerCalls++
	if g.err != nil {
		return nil, g.err
	}
	return domain.Record{"id": "c-1", "username": form.Username}, nil
}

func (g *fakeGateway) Me(_ context.Context, _ string) (domain.Record, error) {
	g.meCalls++
	return g.user, nil
}

func records(prefix string, count int) []domain.Record {
	items := make([]domain.Record, 0, count)
	for index := 0; index < count; index++ {
		items = append(items, domain.Record{"id": prefix + string(rune('a'+index))})
	}
	return items
}
