package transport

import (
	"context"
	"fmt"
	"sync"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

type stubFetcher struct {
	mu      sync.Mutex
	queries []domain.ListQuery
	writes  []domain.WritePayload
	deleted []string
	err     error
	total   int
}

func (f *stubFetcher) List(_ context.Context, _ string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return domain.ListResult{}, f.err
	}
	total := f.total
	if total == 0 {
		total = 12
	}
	start := (query.Page - 1) * query.PageSize
	items := []domain.Record{}
	for index := start; index < total && index < start+query.PageSize; index++ {
		items = append(items, domain.Record{"id": fmt.Sprintf("%s-%d", entity.Name, index+1)})
	}
	return domain.ListResult{Items: items, TotalPages: (total + query.PageSize - 1) / query.PageSize, TotalCount: total}, nil
}

func (f *stubFetcher) Search(ctx context.Context, token string, entity domain.EntityConfig, query domain.ListQuery) (domain.ListResult, error) {
	return f.List(ctx, token, entity, query)
}

func (f *stubFetcher) Detail(_ context.Context, _ string, _ domain.EntityConfig, id string) (domain.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id == "missing" {
		return nil, port.NewServerError(404, "course not found", nil)
	}
	return domain.Record{"id": id, "title": "Intro"}, nil
}

func (f *stubFetcher) Create(_ context.Context, _ string, _ domain.EntityConfig, payload domain.WritePayload) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.writes = append(f.writes, payload)
	record := domain.Record{"id": "new-1"}
	for key, value := range payload.Fields {
		record[key] = value
	}
	return record, nil
}

func (f *stubFetcher) Update(_ context.Context, _ string, _ domain.EntityConfig, id string, payload domain.WritePayload) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.writes = append(f.writes, payload)
	return domain.Record{"id": id}, nil
}

func (f *stubFetcher) Delete(_ context.Context, _ string, _ domain.EntityConfig, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *stubFetcher) lastQuery() domain.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return domain.ListQuery{}
	}
	return f.queries[len(f.queries)-1]
}

type stubGateway struct {
	calls int
	token string
	err   error
}

func (g *stubGateway) Login(context.Context, domain.LoginForm) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.token, nil
}

func (g *stubGateway) Register(_ context.Context, form domain.RegisterForm) (domain.Record, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return domain.Record{"id": "c-1", "username": form.Username}, nil
}

func (g *stubGateway) Me(_ context.Context, token string) (domain.Record, error) {
	g.calls++
	if token != g.token {
		return nil, port.NewServerError(401, "Unauthorized", nil)
	}
	return domain.Record{"id": "c-1", "username": "ada"}, nil
}
