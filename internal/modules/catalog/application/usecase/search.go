package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

// SearchUseCase runs keyword searches against an entity's search endpoint.
type SearchUseCase struct {
	fetch listFetch
}

func NewSearchUseCase(fetcher port.EntityFetcher) *SearchUseCase {
	return &SearchUseCase{fetch: fetcher.Search}
}

// Search returns an empty page for a blank keyword without issuing any request.
func (uc *SearchUseCase) Search(ctx context.Context, token, entity, keyword string, query domain.ListQuery) domain.Result[domain.ListResult] {
	normalized := domain.NormalizeKeyword(keyword)
	if normalized == "" {
		return domain.Success(domain.EmptyListResult())
	}
	if strings.TrimSpace(entity) == "" {
		return domain.Failure[domain.ListResult](port.ErrMissingController)
	}
	config, ok := domain.LookupEntity(entity)
	if !ok {
		return domain.Failure[domain.ListResult](fmt.Errorf("%w: %s", port.ErrUnsupported, strings.TrimSpace(entity)))
	}
	return uc.search(ctx, token, config, normalized, query)
}

func (uc *SearchUseCase) search(ctx context.Context, token string, entity domain.EntityConfig, keyword string, query domain.ListQuery) domain.Result[domain.ListResult] {
	if keyword == "" {
		return domain.Success(domain.EmptyListResult())
	}
	params := query.Normalize()
	params.Keyword = keyword
	result, err := uc.fetch(ctx, token, entity, params)
	if err != nil {
		slog.Warn("catalog search failed", slog.String("entity", entity.Name), slog.String("keyword", keyword), slog.Any("error", err))
		return domain.Failure[domain.ListResult](err)
	}
	return domain.Success(result)
}
