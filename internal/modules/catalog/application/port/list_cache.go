package port

import (
	"context"

	"lmsWs/internal/modules/catalog/domain"
)

// ListCache stores list pages per entity and version. Callers read the version before
// fetching and store the page under that version, so a page fetched across an
// Invalidate lands where no later reader looks. A miss returns ok=false and a nil error.
type ListCache interface {
	Version(ctx context.Context, entity string) (int64, error)
	Get(ctx context.Context, entity string, version int64, key string) (domain.ListResult, bool, error)
	Set(ctx context.Context, entity string, version int64, key string, result domain.ListResult) error
	Invalidate(ctx context.Context, entity string) error
}
