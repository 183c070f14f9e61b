package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/debounce"
)

// DefaultListDebounce is the quiet period before a list fetch fires.
const DefaultListDebounce = 500 * time.Millisecond

var (
	ErrListClosed      = errors.New("list controller closed")
	ErrNotInfinite     = errors.New("load more requires infinite mode")
	ErrLoadMoreBlocked = errors.New("load more refused")
)

// FetchFunc fetches one page for a list controller.
type FetchFunc func(ctx context.Context, query domain.ListQuery) (domain.ListResult, error)

type ListControllerOptions struct {
	ID       string
	Entity   string
	Mode     domain.ListMode
	Query    domain.ListQuery
	Debounce time.Duration
	// OnChange receives state snapshots in revision order. It is called without the
	// controller lock held, one call at a time, from whichever goroutine made the change.
	// A snapshot overtaken by a newer one is skipped.
	OnChange func(domain.ListState)
}

// ListController owns the state of one open list and drives its debounced fetches.
// Each fired fetch gets a generation number and cancels the previous request; only the
// response of the latest generation is applied.
type ListController struct {
	id       string
	entity   string
	fetch    FetchFunc
	onChange func(domain.ListState)

	mu         sync.Mutex
	state      domain.ListState
	debouncer  *debounce.Debouncer
	generation uint64
	cancel     context.CancelFunc
	inFlight   bool
	appendNext bool
	clampRetry bool
	closed     bool
	baseCtx    context.Context
	closeCtx   context.CancelFunc

	notifyMu  sync.Mutex
	delivered uint64
}

func NewListController(fetch FetchFunc, opts ListControllerOptions) *ListController {
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultListDebounce
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModePaged
	}
	query := opts.Query
	if query.PageSize == 0 && query.Page == 0 {
		query = domain.NewListQuery(domain.DefaultPageSize)
	}
	baseCtx, closeCtx := context.WithCancel(context.Background())

	controller := &ListController{
		id:       strings.TrimSpace(opts.ID),
		entity:   strings.TrimSpace(opts.Entity),
		fetch:    fetch,
		onChange: opts.OnChange,
		state: domain.ListState{
			Status: domain.StatusIdle,
			Mode:   mode,
			Query:  query.Normalize(),
		},
		baseCtx:  baseCtx,
		closeCtx: closeCtx,
	}
	controller.debouncer = debounce.New(delay, controller.run)
	return controller
}

func (c *ListController) ID() string {
	return c.id
}

func (c *ListController) Entity() string {
	return c.entity
}

// State returns a snapshot safe to hand to other goroutines.
func (c *ListController) State() domain.ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Start schedules the mount-time fetch.
func (c *ListController) Start() {
	c.schedule(false)
}

// ToggleSort flips the direction when field is already active; otherwise it switches to
// field ascending. Either way the list goes back to page 1.
func (c *ListController) ToggleSort(field string) {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return
	}
	c.mutate(func(state *domain.ListState) bool {
		if strings.EqualFold(state.Query.SortField, trimmed) {
			state.Query.Ascending = !state.Query.Ascending
		} else {
			state.Query.SortField = trimmed
			state.Query.Ascending = true
		}
		c.resetLocked(state)
		return true
	})
}

// SetPageSize changes the page size and goes back to page 1 with no accumulated items.
func (c *ListController) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	c.mutate(func(state *domain.ListState) bool {
		state.Query.PageSize = size
		state.Query = state.Query.Normalize()
		state.Query.Page = 1
		state.Items = nil
		state.HasMore = false
		return true
	})
}

// SetPage navigates in paged mode. The page is clamped once the total is known.
func (c *ListController) SetPage(page int) {
	c.mutate(func(state *domain.ListState) bool {
		if state.Mode != domain.ModePaged {
			return false
		}
		state.Query.Page = page
		state.Query = state.Query.Clamp(state.TotalPages)
		return true
	})
}

// SetKeyword narrows the list; a blank keyword goes back to the plain listing.
func (c *ListController) SetKeyword(keyword string) {
	normalized := domain.NormalizeKeyword(keyword)
	c.mutate(func(state *domain.ListState) bool {
		state.Query.Keyword = normalized
		c.resetLocked(state)
		return true
	})
}

// SetFilters replaces the extra filters.
func (c *ListController) SetFilters(filters map[string]string) {
	c.mutate(func(state *domain.ListState) bool {
		state.Query.Filters = filters
		state.Query = state.Query.Normalize()
		c.resetLocked(state)
		return true
	})
}

// LoadMore requests the next page in infinite mode. It refuses while a fetch is
// scheduled or running and once the last page is loaded.
func (c *ListController) LoadMore() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrListClosed
	}
	if c.state.Mode != domain.ModeInfinite {
		c.mu.Unlock()
		return ErrNotInfinite
	}
	if c.inFlight || c.debouncer.Pending() || c.state.Query.Page >= c.state.TotalPages {
		slog.Debug("list load more refused", slog.String("listId", c.id), slog.String("entity", c.entity), slog.Int("page", c.state.Query.Page), slog.Int("totalPages", c.state.TotalPages), slog.Bool("inFlight", c.inFlight))
		c.mu.Unlock()
		return ErrLoadMoreBlocked
	}
	c.state.Query.Page++
	c.appendNext = true
	c.mu.Unlock()

	c.debouncer.Trigger()
	return nil
}

// Refresh re-fetches the current page. In infinite mode the list restarts at page 1.
func (c *ListController) Refresh() {
	c.mutate(func(state *domain.ListState) bool {
		if state.Mode == domain.ModeInfinite && state.Query.Page > 1 {
			state.Query.Page = 1
		}
		return true
	})
}

// Flush runs a scheduled fetch now, on the caller's goroutine.
func (c *ListController) Flush() bool {
	return c.debouncer.Flush()
}

// Close cancels the scheduled fetch and the running request. Later responses are dropped.
func (c *ListController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.abandonLocked()
	c.mu.Unlock()

	c.debouncer.Stop()
	c.closeCtx()
}

func (c *ListController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// resetLocked goes back to page 1; infinite lists also drop what they accumulated.
func (c *ListController) resetLocked(state *domain.ListState) {
	state.Query.Page = 1
	if state.Mode == domain.ModeInfinite {
		state.Items = nil
		state.HasMore = false
	}
}

func (c *ListController) mutate(apply func(state *domain.ListState) bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !apply(&c.state) {
		c.mu.Unlock()
		return
	}
	c.appendNext = false
	c.clampRetry = false
	c.abandonLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	c.debouncer.Trigger()
}

// abandonLocked drops the running request; its response no longer matches the state.
func (c *ListController) abandonLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.inFlight {
		slog.Debug("list request abandoned", slog.String("listId", c.id), slog.String("entity", c.entity), slog.Uint64("generation", c.generation-1))
	}
	c.inFlight = false
}

func (c *ListController) snapshotLocked() domain.ListState {
	c.state.Revision++
	return c.state.Clone()
}

func (c *ListController) schedule(appendMode bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.appendNext = appendMode
	c.mu.Unlock()
	c.debouncer.Trigger()
}

func (c *ListController) run() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.generation++
	generation := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel
	c.inFlight = true
	appendMode := c.appendNext
	c.appendNext = false
	query := c.state.Query
	c.state.Status = domain.StatusLoading
	c.state.Generation = generation
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)

	started := time.Now()
	result, err := c.fetch(ctx, query)
	cancel()

	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		slog.Debug("list stale response dropped", slog.String("listId", c.id), slog.String("entity", c.entity), slog.Uint64("generation", generation))
		return
	}
	c.inFlight = false
	c.cancel = nil

	if err != nil {
		if appendMode && c.state.Query.Page > 1 {
			// the page was never appended; let the next LoadMore ask for it again
			c.state.Query.Page = query.Page - 1
		}
		c.state.Status = domain.StatusError
		c.state.Error = err.Error()
		snapshot = c.snapshotLocked()
		c.mu.Unlock()
		slog.Warn("list fetch failed", slog.String("listId", c.id), slog.String("entity", c.entity), slog.Int("page", query.Page), slog.Any("error", err))
		c.notify(snapshot)
		return
	}

	c.state.TotalPages = result.TotalPages
	c.state.TotalCount = result.TotalCount
	if c.state.Mode == domain.ModePaged && result.TotalPages > 0 && query.Page > result.TotalPages && !c.clampRetry {
		c.clampRetry = true
		c.state.Query = c.state.Query.Clamp(result.TotalPages)
		snapshot = c.snapshotLocked()
		c.mu.Unlock()
		slog.Info("list page clamped", slog.String("listId", c.id), slog.String("entity", c.entity), slog.Int("requested", query.Page), slog.Int("totalPages", result.TotalPages))
		c.notify(snapshot)
		c.debouncer.Trigger()
		return
	}
	c.clampRetry = false

	if appendMode {
		c.state.Items = append(c.state.Items, result.Items...)
	} else {
		c.state.Items = append([]domain.Record(nil), result.Items...)
	}
	if c.state.Items == nil {
		c.state.Items = []domain.Record{}
	}
	c.state.Status = domain.StatusLoaded
	c.state.Error = ""
	c.state.HasMore = c.state.Query.Page < result.TotalPages
	snapshot = c.snapshotLocked()
	c.mu.Unlock()

	slog.Debug("list fetch done", slog.String("listId", c.id), slog.String("entity", c.entity), slog.Int("page", query.Page), slog.Int("items", len(result.Items)), slog.Duration("elapsed", time.Since(started)))
	c.notify(snapshot)
}

func (c *ListController) notify(state domain.ListState) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if state.Revision <= c.delivered {
		slog.Debug("list state overtaken", slog.String("listId", c.id), slog.Uint64("revision", state.Revision), slog.Uint64("delivered", c.delivered))
		return
	}
	c.delivered = state.Revision
	if c.onChange != nil {
		c.onChange(state)
	}
}
