package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/afzalm/cclms/internal/pagination"
)

const DefaultDebounce = 300 * time.Millisecond

// ListState is a snapshot of a list view.
type ListState[T any] struct {
	Items   []T
	Window  pagination.Window
	Filters Filters
	Search  string
	// Err is the last fetch failure. Items still hold the last good page.
	Err     error
	Loading bool
}

// ListController keeps page, page size, filters and search term together and
// fetches one page per change. Filter and search changes go back to page 1.
// Search changes wait for typing to settle. When fetches overlap, only the
// one started last is applied.
type ListController[T any] struct {
	fetch    Lister[T]
	debounce time.Duration
	onChange func(ListState[T])
	reload   func()

	mu       sync.Mutex
	page     int
	perPage  int
	filters  Filters
	search   string
	items    []T
	window   pagination.Window
	err      error
	latest   uint64
	inFlight int
	timer    *time.Timer
}

type ListOption[T any] func(*ListController[T])

func WithDebounce[T any](d time.Duration) ListOption[T] {
	return func(lc *ListController[T]) { lc.debounce = d }
}

// OnChange is called after every applied fetch, outside the lock.
func OnChange[T any](fn func(ListState[T])) ListOption[T] {
	return func(lc *ListController[T]) { lc.onChange = fn }
}

// ReloadFrom makes Load skip c's cache for resources so an explicit reload
// shows changes made elsewhere. Page, filter and search changes still use it.
func ReloadFrom[T any](c *Client, resources ...string) ListOption[T] {
	return func(lc *ListController[T]) {
		lc.reload = func() { c.Invalidate(resources...) }
	}
}

func NewListController[T any](fetch Lister[T], perPage int, opts ...ListOption[T]) *ListController[T] {
	r := pagination.Normalize(1, perPage)
	lc := &ListController[T]{
		fetch:    fetch,
		debounce: DefaultDebounce,
		page:     r.Page,
		perPage:  r.PerPage,
		filters:  Filters{},
		items:    []T{},
		window:   pagination.NewWindow(1, r.PerPage, 0),
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

// Load fetches the current page.
func (lc *ListController[T]) Load(ctx context.Context) error {
	lc.mu.Lock()
	lc.stopTimer()
	lc.mu.Unlock()
	if lc.reload != nil {
		lc.reload()
	}
	return lc.run(ctx)
}

// SetFilter changes one filter and reloads from page 1. An empty value
// removes the filter.
func (lc *ListController[T]) SetFilter(ctx context.Context, name, value string) error {
	lc.mu.Lock()
	if value == "" {
		delete(lc.filters, name)
	} else {
		lc.filters[name] = value
	}
	lc.page = 1
	lc.stopTimer()
	lc.mu.Unlock()
	return lc.run(ctx)
}

// SetSearch resets to page 1 and schedules a fetch once the term has been
// stable for the debounce window. Only the last term in a burst is fetched.
func (lc *ListController[T]) SetSearch(ctx context.Context, term string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.search = term
	lc.page = 1
	lc.stopTimer()
	lc.timer = time.AfterFunc(lc.debounce, func() {
		_ = lc.run(ctx)
	})
}

func (lc *ListController[T]) SetPage(ctx context.Context, page int) error {
	lc.mu.Lock()
	lc.page = max(page, 1)
	lc.mu.Unlock()
	return lc.run(ctx)
}

func (lc *ListController[T]) SetPerPage(ctx context.Context, perPage int) error {
	lc.mu.Lock()
	lc.perPage = pagination.Normalize(1, perPage).PerPage
	lc.page = 1
	lc.mu.Unlock()
	return lc.run(ctx)
}

// Next is a no-op on the last page.
func (lc *ListController[T]) Next(ctx context.Context) error {
	lc.mu.Lock()
	if !lc.window.HasNext() {
		lc.mu.Unlock()
		return nil
	}
	lc.page = lc.window.Page + 1
	lc.mu.Unlock()
	return lc.run(ctx)
}

// Prev is a no-op on page 1.
func (lc *ListController[T]) Prev(ctx context.Context) error {
	lc.mu.Lock()
	if !lc.window.HasPrev() {
		lc.mu.Unlock()
		return nil
	}
	lc.page = lc.window.Page - 1
	lc.mu.Unlock()
	return lc.run(ctx)
}

func (lc *ListController[T]) HasNext() bool { return lc.Window().HasNext() }

func (lc *ListController[T]) HasPrev() bool { return lc.Window().HasPrev() }

func (lc *ListController[T]) TotalPages() int { return lc.Window().TotalPages }

func (lc *ListController[T]) Window() pagination.Window {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.window
}

func (lc *ListController[T]) State() ListState[T] {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.snapshot()
}

// Close cancels a pending debounced fetch.
func (lc *ListController[T]) Close() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.stopTimer()
}

func (lc *ListController[T]) snapshot() ListState[T] {
	filters := make(Filters, len(lc.filters))
	for k, v := range lc.filters {
		filters[k] = v
	}
	return ListState[T]{
		Items:   append([]T(nil), lc.items...),
		Window:  lc.window,
		Filters: filters,
		Search:  lc.search,
		Err:     lc.err,
		Loading: lc.inFlight > 0,
	}
}

// stopTimer must be called with mu held.
func (lc *ListController[T]) stopTimer() {
	if lc.timer != nil {
		lc.timer.Stop()
		lc.timer = nil
	}
}

func (lc *ListController[T]) run(ctx context.Context) error {
	lc.mu.Lock()
	lc.latest++
	token := lc.latest
	lc.inFlight++
	page, perPage := lc.page, lc.perPage
	query := make(Filters, len(lc.filters)+1)
	for k, v := range lc.filters {
		query[k] = v
	}
	if lc.search != "" {
		query["search"] = lc.search
	}
	lc.mu.Unlock()

	result, err := lc.fetch(ctx, page, perPage, query)

	lc.mu.Lock()
	lc.inFlight--
	if token != lc.latest {
		lc.mu.Unlock()
		return err
	}
	if err != nil {
		lc.err = err
		slog.Warn("list fetch failed, keeping previous page", "page", page, "error", err)
	} else {
		lc.err = nil
		lc.items = result.Items
		if lc.items == nil {
			lc.items = []T{}
		}
		lc.window = result.Window
		lc.page = result.Window.Page
	}
	state := lc.snapshot()
	onChange := lc.onChange
	lc.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
	return err
}
