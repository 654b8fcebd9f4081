package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/afzalm/cclms/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	page    int
	perPage int
	filters Filters
}

// fakeLister serves total items of ints and records every call.
type fakeLister struct {
	mu    sync.Mutex
	total int64
	calls []call
	fail  error
	// gates lets a test hold a specific call open, keyed by call number.
	gates map[int]chan struct{}
}

func (f *fakeLister) list(ctx context.Context, page, perPage int, filters Filters) (*Page[int], error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, call{page: page, perPage: perPage, filters: filters})
	gate := f.gates[n]
	fail := f.fail
	total := f.total
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail != nil {
		return nil, fail
	}
	w := pagination.NewWindow(page, perPage, total)
	items := []int{}
	for i := w.From; i > 0 && i <= w.To; i++ {
		items = append(items, int(i)+n*1000)
	}
	return &Page[int]{Items: items, Window: w}, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLister) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func TestListControllerPagesAndResetsOnFilter(t *testing.T) {
	f := &fakeLister{total: 25}
	lc := NewListController[int](f.list, 10)
	ctx := context.Background()

	require.NoError(t, lc.Load(ctx))
	assert.Equal(t, 3, lc.TotalPages())
	assert.False(t, lc.HasPrev())
	assert.True(t, lc.HasNext())

	require.NoError(t, lc.Next(ctx))
	require.NoError(t, lc.Next(ctx))
	assert.Equal(t, 3, lc.Window().Page)
	assert.False(t, lc.HasNext())

	require.NoError(t, lc.Next(ctx))
	assert.Equal(t, 3, f.callCount(), "next on the last page sends nothing")

	require.NoError(t, lc.SetFilter(ctx, "status", "PENDING"))
	assert.Equal(t, 1, f.last().page)
	assert.Equal(t, "PENDING", f.last().filters["status"])
	assert.Equal(t, 1, lc.Window().Page)
}

func TestListControllerClampsToServerPage(t *testing.T) {
	f := &fakeLister{total: 25}
	lc := NewListController[int](f.list, 10)

	require.NoError(t, lc.SetPage(context.Background(), 9))
	st := lc.State()
	assert.Equal(t, 3, st.Window.Page)
	assert.Len(t, st.Items, 5)
}

func TestListControllerDebouncesSearch(t *testing.T) {
	f := &fakeLister{total: 40}
	lc := NewListController[int](f.list, 10, WithDebounce[int](50*time.Millisecond))
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, lc.SetPage(ctx, 3))
	before := f.callCount()

	for _, term := range []string{"a", "al", "ali", "alic", "alice"} {
		lc.SetSearch(ctx, term)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, before, f.callCount(), "nothing is sent while typing")

	assert.Eventually(t, func() bool { return f.callCount() == before+1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before+1, f.callCount(), "one fetch per burst")

	got := f.last()
	assert.Equal(t, "alice", got.filters["search"])
	assert.Equal(t, 1, got.page)
}

func TestListControllerKeepsItemsOnFailure(t *testing.T) {
	f := &fakeLister{total: 15}
	var states []ListState[int]
	var mu sync.Mutex
	lc := NewListController[int](f.list, 10, OnChange(func(s ListState[int]) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))
	ctx := context.Background()

	require.NoError(t, lc.Load(ctx))
	good := lc.State().Items
	require.Len(t, good, 10)

	boom := errors.New("network down")
	f.mu.Lock()
	f.fail = boom
	f.mu.Unlock()

	err := lc.Next(ctx)
	require.ErrorIs(t, err, boom)

	st := lc.State()
	assert.Equal(t, good, st.Items)
	assert.Equal(t, 1, st.Window.Page)
	assert.ErrorIs(t, st.Err, boom)

	mu.Lock()
	assert.Len(t, states, 2)
	mu.Unlock()
}

func TestListControllerAppliesNewestStartedFetch(t *testing.T) {
	slow := make(chan struct{})
	f := &fakeLister{total: 30, gates: map[int]chan struct{}{0: slow}}
	lc := NewListController[int](f.list, 10)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = lc.SetFilter(ctx, "status", "OPEN")
	}()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, lc.SetFilter(ctx, "status", "RESOLVED"))
	newest := lc.State()

	close(slow)
	<-done

	st := lc.State()
	assert.Equal(t, newest.Items, st.Items, "older response arriving late is dropped")
	assert.Equal(t, "RESOLVED", st.Filters["status"])
	assert.Equal(t, 1001, st.Items[0])
}
