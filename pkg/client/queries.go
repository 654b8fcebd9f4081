package client

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
)

const (
	ResourceUsers     = "users"
	ResourceCourses   = "courses"
	ResourceReports   = "reports"
	ResourceTickets   = "tickets"
	ResourceMyTickets = "my-tickets"
	ResourceOverview  = "overview"
)

// Filters are list query parameters besides page and limit, search included.
// Empty values are dropped.
type Filters map[string]string

func (f Filters) values() url.Values {
	v := url.Values{}
	for k, val := range f {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// QueryKey identifies one cached list result.
type QueryKey struct {
	Resource string
	Page     int
	PerPage  int
	Filters  Filters
}

func (k QueryKey) String() string {
	keys := make([]string, 0, len(k.Filters))
	for name, val := range k.Filters {
		if val != "" {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(k.Resource)
	b.WriteString("?page=" + strconv.Itoa(k.Page) + "&limit=" + strconv.Itoa(k.PerPage))
	for _, name := range keys {
		b.WriteString("&" + url.QueryEscape(name) + "=" + url.QueryEscape(k.Filters[name]))
	}
	return b.String()
}

// Page is one fetched page with its window.
type Page[T any] struct {
	Items  []T
	Window pagination.Window
}

// Lister fetches one page of a list. Client list methods satisfy it.
type Lister[T any] func(ctx context.Context, page, perPage int, filters Filters) (*Page[T], error)

// DefaultQueryTTL bounds how long a cached list is served without refetching.
const DefaultQueryTTL = 30 * time.Second

type cacheEntry struct {
	resource string
	value    interface{}
	fetched  time.Time
}

// generation changes whenever a resource is invalidated or the cache is
// cleared. A fetch only lands in the cache if it did not change meanwhile.
type generation struct {
	epoch uint64
	n     uint64
}

type queryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
	gens    map[string]uint64
	epoch   uint64
}

func newQueryCache(ttl time.Duration) *queryCache {
	return &queryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
		gens:    make(map[string]uint64),
	}
}

func (q *queryCache) generation(resource string) generation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return generation{epoch: q.epoch, n: q.gens[resource]}
}

func (q *queryCache) get(key QueryKey) (interface{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	k := key.String()
	e, ok := q.entries[k]
	if !ok {
		return nil, false
	}
	if q.now().Sub(e.fetched) >= q.ttl {
		delete(q.entries, k)
		return nil, false
	}
	return e.value, true
}

// set stores value unless the resource was invalidated after gen was read.
func (q *queryCache) set(key QueryKey, gen generation, value interface{}) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ttl <= 0 || gen != (generation{epoch: q.epoch, n: q.gens[key.Resource]}) {
		return false
	}
	q.entries[key.String()] = cacheEntry{resource: key.Resource, value: value, fetched: q.now()}
	return true
}

func (q *queryCache) invalidate(resources ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, r := range resources {
		q.gens[r]++
	}
	for k, e := range q.entries {
		for _, r := range resources {
			if e.resource == r {
				delete(q.entries, k)
				break
			}
		}
	}
}

func (q *queryCache) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++
	q.entries = make(map[string]cacheEntry)
}

// Invalidate drops every cached query of the given resources. Fetches of
// those resources already in flight are returned but not cached.
func (c *Client) Invalidate(resources ...string) {
	c.queries.invalidate(resources...)
}

func cached[T any](c *Client, key QueryKey, fetch func() (T, error)) (T, error) {
	if v, ok := c.queries.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	gen := c.queries.generation(key.Resource)
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if !c.queries.set(key, gen, v) {
		slog.Debug("query result not cached", "key", key.String())
	}
	return v, nil
}

func listQuery(page, perPage int, filters Filters) url.Values {
	q := filters.values()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(perPage))
	return q
}

func (c *Client) ListUsers(ctx context.Context, page, perPage int, filters Filters) (*Page[models.User], error) {
	r := pagination.Normalize(page, perPage)
	key := QueryKey{Resource: ResourceUsers, Page: r.Page, PerPage: r.PerPage, Filters: filters}
	return cached(c, key, func() (*Page[models.User], error) {
		var resp dto.UserListResponse
		if err := c.do(ctx, http.MethodGet, "/api/admin/users", listQuery(r.Page, r.PerPage, filters), nil, &resp, true); err != nil {
			return nil, err
		}
		return &Page[models.User]{Items: resp.Users, Window: pagination.NewWindow(resp.Page, r.PerPage, resp.Total)}, nil
	})
}

func (c *Client) ListCourses(ctx context.Context, page, perPage int, filters Filters) (*Page[models.Course], error) {
	r := pagination.Normalize(page, perPage)
	key := QueryKey{Resource: ResourceCourses, Page: r.Page, PerPage: r.PerPage, Filters: filters}
	return cached(c, key, func() (*Page[models.Course], error) {
		var resp dto.CourseListResponse
		if err := c.do(ctx, http.MethodGet, "/api/admin/courses", listQuery(r.Page, r.PerPage, filters), nil, &resp, true); err != nil {
			return nil, err
		}
		return &Page[models.Course]{Items: resp.Courses, Window: pagination.NewWindow(resp.Page, r.PerPage, resp.Total)}, nil
	})
}

func (c *Client) ListReports(ctx context.Context, page, perPage int, filters Filters) (*Page[models.Report], error) {
	r := pagination.Normalize(page, perPage)
	key := QueryKey{Resource: ResourceReports, Page: r.Page, PerPage: r.PerPage, Filters: filters}
	return cached(c, key, func() (*Page[models.Report], error) {
		var resp dto.ReportListResponse
		if err := c.do(ctx, http.MethodGet, "/api/admin/moderation", listQuery(r.Page, r.PerPage, filters), nil, &resp, true); err != nil {
			return nil, err
		}
		p := resp.Data.Pagination
		return &Page[models.Report]{Items: resp.Data.Reports, Window: pagination.NewWindow(p.Page, r.PerPage, p.TotalReports)}, nil
	})
}

func (c *Client) ListTickets(ctx context.Context, page, perPage int, filters Filters) (*Page[models.SupportTicket], error) {
	return c.listTickets(ctx, ResourceTickets, "/api/admin/support", page, perPage, filters)
}

// ListMyTickets lists the caller's own tickets.
func (c *Client) ListMyTickets(ctx context.Context, page, perPage int, filters Filters) (*Page[models.SupportTicket], error) {
	return c.listTickets(ctx, ResourceMyTickets, "/api/support/tickets", page, perPage, filters)
}

func (c *Client) listTickets(ctx context.Context, resource, path string, page, perPage int, filters Filters) (*Page[models.SupportTicket], error) {
	r := pagination.Normalize(page, perPage)
	key := QueryKey{Resource: resource, Page: r.Page, PerPage: r.PerPage, Filters: filters}
	return cached(c, key, func() (*Page[models.SupportTicket], error) {
		var resp dto.TicketListResponse
		if err := c.do(ctx, http.MethodGet, path, listQuery(r.Page, r.PerPage, filters), nil, &resp, true); err != nil {
			return nil, err
		}
		p := resp.Data.Pagination
		return &Page[models.SupportTicket]{Items: resp.Data.Tickets, Window: pagination.NewWindow(p.Page, r.PerPage, p.TotalTickets)}, nil
	})
}

func (c *Client) Overview(ctx context.Context) (*dto.OverviewResponse, error) {
	return cached(c, QueryKey{Resource: ResourceOverview}, func() (*dto.OverviewResponse, error) {
		var resp dto.OverviewResponse
		if err := c.do(ctx, http.MethodGet, "/api/admin/overview", nil, nil, &resp, true); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}

// Ticket fetches one ticket with its thread. Not cached.
func (c *Client) Ticket(ctx context.Context, id string) (*models.SupportTicket, error) {
	var resp dto.TicketResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/support/"+url.PathEscape(id), nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Ticket, nil
}
