package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
)

// Cache scopes.
const (
	scopeUsers   = "users"
	scopeCourses = "courses"
	scopeReports = "reports"
	scopeTickets = "tickets"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role workflow.Role
}

// SystemActor is used by scheduled jobs.
var SystemActor = Actor{Role: workflow.RoleSystem}

// Page is one window of a filtered list.
type Page[T any] struct {
	Items  []T               `json:"items"`
	Window pagination.Window `json:"window"`
}

// listPage serves a page from the query cache or loads it. Requests past the
// last page are clamped and reloaded so the window is always valid.
func listPage[T any](
	ctx context.Context,
	qc *cache.QueryCache,
	scope string,
	filter interface{},
	req pagination.Request,
	load func(pagination.Request) ([]T, int64, error),
) (*Page[T], error) {
	fkey, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	key := fmt.Sprintf("%s|%d|%d", fkey, req.Page, req.PerPage)

	var cached Page[T]
	gen, ok := qc.Get(ctx, scope, key, &cached)
	if ok {
		return &cached, nil
	}

	items, total, err := load(req)
	if err != nil {
		return nil, err
	}
	w := pagination.NewWindow(req.Page, req.PerPage, total)
	if w.Page != req.Page {
		clamped := pagination.Request{Page: w.Page, PerPage: w.PerPage}
		if items, total, err = load(clamped); err != nil {
			return nil, err
		}
		w = pagination.NewWindow(clamped.Page, clamped.PerPage, total)
	}
	if items == nil {
		items = []T{}
	}

	p := &Page[T]{Items: items, Window: w}
	qc.Set(ctx, scope, gen, key, p)
	return p, nil
}

func logTransition(entity workflow.Entity, id uuid.UUID, t workflow.Transition, actor Actor) {
	slog.Info("transition applied",
		"entity", string(entity),
		"entity_id", id.String(),
		"action", string(t.Action),
		"from", t.From,
		"to", t.To,
		"actor_id", actor.ID.String(),
		"actor_role", string(actor.Role),
	)
}
