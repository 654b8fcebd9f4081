package services

import (
	"context"
	"strings"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
)

type UserService struct {
	store repository.Store
	cache *cache.QueryCache
}

func NewUserService(store repository.Store, qc *cache.QueryCache) *UserService {
	return &UserService{store: store, cache: qc}
}

// ParseUserFilter maps the single `filter` query value of the admin users
// page onto a role or status. "all" and "" mean no filter.
func ParseUserFilter(search, filter string) (repository.UserFilter, error) {
	f := repository.UserFilter{Search: strings.TrimSpace(search)}
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return f, nil
	}
	if role, ok := workflow.ParseRole(filter); ok {
		f.Role = string(role)
		return f, nil
	}
	if status, ok := workflow.NormalizeStatus(workflow.EntityUser, filter); ok {
		f.Status = status
		return f, nil
	}
	return f, invalid("unknown user filter %q", filter)
}

func (s *UserService) List(ctx context.Context, f repository.UserFilter, req pagination.Request) (*Page[models.User], error) {
	return listPage(ctx, s.cache, scopeUsers, f, req, func(p pagination.Request) ([]models.User, int64, error) {
		return s.store.Users().List(ctx, f, p)
	})
}

// Apply runs a user lifecycle action (suspend, activate) for an admin.
func (s *UserService) Apply(ctx context.Context, actor Actor, userID uuid.UUID, action workflow.Action) (*models.User, error) {
	if actor.ID == userID && action == workflow.ActionSuspend {
		return nil, ErrSelfAction
	}

	var updated *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		u, err := applyUserAction(ctx, tx, actor, userID, action)
		updated = u
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeUsers)
	return updated, nil
}

// applyUserAction validates and applies one user transition inside tx.
func applyUserAction(ctx context.Context, tx repository.Store, actor Actor, userID uuid.UUID, action workflow.Action) (*models.User, error) {
	users := tx.Users()
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}

	t, err := workflow.Validate(workflow.EntityUser, user.Status, action, actor.Role, "")
	if err != nil {
		return nil, err
	}
	if err := users.TransitionStatus(ctx, user.ID, t.From, t.To); err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}

	logTransition(workflow.EntityUser, user.ID, t, actor)
	user.Status = t.To
	return user, nil
}
