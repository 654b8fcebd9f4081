// Package memstore is an in-memory repository.Store for tests. Filters and
// conditional status updates behave like the GORM implementation; the
// Transaction method does not roll back.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	courses  map[uuid.UUID]*models.Course
	reports  map[uuid.UUID]*models.Report
	actions  []models.ModerationAction
	tickets  map[uuid.UUID]*models.SupportTicket
	messages []models.TicketMessage
	tokens   map[string]*models.RefreshToken
	clock    func() time.Time
	seq      int
}

func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*models.User),
		courses: make(map[uuid.UUID]*models.Course),
		reports: make(map[uuid.UUID]*models.Report),
		tickets: make(map[uuid.UUID]*models.SupportTicket),
		tokens:  make(map[string]*models.RefreshToken),
		clock:   time.Now,
	}
}

func (s *Store) Users() repository.UserRepository     { return userRepo{s} }
func (s *Store) Courses() repository.CourseRepository { return courseRepo{s} }
func (s *Store) Reports() repository.ReportRepository { return reportRepo{s} }
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }
func (s *Store) Tokens() repository.TokenRepository   { return tokenRepo{s} }

func (s *Store) Transaction(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(s)
}

// Actions returns every recorded moderation action.
func (s *Store) Actions() []models.ModerationAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ModerationAction(nil), s.actions...)
}

// stamp returns strictly increasing times so created_at ordering is stable.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.clock().Add(time.Duration(s.seq) * time.Microsecond)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func page[T any](items []T, p pagination.Request) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit(), len(items))
	return items[start:end]
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = workflow.UserActive
	}
	if u.Role == "" {
		u.Role = string(workflow.RoleStudent)
	}
	u.CreatedAt = r.s.stamp()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) List(_ context.Context, f repository.UserFilter, p pagination.Request) ([]models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Search != "" && !contains(u.Email, f.Search) && !contains(u.Name, f.Search) {
			continue
		}
		out = append(out, *u)
	}
	newestFirst(out, func(u models.User) time.Time { return u.CreatedAt })
	return page(out, p), int64(len(out)), nil
}

func (r userRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Status != from {
		return repository.ErrStaleState
	}
	u.Status = to
	u.UpdatedAt = r.s.stamp()
	return nil
}

func (r userRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, u := range r.s.users {
		out[u.Role]++
	}
	return out, nil
}

func (r userRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, u := range r.s.users {
		out[u.Status]++
	}
	return out, nil
}

type courseRepo struct{ s *Store }

func (r courseRepo) Create(_ context.Context, c *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = workflow.CourseDraft
	}
	c.CreatedAt = r.s.stamp()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.s.courses[c.ID] = &cp
	return nil
}

func (r courseRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r courseRepo) List(_ context.Context, f repository.CourseFilter, p pagination.Request) ([]models.Course, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Course
	for _, c := range r.s.courses {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.TrainerID != nil && c.TrainerID != *f.TrainerID {
			continue
		}
		if f.Search != "" && !contains(c.Title, f.Search) {
			continue
		}
		out = append(out, *c)
	}
	newestFirst(out, func(c models.Course) time.Time { return c.CreatedAt })
	return page(out, p), int64(len(out)), nil
}

func (r courseRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	if c.Status != from {
		return repository.ErrStaleState
	}
	c.Status = to
	c.UpdatedAt = r.s.stamp()
	return nil
}

func (r courseRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, c := range r.s.courses {
		out[c.Status]++
	}
	return out, nil
}

func (r courseRepo) Totals(_ context.Context) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var enrollments, revenue int64
	for _, c := range r.s.courses {
		enrollments += c.EnrollmentCount
		revenue += c.RevenueCents
	}
	return enrollments, revenue, nil
}

type reportRepo struct{ s *Store }

func (r reportRepo) Create(_ context.Context, rep *models.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if rep.Status == "" {
		rep.Status = workflow.ReportPending
	}
	rep.CreatedAt = r.s.stamp()
	rep.UpdatedAt = rep.CreatedAt
	cp := *rep
	r.s.reports[rep.ID] = &cp
	return nil
}

func (r reportRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r reportRepo) List(_ context.Context, f repository.ReportFilter, p pagination.Request) ([]models.Report, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Report
	for _, rep := range r.s.reports {
		if f.Status != "" && rep.Status != f.Status {
			continue
		}
		if f.ContentType != "" && rep.ContentType != f.ContentType {
			continue
		}
		if f.Severity != "" && rep.Severity != f.Severity {
			continue
		}
		if f.Search != "" && !contains(rep.Reason, f.Search) && !contains(rep.ContentID, f.Search) {
			continue
		}
		out = append(out, *rep)
	}
	newestFirst(out, func(r models.Report) time.Time { return r.CreatedAt })
	return page(out, p), int64(len(out)), nil
}

func (r reportRepo) Transition(_ context.Context, id uuid.UUID, from string, u repository.ReportUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if rep.Status != from {
		return repository.ErrStaleState
	}
	rep.Status = u.To
	if u.Resolution != "" {
		rep.Resolution = u.Resolution
	}
	if u.ReviewedBy != nil {
		id := *u.ReviewedBy
		rep.ReviewedBy = &id
	}
	rep.UpdatedAt = r.s.stamp()
	return nil
}

func (r reportRepo) CreateAction(_ context.Context, a *models.ModerationAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = r.s.stamp()
	r.s.actions = append(r.s.actions, *a)
	return nil
}

func (r reportRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, rep := range r.s.reports {
		out[rep.Status]++
	}
	return out, nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, t *models.SupportTicket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = workflow.TicketOpen
	}
	t.CreatedAt = r.s.stamp()
	t.UpdatedAt = t.CreatedAt
	for i := range t.Messages {
		m := &t.Messages[i]
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.TicketID = t.ID
		m.CreatedAt = r.s.stamp()
		r.s.messages = append(r.s.messages, *m)
	}
	cp := *t
	cp.Messages = nil
	r.s.tickets[t.ID] = &cp
	return nil
}

func (r ticketRepo) FindByID(_ context.Context, id uuid.UUID, includeInternal bool) (*models.SupportTicket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	cp.Messages = nil
	for _, m := range r.s.messages {
		if m.TicketID == id && (includeInternal || !m.IsInternal) {
			cp.Messages = append(cp.Messages, m)
		}
	}
	return &cp, nil
}

func (r ticketRepo) List(_ context.Context, f repository.TicketFilter, p pagination.Request) ([]models.SupportTicket, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.SupportTicket
	for _, t := range r.s.tickets {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.AssignedTo != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssignedTo) {
			continue
		}
		if f.Unassigned && t.AssigneeID != nil {
			continue
		}
		if f.UserID != nil && t.UserID != *f.UserID {
			continue
		}
		if f.Search != "" && !contains(t.Subject, f.Search) {
			continue
		}
		out = append(out, *t)
	}
	newestFirst(out, func(t models.SupportTicket) time.Time { return t.CreatedAt })
	return page(out, p), int64(len(out)), nil
}

func (r ticketRepo) Claim(_ context.Context, id, assignee uuid.UUID, toStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if t.Status != workflow.TicketOpen || t.AssigneeID != nil {
		return repository.ErrStaleState
	}
	a := assignee
	t.AssigneeID = &a
	t.Status = toStatus
	t.UpdatedAt = r.s.stamp()
	return nil
}

func (r ticketRepo) Transition(_ context.Context, id uuid.UUID, from string, u repository.TicketUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if t.Status != from {
		return repository.ErrStaleState
	}
	t.Status = u.To
	at := u.At
	switch u.To {
	case workflow.TicketResolved:
		t.Resolution = u.Resolution
		t.ResolvedAt = &at
	case workflow.TicketClosed:
		t.ClosedAt = &at
	}
	t.UpdatedAt = r.s.stamp()
	return nil
}

func (r ticketRepo) SetPriority(_ context.Context, id uuid.UUID, priority string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Priority = priority
	return nil
}

func (r ticketRepo) AddMessage(_ context.Context, m *models.TicketMessage, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[m.TicketID]
	if !ok {
		return repository.ErrNotFound
	}
	if t.Status != status {
		return repository.ErrStaleState
	}
	t.UpdatedAt = r.s.stamp()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.s.stamp()
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r ticketRepo) ListResolvedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.SupportTicket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.SupportTicket
	for _, t := range r.s.tickets {
		if t.Status == workflow.TicketResolved && t.ResolvedAt != nil && t.ResolvedAt.Before(cutoff) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResolvedAt.Before(*out[j].ResolvedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r ticketRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, t := range r.s.tickets {
		out[t.Status]++
	}
	return out, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	r.s.tokens[t.TokenHash] = &cp
	return nil
}

func (r tokenRepo) FindActive(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[hash]
	if !ok || t.Revoked || !t.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r tokenRepo) Revoke(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[hash]; ok {
		t.Revoked = true
	}
	return nil
}
