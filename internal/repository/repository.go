// Package repository persists LMS entities with GORM. Status changes are
// conditional updates on the expected source status so that two admins
// acting on the same record cannot both succeed.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleState means the record exists but no longer has the status the
	// caller expected.
	ErrStaleState = errors.New("record was changed by another request")
)

type UserFilter struct {
	Search string
	Role   string
	Status string
}

type CourseFilter struct {
	Search    string
	Status    string
	TrainerID *uuid.UUID
}

type ReportFilter struct {
	Search      string
	Status      string
	ContentType string
	Severity    string
}

type TicketFilter struct {
	Search     string
	Status     string
	Priority   string
	Category   string
	AssignedTo *uuid.UUID
	Unassigned bool
	UserID     *uuid.UUID
}

// ReportUpdate is applied together with a status change.
type ReportUpdate struct {
	To         string
	Resolution string
	ReviewedBy *uuid.UUID
}

// TicketUpdate is applied together with a status change.
type TicketUpdate struct {
	To         string
	Resolution string
	At         time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f UserFilter, p pagination.Request) ([]models.User, int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error
	CountByRole(ctx context.Context) (map[string]int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	List(ctx context.Context, f CourseFilter, p pagination.Request) ([]models.Course, int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Totals(ctx context.Context) (enrollments, revenueCents int64, err error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, f ReportFilter, p pagination.Request) ([]models.Report, int64, error)
	Transition(ctx context.Context, id uuid.UUID, from string, u ReportUpdate) error
	CreateAction(ctx context.Context, action *models.ModerationAction) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	// FindByID loads the ticket with its thread in creation order.
	FindByID(ctx context.Context, id uuid.UUID, includeInternal bool) (*models.SupportTicket, error)
	List(ctx context.Context, f TicketFilter, p pagination.Request) ([]models.SupportTicket, int64, error)
	// Claim assigns an unassigned OPEN ticket and moves it to toStatus.
	Claim(ctx context.Context, id, assignee uuid.UUID, toStatus string) error
	Transition(ctx context.Context, id uuid.UUID, from string, u TicketUpdate) error
	SetPriority(ctx context.Context, id uuid.UUID, priority string) error
	// AddMessage appends msg only while the ticket is still in status.
	AddMessage(ctx context.Context, msg *models.TicketMessage, status string) error
	ListResolvedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SupportTicket, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, hash string) error
}

// Store groups the repositories so services can run several writes in one
// transaction.
type Store interface {
	Users() UserRepository
	Courses() CourseRepository
	Reports() ReportRepository
	Tickets() TicketRepository
	Tokens() TokenRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository     { return &userRepo{db: s.db} }
func (s *gormStore) Courses() CourseRepository { return &courseRepo{db: s.db} }
func (s *gormStore) Reports() ReportRepository { return &reportRepo{db: s.db} }
func (s *gormStore) Tickets() TicketRepository { return &ticketRepo{db: s.db} }
func (s *gormStore) Tokens() TokenRepository   { return &tokenRepo{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// conditional turns a zero-row conditional update into ErrNotFound or
// ErrStaleState depending on whether the row exists.
func conditional(res *gorm.DB, count func() (int64, error)) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	n, err := count()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStaleState
}

func countID(db *gorm.DB, model interface{}, id uuid.UUID) func() (int64, error) {
	return func() (int64, error) {
		var n int64
		err := db.Model(model).Where("id = ?", id).Count(&n).Error
		return n, err
	}
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

func countBy(db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []struct {
		Key   string
		Count int64
	}
	err := countQuery(db, model, column).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

func countQuery(db *gorm.DB, model interface{}, column string) *gorm.DB {
	return db.Model(model).Select(column + " AS key, COUNT(*) AS count").Group(column)
}
