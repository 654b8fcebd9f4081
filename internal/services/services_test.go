package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/config"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/notify"
	"github.com/afzalm/cclms/internal/testing/memstore"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.sent...)
}

type fixture struct {
	store      *memstore.Store
	cache      *cache.QueryCache
	notifier   *recorder
	auth       *AuthService
	users      *UserService
	courses    *CourseService
	moderation *ModerationService
	support    *SupportService
	overview   *OverviewService
	admin      Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCache(t, cache.New(nil, 0))
}

func newFixtureWithCache(t *testing.T, qc *cache.QueryCache) *fixture {
	t.Helper()
	store := memstore.New()
	rec := &recorder{}
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		AdminEmails:      "root@lms.test",
	}
	f := &fixture{
		store:      store,
		cache:      qc,
		notifier:   rec,
		auth:       NewAuthService(store, cfg),
		users:      NewUserService(store, qc),
		courses:    NewCourseService(store, qc),
		moderation: NewModerationService(store, qc),
		support:    NewSupportService(store, qc, rec),
		overview:   NewOverviewService(store),
	}
	admin := f.seedUser(t, "admin@lms.test", workflow.RoleAdmin, workflow.UserActive)
	f.admin = Actor{ID: admin.ID, Role: workflow.RoleAdmin}
	return f
}

func (f *fixture) seedUser(t *testing.T, email string, role workflow.Role, status string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), Email: email, Name: email, Role: string(role), Status: status}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) seedCourse(t *testing.T, title, status string) *models.Course {
	t.Helper()
	c := &models.Course{ID: uuid.New(), Title: title, Status: status, TrainerID: uuid.New()}
	require.NoError(t, f.store.Courses().Create(context.Background(), c))
	return c
}

func (f *fixture) seedReport(t *testing.T, contentType, contentID, severity string) *models.Report {
	t.Helper()
	r := &models.Report{
		ID:          uuid.New(),
		ReporterID:  uuid.New(),
		ContentType: contentType,
		ContentID:   contentID,
		Severity:    severity,
		Reason:      "inappropriate",
		Status:      workflow.ReportPending,
	}
	require.NoError(t, f.store.Reports().Create(context.Background(), r))
	return r
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: workflow.Role(u.Role)}
}
