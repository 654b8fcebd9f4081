package services

import (
	"context"
	"testing"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPageServesFromCacheUntilMutation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixtureWithCache(t, cache.New(client, 0))
	ctx := context.Background()
	course := f.seedCourse(t, "Cached", workflow.CourseDraft)

	filter := repository.CourseFilter{Status: workflow.CourseDraft}
	first, err := f.courses.List(ctx, filter, pagination.Normalize(1, 10))
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	// Written behind the service's back: the cached page must still be served.
	f.seedCourse(t, "Uncached", workflow.CourseDraft)
	again, err := f.courses.List(ctx, filter, pagination.Normalize(1, 10))
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)

	_, err = f.courses.Apply(ctx, f.admin, course.ID, workflow.ActionApprove)
	require.NoError(t, err)

	fresh, err := f.courses.List(ctx, filter, pagination.Normalize(1, 10))
	require.NoError(t, err)
	require.Len(t, fresh.Items, 1)
	assert.Equal(t, "Uncached", fresh.Items[0].Title)
}

func TestListPageClampsAndNeverReturnsNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.courses.List(ctx, repository.CourseFilter{}, pagination.Normalize(4, 10))
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 1, empty.Window.Page)
	assert.False(t, empty.Window.HasNext())

	for i := 0; i < 7; i++ {
		f.seedCourse(t, "c", workflow.CourseDraft)
	}
	last, err := f.courses.List(ctx, repository.CourseFilter{}, pagination.Normalize(9, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, last.Window.Page)
	assert.Len(t, last.Items, 1)
	assert.Equal(t, int64(7), last.Window.To)
}

func TestOverviewStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "s@lms.test", workflow.RoleStudent, workflow.UserActive)
	f.seedUser(t, "t@lms.test", workflow.RoleTrainer, workflow.UserPending)
	f.seedCourse(t, "a", workflow.CoursePublished)
	f.seedReport(t, workflow.ContentReview, "r", workflow.SeverityLow)
	dismissed := f.seedReport(t, workflow.ContentReview, "r2", workflow.SeverityLow)
	require.NoError(t, f.store.Reports().Transition(ctx, dismissed.ID, workflow.ReportPending,
		repository.ReportUpdate{To: workflow.ReportDismissed, Resolution: "fine"}))

	stats, err := f.overview.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Users.ByRole["TRAINER"])
	assert.Equal(t, int64(1), stats.Users.ByStatus[workflow.UserPending])
	assert.Equal(t, int64(1), stats.Courses.ByStatus[workflow.CoursePublished])
	assert.Equal(t, int64(2), stats.Reports.Total)
	assert.Equal(t, int64(1), stats.Reports.Open)
	assert.Zero(t, stats.Tickets.Total)
}
