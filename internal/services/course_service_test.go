package services

import (
	"context"
	"testing"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveThenRefetchShowsPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.seedCourse(t, "Go Basics", workflow.CourseDraft)

	_, err := f.courses.Apply(ctx, f.admin, course.ID, workflow.ActionApprove)
	require.NoError(t, err)

	page, err := f.courses.List(ctx, repository.CourseFilter{}, pagination.Normalize(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, workflow.CoursePublished, page.Items[0].Status)

	for _, a := range []workflow.Action{workflow.ActionFlag, workflow.ActionUnflag} {
		_, err := f.courses.Apply(ctx, f.admin, course.ID, a)
		require.NoError(t, err)
	}
	got, err := f.store.Courses().FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.CoursePublished, got.Status)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.seedCourse(t, "Spam", workflow.CourseFlagged)

	c, err := f.courses.Apply(ctx, f.admin, course.ID, workflow.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, workflow.CourseRejected, c.Status)

	for _, a := range []workflow.Action{workflow.ActionApprove, workflow.ActionFlag, workflow.ActionUnflag} {
		_, err := f.courses.Apply(ctx, f.admin, course.ID, a)
		assert.ErrorIs(t, err, workflow.ErrIllegalTransition, a)
	}
}

func TestTrainerCreatesDraftCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.seedUser(t, "t1@lms.test", workflow.RoleTrainer, workflow.UserActive)
	pending := f.seedUser(t, "t2@lms.test", workflow.RoleTrainer, workflow.UserPending)

	course, err := f.courses.Create(ctx, actorOf(active), &dto.CreateCourseRequest{Title: "Intro", Price: 19.99})
	require.NoError(t, err)
	assert.Equal(t, workflow.CourseDraft, course.Status)
	assert.Equal(t, int64(1999), course.PriceCents)

	_, err = f.courses.Create(ctx, actorOf(pending), &dto.CreateCourseRequest{Title: "Later"})
	assert.ErrorIs(t, err, ErrAccountPending)

	_, err = f.courses.Create(ctx, actorOf(active), &dto.CreateCourseRequest{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	f.seedCourse(t, "Someone else's", workflow.CourseDraft)
	mine, err := f.courses.ListMine(ctx, actorOf(active), repository.CourseFilter{}, pagination.Normalize(1, 10))
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, course.ID, mine.Items[0].ID)
}

func TestParseCourseFilter(t *testing.T) {
	f, err := ParseCourseFilter("go", "published")
	require.NoError(t, err)
	assert.Equal(t, workflow.CoursePublished, f.Status)

	_, err = ParseCourseFilter("", "ARCHIVED")
	assert.ErrorIs(t, err, ErrValidation)
}
