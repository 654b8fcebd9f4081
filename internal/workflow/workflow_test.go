package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		from    string
		action  Action
		role    Role
		to      string
		wantErr error
	}{
		{"approve draft course", EntityCourse, CourseDraft, ActionApprove, RoleAdmin, CoursePublished, nil},
		{"flag published course", EntityCourse, CoursePublished, ActionFlag, RoleAdmin, CourseFlagged, nil},
		{"unflag flagged course", EntityCourse, CourseFlagged, ActionUnflag, RoleAdmin, CoursePublished, nil},
		{"reject flagged course", EntityCourse, CourseFlagged, ActionReject, RoleAdmin, CourseRejected, nil},
		{"reject draft course", EntityCourse, CourseDraft, ActionReject, RoleAdmin, "", ErrIllegalTransition},
		{"approve published course", EntityCourse, CoursePublished, ActionApprove, RoleAdmin, "", ErrIllegalTransition},
		{"trainer approves course", EntityCourse, CourseDraft, ActionApprove, RoleTrainer, "", ErrForbidden},
		{"dismiss pending report", EntityReport, ReportPending, ActionDismiss, RoleAdmin, ReportDismissed, nil},
		{"take action on pending report", EntityReport, ReportPending, ActionTakeAction, RoleAdmin, ReportUnderReview, nil},
		{"resolve report under review", EntityReport, ReportUnderReview, ActionResolve, RoleAdmin, ReportResolved, nil},
		{"resolve pending report", EntityReport, ReportPending, ActionResolve, RoleAdmin, "", ErrIllegalTransition},
		{"dismiss resolved report", EntityReport, ReportResolved, ActionDismiss, RoleAdmin, "", ErrIllegalTransition},
		{"take ownership of open ticket", EntityTicket, TicketOpen, ActionTakeOwnership, RoleAdmin, TicketInProgress, nil},
		{"respond on open ticket", EntityTicket, TicketOpen, ActionRespond, RoleAdmin, TicketOpen, nil},
		{"respond on resolved ticket", EntityTicket, TicketResolved, ActionRespond, RoleAdmin, "", ErrIllegalTransition},
		{"resolve open ticket", EntityTicket, TicketOpen, ActionResolve, RoleAdmin, "", ErrIllegalTransition},
		{"student replies while waiting", EntityTicket, TicketWaitingForUser, ActionReply, RoleStudent, TicketInProgress, nil},
		{"student resolves ticket", EntityTicket, TicketInProgress, ActionResolve, RoleStudent, "", ErrForbidden},
		{"system closes resolved ticket", EntityTicket, TicketResolved, ActionClose, RoleSystem, TicketClosed, nil},
		{"suspend active user", EntityUser, UserActive, ActionSuspend, RoleAdmin, UserSuspended, nil},
		{"activate suspended user", EntityUser, UserSuspended, ActionActivate, RoleAdmin, UserActive, nil},
		{"suspend suspended user", EntityUser, UserSuspended, ActionSuspend, RoleAdmin, "", ErrIllegalTransition},
		{"unknown action", EntityCourse, CourseDraft, Action("publish"), RoleAdmin, "", ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Authorize(tt.entity, tt.from, tt.action, tt.role)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, tr.To)
		})
	}
}

func TestTerminalStatusesHaveNoActions(t *testing.T) {
	assert.True(t, IsTerminal(EntityCourse, CourseRejected))
	assert.True(t, IsTerminal(EntityReport, ReportResolved))
	assert.True(t, IsTerminal(EntityReport, ReportDismissed))
	assert.True(t, IsTerminal(EntityTicket, TicketClosed))
	assert.False(t, IsTerminal(EntityTicket, TicketResolved))
	assert.False(t, IsTerminal(EntityCourse, CourseDraft))

	for _, e := range []Entity{EntityCourse, EntityReport, EntityTicket} {
		for _, s := range Statuses(e) {
			if IsTerminal(e, s) {
				assert.Empty(t, LegalActions(e, s, RoleAdmin), "%s %s", e, s)
			}
		}
	}
}

func TestLegalActions(t *testing.T) {
	assert.Equal(t, []Action{ActionReview, ActionDismiss, ActionTakeAction},
		LegalActions(EntityReport, ReportPending, RoleAdmin))
	assert.Equal(t, []Action{ActionTakeOwnership, ActionRespond},
		LegalActions(EntityTicket, TicketOpen, RoleAdmin))
	assert.Equal(t, []Action{ActionReply}, LegalActions(EntityTicket, TicketOpen, RoleStudent))
	assert.Equal(t, []Action{ActionUnflag, ActionReject}, LegalActions(EntityCourse, CourseFlagged, RoleAdmin))
	assert.Empty(t, LegalActions(EntityCourse, CourseFlagged, RoleStudent))
}

func TestRequirements(t *testing.T) {
	tests := []struct {
		entity  Entity
		action  Action
		confirm bool
		reason  bool
	}{
		{EntityUser, ActionSuspend, true, false},
		{EntityUser, ActionActivate, false, false},
		{EntityCourse, ActionReject, true, false},
		{EntityCourse, ActionApprove, false, false},
		{EntityReport, ActionDismiss, true, true},
		{EntityReport, ActionTakeAction, false, true},
		{EntityTicket, ActionTakeOwnership, false, false},
		{EntityTicket, ActionResolve, false, true},
	}
	for _, tt := range tests {
		req, err := Requirements(tt.entity, tt.action)
		require.NoError(t, err)
		assert.Equal(t, tt.confirm, req.Confirm, "%s/%s confirm", tt.entity, tt.action)
		assert.Equal(t, tt.reason, req.NeedsReason, "%s/%s reason", tt.entity, tt.action)
	}

	_, err := Requirements(EntityTicket, ActionApprove)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestValidateRequiresReason(t *testing.T) {
	_, err := Validate(EntityTicket, TicketInProgress, ActionResolve, RoleAdmin, "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)

	tr, err := Validate(EntityTicket, TicketInProgress, ActionResolve, RoleAdmin, "reset the password")
	require.NoError(t, err)
	assert.Equal(t, TicketResolved, tr.To)
}

func TestActionFor(t *testing.T) {
	a, err := ActionFor(EntityReport, ReportPending, ReportDismissed, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, ActionDismiss, a)

	a, err = ActionFor(EntityReport, ReportPending, ReportUnderReview, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, ActionReview, a)

	_, err = ActionFor(EntityReport, ReportPending, ReportResolved, RoleAdmin)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = ActionFor(EntityTicket, TicketOpen, TicketOpen, RoleAdmin)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestReaches(t *testing.T) {
	assert.True(t, Reaches(EntityCourse, ActionFlag, CourseFlagged))
	assert.True(t, Reaches(EntityUser, ActionSuspend, UserSuspended))
	assert.False(t, Reaches(EntityCourse, ActionFlag, CoursePublished))
}

func TestFlagUnflagRoundTrip(t *testing.T) {
	status := CoursePublished
	for _, a := range []Action{ActionFlag, ActionUnflag} {
		tr, err := Authorize(EntityCourse, status, a, RoleAdmin)
		require.NoError(t, err)
		status = tr.To
	}
	assert.Equal(t, CoursePublished, status)
}

func TestNormalizeStatus(t *testing.T) {
	s, ok := NormalizeStatus(EntityReport, "pending")
	assert.True(t, ok)
	assert.Equal(t, ReportPending, s)

	s, ok = NormalizeStatus(EntityUser, "SUSPENDED")
	assert.True(t, ok)
	assert.Equal(t, UserSuspended, s)

	_, ok = NormalizeStatus(EntityTicket, "archived")
	assert.False(t, ok)

	s, ok = NormalizeStatus(EntityTicket, "")
	assert.True(t, ok)
	assert.Empty(t, s)
}

func TestEffectOf(t *testing.T) {
	e, err := EffectOf(ContentActionFlagCourse, ContentCourse)
	require.NoError(t, err)
	assert.Equal(t, &Effect{Entity: EntityCourse, Action: ActionFlag}, e)

	e, err = EffectOf(ContentActionSuspendUser, ContentUser)
	require.NoError(t, err)
	assert.Equal(t, EntityUser, e.Entity)

	e, err = EffectOf(ContentActionWarn, ContentReview)
	require.NoError(t, err)
	assert.Nil(t, e)

	_, err = EffectOf(ContentActionFlagCourse, ContentReview)
	assert.ErrorIs(t, err, ErrContentMismatch)

	_, err = EffectOf(ContentAction("BAN"), ContentUser)
	assert.ErrorIs(t, err, ErrUnknownContentAction)
}
