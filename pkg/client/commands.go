package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
)

var (
	ErrNotConfirmed   = errors.New("action not confirmed")
	ErrReasonRequired = workflow.ErrReasonRequired
)

// ActionError is a rejected command. Message is what the server said.
type ActionError struct {
	Action  workflow.Action
	Status  int
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Action, e.Status, e.Message)
}

// Command is one workflow action against one entity. Reason carries the
// free text of reason-bearing actions: the resolution, the dismissal note or
// the message body.
type Command struct {
	Entity   workflow.Entity
	Action   workflow.Action
	TargetID uuid.UUID
	Reason   string

	// take_action only.
	ContentType string
	ContentID   string
	ActionType  workflow.ContentAction
	Notes       string

	// respond only.
	Internal bool
}

// Confirmer asks the operator before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, cmd Command) bool
}

type ConfirmFunc func(ctx context.Context, cmd Command) bool

func (f ConfirmFunc) Confirm(ctx context.Context, cmd Command) bool { return f(ctx, cmd) }

// Result is the entity status after a successful command. Status is empty
// for message-only actions.
type Result struct {
	Status string
}

// Execute sends cmd once its confirmation and reason requirements are met.
// Nothing is sent when confirmation is declined or a required reason is
// blank. A successful command drops every cached query it may have changed.
func (c *Client) Execute(ctx context.Context, cmd Command, confirm Confirmer) (*Result, error) {
	req, err := workflow.Requirements(cmd.Entity, cmd.Action)
	if err != nil {
		return nil, err
	}
	if req.NeedsReason && strings.TrimSpace(cmd.Reason) == "" {
		return nil, fmt.Errorf("%s: %w", cmd.Action, ErrReasonRequired)
	}
	if req.Confirm && (confirm == nil || !confirm.Confirm(ctx, cmd)) {
		return nil, ErrNotConfirmed
	}

	res, err := c.send(ctx, cmd)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &ActionError{Action: cmd.Action, Status: apiErr.Status, Message: apiErr.Message}
		}
		return nil, err
	}
	c.queries.invalidate(affected(cmd)...)
	return res, nil
}

func (c *Client) send(ctx context.Context, cmd Command) (*Result, error) {
	id := cmd.TargetID
	switch cmd.Entity {
	case workflow.EntityUser:
		return c.put(ctx, "/api/admin/users", dto.UserActionRequest{UserID: id, Action: string(cmd.Action)})

	case workflow.EntityCourse:
		return c.put(ctx, "/api/admin/courses", dto.CourseActionRequest{CourseID: id, Action: string(cmd.Action)})

	case workflow.EntityReport:
		if cmd.Action == workflow.ActionTakeAction {
			var resp dto.ActionResponse
			err := c.do(ctx, http.MethodPost, "/api/admin/moderation", nil, dto.TakeActionRequest{
				ReportID:    id,
				ContentType: cmd.ContentType,
				ContentID:   cmd.ContentID,
				ActionType:  string(cmd.ActionType),
				Reason:      cmd.Reason,
				Notes:       cmd.Notes,
			}, &resp, true)
			if err != nil {
				return nil, err
			}
			return &Result{Status: resp.Status}, nil
		}
		return c.put(ctx, "/api/admin/moderation", dto.UpdateReportRequest{
			ReportID:   id,
			Status:     targetStatus(cmd.Entity, cmd.Action),
			Resolution: cmd.Reason,
		})

	case workflow.EntityTicket:
		return c.sendTicket(ctx, cmd)
	}
	return nil, fmt.Errorf("%s: %w", cmd.Entity, workflow.ErrUnknownAction)
}

func (c *Client) sendTicket(ctx context.Context, cmd Command) (*Result, error) {
	id := cmd.TargetID
	switch cmd.Action {
	case workflow.ActionRespond:
		err := c.do(ctx, http.MethodPost, "/api/admin/support", nil, dto.TicketMessageRequest{
			TicketID:   id,
			Message:    cmd.Reason,
			IsInternal: cmd.Internal,
		}, nil, true)
		if err != nil {
			return nil, err
		}
		return &Result{}, nil

	case workflow.ActionReply:
		err := c.do(ctx, http.MethodPost, "/api/support/tickets/"+id.String()+"/messages", nil, dto.ReplyRequest{Message: cmd.Reason}, nil, true)
		if err != nil {
			return nil, err
		}
		return &Result{}, nil

	case workflow.ActionTakeOwnership:
		s, err := c.sessions.Get()
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, ErrNotSignedIn
		}
		me := s.User.ID
		return c.put(ctx, "/api/admin/support", dto.UpdateTicketRequest{TicketID: id, AssignedTo: &me})
	}
	return c.put(ctx, "/api/admin/support", dto.UpdateTicketRequest{
		TicketID:   id,
		Status:     targetStatus(cmd.Entity, cmd.Action),
		Resolution: cmd.Reason,
	})
}

func (c *Client) put(ctx context.Context, path string, body interface{}) (*Result, error) {
	var resp dto.ActionResponse
	if err := c.do(ctx, http.MethodPut, path, nil, body, &resp, true); err != nil {
		return nil, err
	}
	return &Result{Status: resp.Status}, nil
}

// targetStatus is where a status-changing action lands.
func targetStatus(entity workflow.Entity, action workflow.Action) string {
	for _, st := range workflow.Statuses(entity) {
		if workflow.Reaches(entity, action, st) {
			return st
		}
	}
	return ""
}

func affected(cmd Command) []string {
	out := []string{ResourceOverview}
	switch cmd.Entity {
	case workflow.EntityUser:
		out = append(out, ResourceUsers)
	case workflow.EntityCourse:
		out = append(out, ResourceCourses)
	case workflow.EntityReport:
		out = append(out, ResourceReports)
		switch cmd.ActionType {
		case workflow.ContentActionFlagCourse:
			out = append(out, ResourceCourses)
		case workflow.ContentActionSuspendUser:
			out = append(out, ResourceUsers)
		}
	case workflow.EntityTicket:
		out = append(out, ResourceTickets, ResourceMyTickets)
	}
	return out
}
