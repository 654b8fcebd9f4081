// Package workflow holds the status lifecycles for users, courses, content
// reports and support tickets, and decides which actor may move an entity
// from one status to another.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

type Entity string

const (
	EntityUser   Entity = "user"
	EntityCourse Entity = "course"
	EntityReport Entity = "report"
	EntityTicket Entity = "ticket"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTrainer Role = "TRAINER"
	RoleAdmin   Role = "ADMIN"
	// RoleSystem is used by scheduled jobs.
	RoleSystem Role = "SYSTEM"
)

// ParseRole normalizes a role name. Unknown roles return ok=false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTrainer, RoleAdmin:
		return r, true
	}
	return "", false
}

type Action string

const (
	ActionSuspend  Action = "suspend"
	ActionActivate Action = "activate"

	ActionApprove Action = "approve"
	ActionFlag    Action = "flag"
	ActionUnflag  Action = "unflag"
	ActionReject  Action = "reject"

	ActionReview     Action = "review"
	ActionDismiss    Action = "dismiss"
	ActionTakeAction Action = "take_action"

	ActionTakeOwnership Action = "take_ownership"
	ActionRespond       Action = "respond"
	ActionRequestInfo   Action = "request_info"
	ActionReply         Action = "reply"
	ActionClose         Action = "close"

	// ActionResolve applies to both reports and tickets.
	ActionResolve Action = "resolve"
)

// User statuses.
const (
	UserActive    = "active"
	UserSuspended = "suspended"
	UserPending   = "pending"
)

// Course statuses.
const (
	CourseDraft     = "DRAFT"
	CoursePublished = "PUBLISHED"
	CourseFlagged   = "FLAGGED"
	CourseRejected  = "REJECTED"
)

// Report statuses.
const (
	ReportPending     = "PENDING"
	ReportUnderReview = "UNDER_REVIEW"
	ReportResolved    = "RESOLVED"
	ReportDismissed   = "DISMISSED"
)

// Ticket statuses.
const (
	TicketOpen           = "OPEN"
	TicketInProgress     = "IN_PROGRESS"
	TicketWaitingForUser = "WAITING_FOR_USER"
	TicketResolved       = "RESOLVED"
	TicketClosed         = "CLOSED"
)

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrIllegalTransition = errors.New("action not allowed in current status")
	ErrForbidden         = errors.New("role may not perform this action")
	ErrReasonRequired    = errors.New("a reason is required for this action")
)

// Transition is one row of the lifecycle table.
type Transition struct {
	Entity Entity
	From   string
	Action Action
	To     string
	Roles  []Role
	// Confirm marks destructive or irreversible actions.
	Confirm bool
	// NeedsReason marks actions that must carry free text.
	NeedsReason bool
}

// Keeps reports whether the transition leaves the status unchanged.
func (t Transition) Keeps() bool { return t.From == t.To }

func (t Transition) allows(role Role) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Requirement is what a caller must gather before sending an action.
type Requirement struct {
	Confirm     bool
	NeedsReason bool
}

// Requirements returns the confirmation and reason policy for an action.
// The policy is the same for every source status an action appears in.
func Requirements(entity Entity, action Action) (Requirement, error) {
	for _, t := range table {
		if t.Entity == entity && t.Action == action {
			return Requirement{Confirm: t.Confirm, NeedsReason: t.NeedsReason}, nil
		}
	}
	return Requirement{}, fmt.Errorf("%s/%s: %w", entity, action, ErrUnknownAction)
}

// Lookup finds the transition for action from the given status.
func Lookup(entity Entity, from string, action Action) (Transition, error) {
	known := false
	for _, t := range table {
		if t.Entity != entity || t.Action != action {
			continue
		}
		known = true
		if t.From == from {
			return t, nil
		}
	}
	if !known {
		return Transition{}, fmt.Errorf("%s/%s: %w", entity, action, ErrUnknownAction)
	}
	return Transition{}, fmt.Errorf("%s %s from %s: %w", entity, action, from, ErrIllegalTransition)
}

// Authorize looks up the transition and checks the actor's role.
func Authorize(entity Entity, from string, action Action, role Role) (Transition, error) {
	t, err := Lookup(entity, from, action)
	if err != nil {
		return Transition{}, err
	}
	if !t.allows(role) {
		return Transition{}, fmt.Errorf("%s %s as %s: %w", entity, action, role, ErrForbidden)
	}
	return t, nil
}

// Validate runs Authorize and then the reason check.
func Validate(entity Entity, from string, action Action, role Role, reason string) (Transition, error) {
	t, err := Authorize(entity, from, action, role)
	if err != nil {
		return Transition{}, err
	}
	if t.NeedsReason && strings.TrimSpace(reason) == "" {
		return Transition{}, fmt.Errorf("%s %s: %w", entity, action, ErrReasonRequired)
	}
	return t, nil
}

// LegalActions lists the actions role may take on an entity in status, in
// table order. Admin consoles derive their buttons from this.
func LegalActions(entity Entity, status string, role Role) []Action {
	var out []Action
	for _, t := range table {
		if t.Entity == entity && t.From == status && t.allows(role) {
			out = append(out, t.Action)
		}
	}
	return out
}

// ActionFor finds the action that moves an entity from one status to another.
// Status-keep transitions are never returned.
func ActionFor(entity Entity, from, to string, role Role) (Action, error) {
	for _, t := range table {
		if t.Entity == entity && t.From == from && t.To == to && !t.Keeps() && t.allows(role) {
			return t.Action, nil
		}
	}
	return "", fmt.Errorf("%s %s -> %s: %w", entity, from, to, ErrIllegalTransition)
}

// Reaches reports whether action ends in status from any source status.
// Side effects use it to treat an entity already in the target status as done.
func Reaches(entity Entity, action Action, status string) bool {
	for _, t := range table {
		if t.Entity == entity && t.Action == action && t.To == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no action leaves status.
func IsTerminal(entity Entity, status string) bool {
	for _, t := range table {
		if t.Entity == entity && t.From == status {
			return false
		}
	}
	return true
}

// Statuses returns every status known for entity.
func Statuses(entity Entity) []string {
	switch entity {
	case EntityUser:
		return []string{UserActive, UserSuspended, UserPending}
	case EntityCourse:
		return []string{CourseDraft, CoursePublished, CourseFlagged, CourseRejected}
	case EntityReport:
		return []string{ReportPending, ReportUnderReview, ReportResolved, ReportDismissed}
	case EntityTicket:
		return []string{TicketOpen, TicketInProgress, TicketWaitingForUser, TicketResolved, TicketClosed}
	}
	return nil
}

// NormalizeStatus maps user input onto the canonical spelling for entity,
// so "pending" and "PENDING" both filter reports. Empty input stays empty.
func NormalizeStatus(entity Entity, s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	for _, st := range Statuses(entity) {
		if strings.EqualFold(st, s) {
			return st, true
		}
	}
	return "", false
}
