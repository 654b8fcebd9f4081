package workflow

import (
	"errors"
	"strings"
)

// Reported content kinds.
const (
	ContentCourse = "COURSE"
	ContentReview = "REVIEW"
	ContentUser   = "USER"
	ContentLesson = "LESSON"
)

// Report severities.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Ticket priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// ContentAction is the side effect of a report's take_action.
type ContentAction string

const (
	ContentActionWarn          ContentAction = "WARN"
	ContentActionRemoveContent ContentAction = "REMOVE_CONTENT"
	ContentActionFlagCourse    ContentAction = "FLAG_COURSE"
	ContentActionSuspendUser   ContentAction = "SUSPEND_USER"
)

var (
	ErrUnknownContentAction = errors.New("unknown action type")
	ErrContentMismatch      = errors.New("action type does not apply to this content type")
)

// Effect is the entity transition a content action triggers, if any.
type Effect struct {
	Entity Entity
	Action Action
}

// EffectOf validates a content action against the reported content type and
// returns the follow-up transition. WARN and REMOVE_CONTENT are recorded only.
func EffectOf(action ContentAction, contentType string) (*Effect, error) {
	switch action {
	case ContentActionWarn, ContentActionRemoveContent:
		return nil, nil
	case ContentActionFlagCourse:
		if contentType != ContentCourse {
			return nil, ErrContentMismatch
		}
		return &Effect{Entity: EntityCourse, Action: ActionFlag}, nil
	case ContentActionSuspendUser:
		if contentType != ContentUser {
			return nil, ErrContentMismatch
		}
		return &Effect{Entity: EntityUser, Action: ActionSuspend}, nil
	}
	return nil, ErrUnknownContentAction
}

// ParseContentAction is case-insensitive.
func ParseContentAction(s string) (ContentAction, bool) {
	a := ContentAction(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case ContentActionWarn, ContentActionRemoveContent, ContentActionFlagCourse, ContentActionSuspendUser:
		return a, true
	}
	return "", false
}

func oneOf(s string, options ...string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, o := range options {
		if s == o {
			return o, true
		}
	}
	return "", false
}

func ParseContentType(s string) (string, bool) {
	return oneOf(s, ContentCourse, ContentReview, ContentUser, ContentLesson)
}

func ParseSeverity(s string) (string, bool) {
	return oneOf(s, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical)
}

func ParsePriority(s string) (string, bool) {
	return oneOf(s, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)
}
