package client

import (
	"errors"
	"net/http"

	"github.com/afzalm/cclms/internal/guard"
	"github.com/afzalm/cclms/internal/workflow"
)

// Navigator decides once per navigation whether a dashboard path may render
// for the stored session.
type Navigator struct {
	sessions SessionStore
	current  string
}

func NewNavigator(sessions SessionStore) *Navigator {
	return &Navigator{sessions: sessions}
}

func (n *Navigator) principal() (*guard.Principal, error) {
	s, err := n.sessions.Get()
	if err != nil || s == nil {
		return nil, err
	}
	return &guard.Principal{Role: workflow.Role(s.User.Role)}, nil
}

// Enter evaluates path and records where the caller ends up.
func (n *Navigator) Enter(path string) (guard.Decision, error) {
	p, err := n.principal()
	if err != nil {
		return guard.Decision{}, err
	}
	d := guard.DecidePath(p, path)
	if d.Outcome == guard.Render {
		n.current = path
	} else {
		n.current = d.Location
	}
	return d, nil
}

// Current is the path of the last navigation.
func (n *Navigator) Current() string { return n.current }

// Recover turns request errors into navigation: an expired session goes to
// login and a 403 goes to the caller's home. ok is false for other errors,
// which belong inline.
func (n *Navigator) Recover(err error) (d guard.Decision, ok bool) {
	var expired *SessionExpiredError
	if errors.As(err, &expired) {
		n.current = expired.Redirect
		return guard.Decision{Outcome: guard.RedirectLogin, Location: expired.Redirect}, true
	}

	status := 0
	var actionErr *ActionError
	var apiErr *APIError
	switch {
	case errors.As(err, &actionErr):
		status = actionErr.Status
	case errors.As(err, &apiErr):
		status = apiErr.Status
	}
	if status != http.StatusForbidden {
		return guard.Decision{}, false
	}

	p, perr := n.principal()
	if perr != nil || p == nil {
		n.current = guard.LoginPath
		return guard.Decision{Outcome: guard.RedirectLogin, Location: guard.LoginPath}, true
	}
	home := guard.HomeFor(p.Role)
	n.current = home
	if home == guard.LoginPath {
		return guard.Decision{Outcome: guard.RedirectLogin, Location: home}, true
	}
	return guard.Decision{Outcome: guard.RedirectHome, Location: home}, true
}
