// Package guard decides what happens when a caller enters a role-gated
// dashboard. Both the server redirects and the Go client navigator use it.
package guard

import (
	"strings"

	"github.com/afzalm/cclms/internal/workflow"
)

const LoginPath = "/auth/login"

// Dashboard entry points.
const (
	AdminHome      = "/admin"
	InstructorHome = "/instructor"
	LearnerHome    = "/learn"
)

type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// Principal is the resolved caller. A nil *Principal is unauthenticated.
type Principal struct {
	Role workflow.Role
}

type Decision struct {
	Outcome  Outcome
	Location string
}

// HomeFor returns the dashboard a role lands on.
func HomeFor(role workflow.Role) string {
	switch role {
	case workflow.RoleAdmin:
		return AdminHome
	case workflow.RoleTrainer:
		return InstructorHome
	case workflow.RoleStudent:
		return LearnerHome
	}
	return LoginPath
}

// Decide resolves a single route entry.
func Decide(p *Principal, allowed ...workflow.Role) Decision {
	if p == nil {
		return Decision{Outcome: RedirectLogin, Location: LoginPath}
	}
	for _, r := range allowed {
		if r == p.Role {
			return Decision{Outcome: Render}
		}
	}
	home := HomeFor(p.Role)
	if home == LoginPath {
		return Decision{Outcome: RedirectLogin, Location: LoginPath}
	}
	return Decision{Outcome: RedirectHome, Location: home}
}

var dashboards = []struct {
	prefix  string
	allowed []workflow.Role
}{
	{AdminHome, []workflow.Role{workflow.RoleAdmin}},
	{InstructorHome, []workflow.Role{workflow.RoleTrainer}},
	{LearnerHome, []workflow.Role{workflow.RoleStudent}},
}

// AllowedFor returns the roles allowed under path. ok is false for paths
// outside any dashboard.
func AllowedFor(path string) (allowed []workflow.Role, ok bool) {
	for _, d := range dashboards {
		if path == d.prefix || strings.HasPrefix(path, d.prefix+"/") {
			return d.allowed, true
		}
	}
	return nil, false
}

// DecidePath is Decide with the allowed roles looked up from path. Paths
// outside the dashboards always render.
func DecidePath(p *Principal, path string) Decision {
	allowed, ok := AllowedFor(path)
	if !ok {
		return Decision{Outcome: Render}
	}
	return Decide(p, allowed...)
}
