package guard

import (
	"testing"

	"github.com/afzalm/cclms/internal/workflow"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	student := &Principal{Role: workflow.RoleStudent}
	trainer := &Principal{Role: workflow.RoleTrainer}
	admin := &Principal{Role: workflow.RoleAdmin}

	tests := []struct {
		name string
		p    *Principal
		path string
		want Decision
	}{
		{"unauthenticated admin", nil, "/admin", Decision{RedirectLogin, LoginPath}},
		{"unauthenticated learner", nil, "/learn/courses/1", Decision{RedirectLogin, LoginPath}},
		{"student on admin", student, "/admin", Decision{RedirectHome, LearnerHome}},
		{"trainer on admin users", trainer, "/admin/users", Decision{RedirectHome, InstructorHome}},
		{"admin on learn", admin, "/learn", Decision{RedirectHome, AdminHome}},
		{"admin on admin", admin, "/admin/support", Decision{Outcome: Render}},
		{"trainer on instructor", trainer, "/instructor", Decision{Outcome: Render}},
		{"prefix must match a segment", student, "/administrator", Decision{Outcome: Render}},
		{"unknown role", &Principal{Role: "GUEST"}, "/learn", Decision{RedirectLogin, LoginPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecidePath(tt.p, tt.path))
		})
	}
}

func TestStudentNeverRendersAdmin(t *testing.T) {
	for _, path := range []string{"/admin", "/admin/", "/admin/moderation", "/admin/overview"} {
		d := DecidePath(&Principal{Role: workflow.RoleStudent}, path)
		assert.NotEqual(t, Render, d.Outcome, path)
		assert.Equal(t, LearnerHome, d.Location, path)
	}
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, AdminHome, HomeFor(workflow.RoleAdmin))
	assert.Equal(t, InstructorHome, HomeFor(workflow.RoleTrainer))
	assert.Equal(t, LearnerHome, HomeFor(workflow.RoleStudent))
	assert.Equal(t, LoginPath, HomeFor(workflow.RoleSystem))
}
