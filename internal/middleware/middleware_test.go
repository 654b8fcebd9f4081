package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/afzalm/cclms/internal/config"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/testing/memstore"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = &config.Config{JWTSecret: "middleware-secret"}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	s, err := token.SignedString([]byte(testCfg.JWTSecret))
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, store *memstore.Store, role workflow.Role, status string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), Email: uuid.NewString() + "@lms.test", Role: string(role), Status: status}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestRoleRequired(t *testing.T) {
	store := memstore.New()
	admin := seed(t, store, workflow.RoleAdmin, workflow.UserActive)
	student := seed(t, store, workflow.RoleStudent, workflow.UserActive)
	suspended := seed(t, store, workflow.RoleAdmin, workflow.UserSuspended)

	app := fiber.New()
	app.Get("/admin-only", JWTProtected(testCfg), RoleRequired(store.Users(), workflow.RoleAdmin), func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(string(actor.Role))
	})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", fiber.StatusUnauthorized},
		{"garbage token", "abc", fiber.StatusUnauthorized},
		{"admin", signToken(t, admin.ID), fiber.StatusOK},
		{"student", signToken(t, student.ID), fiber.StatusForbidden},
		{"suspended admin", signToken(t, suspended.ID), fiber.StatusForbidden},
		{"deleted user", signToken(t, uuid.New()), fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin-only", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	store := memstore.New()
	admin := seed(t, store, workflow.RoleAdmin, workflow.UserActive)
	token := signToken(t, admin.ID)

	app := fiber.New()
	app.Get("/x", JWTProtected(testCfg), RoleRequired(store.Users(), workflow.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	call := func() int {
		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, call())
	require.NoError(t, store.Users().TransitionStatus(context.Background(), admin.ID, workflow.UserActive, workflow.UserSuspended))
	assert.Equal(t, fiber.StatusForbidden, call())
}

func TestDashboardGuard(t *testing.T) {
	store := memstore.New()
	admin := seed(t, store, workflow.RoleAdmin, workflow.UserActive)
	student := seed(t, store, workflow.RoleStudent, workflow.UserActive)

	app := fiber.New()
	app.Use(DashboardGuard(testCfg, store.Users()))
	for _, p := range []string{"/admin", "/learn", "/instructor"} {
		app.Get(p, func(c *fiber.Ctx) error { return c.SendString("dashboard") })
	}

	tests := []struct {
		name     string
		path     string
		header   string
		cookie   string
		wantCode int
		wantLoc  string
	}{
		{"unauthenticated", "/admin", "", "", fiber.StatusFound, "/auth/login"},
		{"expired or forged", "/admin", "Bearer nope", "", fiber.StatusFound, "/auth/login"},
		{"student on admin", "/admin", "Bearer " + signToken(t, student.ID), "", fiber.StatusFound, "/learn"},
		{"student via cookie", "/admin", "", signToken(t, student.ID), fiber.StatusFound, "/learn"},
		{"admin on learn", "/learn", "Bearer " + signToken(t, admin.ID), "", fiber.StatusFound, "/admin"},
		{"admin on admin", "/admin", "Bearer " + signToken(t, admin.ID), "", fiber.StatusOK, ""},
		{"student on learn", "/learn", "Bearer " + signToken(t, student.ID), "", fiber.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", TokenCookie+"="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantLoc, resp.Header.Get("Location"))
		})
	}
}
