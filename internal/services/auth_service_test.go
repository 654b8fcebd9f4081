package services

import (
	"context"
	"testing"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		req        dto.SignupRequest
		wantRole   string
		wantStatus string
		wantErr    error
	}{
		{"student by default", dto.SignupRequest{Email: "s@lms.test", Password: "password1"}, "STUDENT", workflow.UserActive, nil},
		{"trainer starts pending", dto.SignupRequest{Email: "t@lms.test", Password: "password1", Role: "trainer"}, "TRAINER", workflow.UserPending, nil},
		{"bootstrap admin", dto.SignupRequest{Email: "Root@lms.test", Password: "password1"}, "ADMIN", workflow.UserActive, nil},
		{"admin cannot be self-assigned", dto.SignupRequest{Email: "x@lms.test", Password: "password1", Role: "ADMIN"}, "", "", ErrValidation},
		{"short password", dto.SignupRequest{Email: "y@lms.test", Password: "short"}, "", "", ErrValidation},
		{"duplicate email", dto.SignupRequest{Email: "S@lms.test", Password: "password1"}, "", "", ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.auth.Signup(ctx, &tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, resp.User.Role)
			assert.Equal(t, tt.wantStatus, resp.User.Status)
			assert.NotEmpty(t, resp.Token)
			assert.NotEmpty(t, resp.RefreshToken)
		})
	}
}

func TestLoginIssuesRoleClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Signup(ctx, &dto.SignupRequest{Email: "t@lms.test", Password: "password1", Role: "TRAINER"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "t@lms.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "T@lms.test", Password: "password1"})
	require.NoError(t, err)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "TRAINER", claims["role"])
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
}

func TestLoginRejectsSuspendedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Signup(ctx, &dto.SignupRequest{Email: "s@lms.test", Password: "password1"})
	require.NoError(t, err)
	_, err = f.users.Apply(ctx, f.admin, resp.User.ID, workflow.ActionSuspend)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "s@lms.test", Password: "password1"})
	assert.ErrorIs(t, err, ErrAccountSuspended)

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Signup(ctx, &dto.SignupRequest{Email: "s@lms.test", Password: "password1"})
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: second.RefreshToken}))
	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: second.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	me, err := f.auth.Me(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "s@lms.test", me.User.Email)
}
