package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/afzalm/cclms/internal/dto"
)

const logoutTimeout = 5 * time.Second

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{Email: email, Password: password}, &resp, false); err != nil {
		return nil, err
	}
	return c.store(&resp)
}

func (c *Client) Signup(ctx context.Context, req dto.SignupRequest) (*Session, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, req, &resp, false); err != nil {
		return nil, err
	}
	return c.store(&resp)
}

func (c *Client) store(resp *dto.AuthResponse) (*Session, error) {
	s := &Session{User: resp.User, Token: resp.Token, RefreshToken: resp.RefreshToken}
	if err := c.sessions.Set(s); err != nil {
		return nil, err
	}
	c.queries.clear()
	return s, nil
}

// Logout clears the local session right away and tells the server in the
// background. The returned channel is closed once the server call finishes;
// callers are free to ignore it.
func (c *Client) Logout() (<-chan struct{}, error) {
	done := make(chan struct{})
	s, err := c.sessions.Get()
	if err != nil {
		close(done)
		return done, err
	}
	if err := c.sessions.Clear(); err != nil {
		close(done)
		return done, err
	}
	c.queries.clear()
	if s == nil {
		close(done)
		return done, nil
	}

	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		if err := c.logoutRemote(ctx, s); err != nil {
			slog.Debug("server logout failed", "error", err)
		}
	}()
	return done, nil
}

func (c *Client) logoutRemote(ctx context.Context, s *Session) error {
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", dto.LogoutRequest{RefreshToken: s.RefreshToken})
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
