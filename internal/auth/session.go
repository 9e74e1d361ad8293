package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Status is the readable state of a Session.
type Status struct {
	IsAuthenticated bool  `json:"is_authenticated"`
	User            *User `json:"user"`
	Loading         bool  `json:"loading"`
}

type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Session is the authentication state of one console. It is created
// loading, restored by Init from the key store and torn down by Logout.
// The persisted token is trusted on presence alone.
type Session struct {
	Provider Provider
	Store    KeyStore
	Log      *zap.Logger

	mu     sync.Mutex
	status Status
	token  string
}

func NewSession(p Provider, store KeyStore, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		Provider: p,
		Store:    store,
		Log:      logger,
		status:   Status{Loading: true},
	}
}

// Init restores a persisted session when both keys are present.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.status.Loading = false }()

	token, err := s.Store.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("read session token: %w", err)
	}
	raw, err := s.Store.Get(UserKey)
	if err != nil {
		return fmt.Errorf("read session user: %w", err)
	}
	if token == "" || raw == "" {
		return nil
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return fmt.Errorf("decode session user: %w", err)
	}
	s.token = token
	s.status.IsAuthenticated = true
	s.status.User = &u
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) LoginResult {
	if email == "" || password == "" {
		return LoginResult{Error: "please fill in all fields"}
	}

	grant, err := s.Provider.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrCredentialsRequired):
		return LoginResult{Error: "invalid credentials, check the email and password"}
	case err != nil:
		s.Log.Error("login failed", zap.Error(err), zap.String("email", email))
		return LoginResult{Error: "internal error, try again"}
	}

	userJSON, err := json.Marshal(grant.User)
	if err != nil {
		return LoginResult{Error: "internal error, try again"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Store.Set(TokenKey, grant.Token); err != nil {
		s.Log.Error("persist session token failed", zap.Error(err))
		return LoginResult{Error: "internal error, try again"}
	}
	if err := s.Store.Set(UserKey, string(userJSON)); err != nil {
		_ = s.Store.Delete(TokenKey)
		s.Log.Error("persist session user failed", zap.Error(err))
		return LoginResult{Error: "internal error, try again"}
	}

	u := grant.User
	s.token = grant.Token
	s.status = Status{IsAuthenticated: true, User: &u}
	return LoginResult{Success: true}
}

// Logout clears the persisted keys and the in-memory state. The in-memory
// state is cleared even when the store fails.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.status = Status{}
	return errors.Join(s.Store.Delete(TokenKey), s.Store.Delete(UserKey))
}

func (s *Session) ResetPassword(ctx context.Context, email string) ResetResult {
	msg, err := s.Provider.RequestReset(ctx, email)
	switch {
	case errors.Is(err, ErrEmailRequired):
		return ResetResult{Error: "please enter your email"}
	case errors.Is(err, ErrUnknownEmail):
		return ResetResult{Error: "email not found"}
	case err != nil:
		s.Log.Error("password reset failed", zap.Error(err))
		return ResetResult{Error: "internal error, try again"}
	}
	return ResetResult{Success: true, Message: msg}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Token returns the session token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}
