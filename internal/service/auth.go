package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Skotchmaster/social_feed/internal/hash"
	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/mykafka"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/transport"
)

const (
	EventUserRegistered = "user_registered"
	EventUserLoggedIn   = "user_logged_in"

	invalidCredentials = "invalid email or password"
)

type AuthService struct {
	Store  repo.Store
	Hasher hash.Hasher
	Tokens TokenManager
	Events Publisher

	dummyOnce sync.Once
	dummyHash string
}

func (s *AuthService) Signup(ctx context.Context, req transport.SignupRequest) (transport.UserView, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := checkStruct(req); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", err.Error())
		return transport.UserView{}, err
	}
	email, username := req.Email, req.Username

	pwHash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return transport.UserView{}, fail(ErrValidation, "password is too long")
		}
		l.Error("signup_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return transport.UserView{}, fail(ErrInternal, "internal error")
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Avatar:       req.Avatar,
		IsActive:     true,
	}

	err = runTx(ctx, s.Store, "auth.signup", func(st repo.Store) error {
		if err := ensureFree(ctx, st, email, username, 0); err != nil {
			return err
		}
		if err := st.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return fail(ErrConflict, "email or username already taken")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			l.Warn("signup_failed", "status", 409, "reason", err.Error())
		}
		return transport.UserView{}, err
	}

	l.Info("user_registered", "user_id", user.ID)
	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.Event{Type: EventUserRegistered, UserID: user.ID})
	return transport.NewUserView(&user), nil
}

// ensureFree reports a conflict when email or username belongs to a user other than self.
func ensureFree(ctx context.Context, st repo.Store, email, username string, self models.UserID) error {
	if email != "" {
		u, err := st.FindUserByEmail(ctx, email)
		switch {
		case err == nil && u.ID != self:
			return fail(ErrConflict, "email already registered")
		case err != nil && !errors.Is(err, repo.ErrNotFound):
			return err
		}
	}
	if username != "" {
		u, err := st.FindUserByUsername(ctx, username)
		switch {
		case err == nil && u.ID != self:
			return fail(ErrConflict, "username already taken")
		case err != nil && !errors.Is(err, repo.ErrNotFound):
			return err
		}
	}
	return nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	req.Email = normalizeEmail(req.Email)
	if err := checkStruct(req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", err.Error())
		return transport.LoginResult{}, err
	}
	email := req.Email

	user, err := s.Store.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// spend the same time as a real verification
		s.Hasher.Verify(req.Password, s.dummy())
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return transport.LoginResult{}, fail(ErrUnauthorized, invalidCredentials)
	case err != nil:
		return transport.LoginResult{}, classify(ctx, "auth.login", err)
	}

	if !s.Hasher.Verify(req.Password, user.PasswordHash) || !user.IsActive {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials", "user_id", user.ID)
		return transport.LoginResult{}, fail(ErrUnauthorized, invalidCredentials)
	}

	tok, err := s.Tokens.Issue(user.ID)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return transport.LoginResult{}, fail(ErrInternal, "internal error")
	}

	l.Info("user_logged_in", "user_id", user.ID)
	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.Event{Type: EventUserLoggedIn, UserID: user.ID})

	return transport.LoginResult{
		AccessToken: tok.Value,
		TokenType:   "Bearer",
		ExpiresAt:   tok.ExpiresAt,
		User:        transport.NewUserView(user),
	}, nil
}

// Authenticate returns the identity carried by a presented access token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (models.UserID, error) {
	if raw == "" {
		return 0, fail(ErrUnauthorized, "authentication required")
	}
	id, err := s.Tokens.Verify(raw)
	if err != nil {
		logging.FromContext(ctx).Debug("token_rejected", "reason", err.Error())
		return 0, fail(ErrUnauthorized, "invalid or expired token")
	}
	return id, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
