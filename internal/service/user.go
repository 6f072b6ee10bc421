package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/social_feed/internal/hash"
	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/mykafka"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/transport"
)

const (
	EventUserUpdated = "user_updated"
	EventUserDeleted = "user_deleted"
)

// UserService works on the caller's own account only. The caller id always
// comes from the verified token.
type UserService struct {
	Store  repo.Store
	Hasher hash.Hasher
	Index  PostIndex
	Events Publisher
}

func (s *UserService) Me(ctx context.Context, caller models.UserID) (transport.UserView, error) {
	u, err := s.Store.FindUserByID(ctx, caller)
	if err != nil {
		return transport.UserView{}, classify(ctx, "user.me", notFound(err, "user"))
	}
	return transport.NewUserView(u), nil
}

func (s *UserService) Update(ctx context.Context, caller models.UserID, req transport.UpdateUserRequest) (transport.UserView, error) {
	l := logging.FromContext(ctx).With("svc", "user.update", "user_id", caller)

	var email, username, pwHash string
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
		if err := checkVar("email", email, emailRule); err != nil {
			return transport.UserView{}, err
		}
	}
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if err := checkVar("username", username, usernameRule); err != nil {
			return transport.UserView{}, err
		}
	}
	if req.Password != nil {
		if err := checkVar("password", *req.Password, passwordRule); err != nil {
			return transport.UserView{}, err
		}
		h, err := s.Hasher.Hash(*req.Password)
		if err != nil {
			if errors.Is(err, hash.ErrPasswordTooLong) {
				return transport.UserView{}, fail(ErrValidation, "password is too long")
			}
			l.Error("update_failed", "status", 500, "reason", "cannot hash the password", "error", err)
			return transport.UserView{}, fail(ErrInternal, "internal error")
		}
		pwHash = h
	}
	if req.Avatar != nil {
		if err := checkVar("avatar", strings.TrimSpace(*req.Avatar), avatarRule); err != nil {
			return transport.UserView{}, err
		}
	}

	var updated models.User
	err := runTx(ctx, s.Store, "user.update", func(st repo.Store) error {
		u, err := st.FindUserByID(ctx, caller)
		if err != nil {
			return notFound(err, "user")
		}
		if err := ensureFree(ctx, st, email, username, caller); err != nil {
			return err
		}

		if email != "" {
			u.Email = email
		}
		if username != "" {
			u.Username = username
		}
		if pwHash != "" {
			u.PasswordHash = pwHash
		}
		if req.Avatar != nil {
			if a := strings.TrimSpace(*req.Avatar); a == "" {
				u.Avatar = nil
			} else {
				u.Avatar = &a
			}
		}

		if err := st.UpdateUser(ctx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return fail(ErrConflict, "email or username already taken")
			}
			return notFound(err, "user")
		}
		updated = *u
		return nil
	})
	if err != nil {
		return transport.UserView{}, err
	}

	l.Info("user_updated", "password_changed", pwHash != "")
	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.Event{Type: EventUserUpdated, UserID: caller})
	return transport.NewUserView(&updated), nil
}

// Delete removes the caller together with everything the caller owns.
func (s *UserService) Delete(ctx context.Context, caller models.UserID) error {
	l := logging.FromContext(ctx).With("svc", "user.delete", "user_id", caller)

	var postIDs []uint
	err := runTx(ctx, s.Store, "user.delete", func(st repo.Store) error {
		ids, err := st.PostIDsByUser(ctx, caller)
		if err != nil {
			return err
		}
		if err := st.DeleteUser(ctx, caller); err != nil {
			return notFound(err, "user")
		}
		postIDs = ids
		return nil
	})
	if err != nil {
		return err
	}

	if s.Index != nil {
		for _, id := range postIDs {
			if err := s.Index.DeletePost(ctx, id); err != nil {
				l.Warn("search_unindex_failed", "post_id", id, "error", err)
			}
		}
	}

	l.Info("user_deleted", "posts_removed", len(postIDs))
	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.Event{Type: EventUserDeleted, UserID: caller})
	return nil
}
