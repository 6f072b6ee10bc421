package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/social_feed/internal/authz"
	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/repo"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

const (
	KindValidation   = "validation_error"
	KindConflict     = "conflict"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindNotFound     = "not_found"
	KindInternal     = "internal_error"
)

// Error carries one of the kind sentinels and a message that is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Message returns the client-facing text of err. Internal errors never leak details.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && !errors.Is(err, ErrInternal) {
		return e.Msg
	}
	return "internal error"
}

func isDomain(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// classify turns whatever a store call returned into a domain error.
// Unexpected errors are logged here and replaced by ErrInternal.
func classify(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomain(err):
		return err
	case errors.Is(err, repo.ErrDuplicate):
		return fail(ErrConflict, "resource already exists")
	case errors.Is(err, repo.ErrNotFound):
		return fail(ErrNotFound, "resource not found")
	}
	logging.FromContext(ctx).Error("store_error", "op", op, "error", err)
	return fail(ErrInternal, "internal error")
}

// runTx executes fn in one transaction. Any error rolls the transaction back
// and is classified before it is returned.
func runTx(ctx context.Context, store repo.Store, op string, fn func(repo.Store) error) error {
	return classify(ctx, op, store.Tx(ctx, fn))
}

func notFound(err error, what string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return err
}

func authorize(caller models.UserID, resource authz.Owned) error {
	err := authz.Authorize(caller, resource)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, authz.ErrNoIdentity):
		return fail(ErrUnauthorized, "authentication required")
	case errors.Is(err, authz.ErrNoResource):
		return fail(ErrNotFound, "resource not found")
	default:
		return fail(ErrForbidden, "only the owner can modify this resource")
	}
}
