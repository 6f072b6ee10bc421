package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/social_feed/internal/transport"
)

func TestSignup_ReturnsPublicProjection(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	u, err := env.auth.Signup(context.Background(), transport.SignupRequest{
		Email:    "  Alice@Example.com ",
		Username: " alice ",
		Password: "p1",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(raw)), "password")

	stored, err := env.store.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.NotEqual(t, "p1", stored.PasswordHash)
	assert.True(t, env.auth.Hasher.Verify("p1", stored.PasswordHash))

	assert.Equal(t, []string{EventUserRegistered}, env.events.Types())
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  transport.SignupRequest
	}{
		{name: "missing email", req: transport.SignupRequest{Username: "a", Password: "p"}},
		{name: "missing username", req: transport.SignupRequest{Email: "a@x.com", Password: "p"}},
		{name: "missing password", req: transport.SignupRequest{Email: "a@x.com", Username: "a"}},
		{name: "blank username", req: transport.SignupRequest{Email: "a@x.com", Username: "   ", Password: "p"}},
		{name: "malformed email", req: transport.SignupRequest{Email: "not-an-email", Username: "a", Password: "p"}},
		{name: "display name email", req: transport.SignupRequest{Email: "A <a@x.com>", Username: "a", Password: "p"}},
		{name: "password too long", req: transport.SignupRequest{Email: "a@x.com", Username: "a", Password: strings.Repeat("p", 73)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)

			_, err := env.auth.Signup(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Zero(t, env.countUsers(t))
		})
	}
}

func TestSignup_Conflict(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.signup(t, "alice")

	tests := []struct {
		name string
		req  transport.SignupRequest
	}{
		{name: "same email", req: transport.SignupRequest{Email: "alice@example.com", Username: "alice2", Password: "p"}},
		{name: "same email other case", req: transport.SignupRequest{Email: "ALICE@example.com", Username: "alice3", Password: "p"}},
		{name: "same username", req: transport.SignupRequest{Email: "other@example.com", Username: "alice", Password: "p"}},
	}
	for _, tt := range tests {
		_, err := env.auth.Signup(ctx, tt.req)
		require.ErrorIs(t, err, ErrConflict, tt.name)
	}
	assert.EqualValues(t, 1, env.countUsers(t))
}

func TestSignup_ConflictFromStoreConstraint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.signup(t, "alice")

	racing := &AuthService{Store: blindStore{env.store}, Hasher: env.auth.Hasher, Tokens: env.tokens}
	_, err := racing.Signup(context.Background(), transport.SignupRequest{
		Email: "alice@example.com", Username: "alice-again", Password: "p",
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 1, env.countUsers(t))
}

func TestSignup_StoreFailureIsInternal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	svc := &AuthService{Store: brokenStore{Store: env.store, failCreateUser: true}, Hasher: env.auth.Hasher, Tokens: env.tokens}
	_, err := svc.Signup(context.Background(), transport.SignupRequest{Email: "a@x.com", Username: "a", Password: "p"})
	require.ErrorIs(t, err, ErrInternal)
	assert.False(t, errors.Is(err, errDriver))
	assert.Equal(t, "internal error", Message(err))
	assert.Zero(t, env.countUsers(t))
}

func TestSignup_PublishFailureDoesNotFail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.events.err = errors.New("broker down")

	_, err := env.auth.Signup(context.Background(), transport.SignupRequest{Email: "a@x.com", Username: "a", Password: "p"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.countUsers(t))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	res, err := env.auth.Login(ctx, transport.LoginRequest{Email: "ALICE@example.com", Password: "alice-password"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, alice, res.User)
	assert.True(t, res.ExpiresAt.Equal(env.clock.Now().Add(testTTL)))

	sub, err := env.tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, sub)

	assert.Equal(t, []string{EventUserRegistered, EventUserLoggedIn}, env.events.Types())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice")

	_, wrongPassword := env.auth.Login(ctx, transport.LoginRequest{Email: "alice@example.com", Password: "nope"})
	_, unknownEmail := env.auth.Login(ctx, transport.LoginRequest{Email: "bob@example.com", Password: "nope"})

	require.ErrorIs(t, wrongPassword, ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, ErrUnauthorized)
	assert.Equal(t, KindOf(wrongPassword), KindOf(unknownEmail))
	assert.Equal(t, Message(wrongPassword), Message(unknownEmail))
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), transport.LoginRequest{Email: "", Password: "p"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.auth.Login(context.Background(), transport.LoginRequest{Email: "a@x.com"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogin_InactiveUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	u, err := env.store.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, env.store.UpdateUser(ctx, u))

	_, err = env.auth.Login(ctx, transport.LoginRequest{Email: "alice@example.com", Password: "alice-password"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_Expiry(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	res, err := env.auth.Login(ctx, transport.LoginRequest{Email: "alice@example.com", Password: "alice-password"})
	require.NoError(t, err)

	id, err := env.auth.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	env.clock.Advance(testTTL + time.Second)
	_, err = env.auth.Authenticate(ctx, res.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.auth.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignupLoginMe_EndToEnd(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.auth.Signup(ctx, transport.SignupRequest{Email: "a@x.com", Username: "a", Password: "p1"})
	require.NoError(t, err)

	res, err := env.auth.Login(ctx, transport.LoginRequest{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	caller, err := env.auth.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, caller)

	me, err := env.users.Me(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, "a", me.Username)
	assert.Equal(t, "a@x.com", me.Email)

	raw, err := json.Marshal(me)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}
