package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/social_feed/internal/models"
)

const Issuer = "social_feed"

var (
	ErrInvalid     = errors.New("invalid token")
	ErrEmptySecret = errors.New("token secret is empty")
	ErrBadTTL      = errors.New("token ttl must be positive")
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type AccessClaims struct {
	jwt.RegisteredClaims
}

// Token is an issued access token. Value is the only part sent to clients.
type Token struct {
	Value     string
	Subject   models.UserID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and verifies HS256 access tokens with a fixed lifetime.
// There is no revocation: a token is valid until it expires.
type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

func NewManager(secret []byte, ttl time.Duration, clock Clock) (*Manager, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, ErrBadTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Manager{secret: secret, ttl: ttl, clock: clock}, nil
}

func (m *Manager) Issue(subject models.UserID) (Token, error) {
	if subject == 0 {
		return Token{}, fmt.Errorf("%w: empty subject", ErrInvalid)
	}
	now := m.clock.Now().UTC().Truncate(jwt.TimePrecision)
	exp := now.Add(m.ttl)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, Subject: subject, IssuedAt: now, ExpiresAt: exp}, nil
}

// Verify returns the subject of a well-formed, correctly signed, unexpired token.
// Every failure wraps ErrInvalid.
func (m *Manager) Verify(raw string) (models.UserID, error) {
	claims, err := m.Claims(raw)
	if err != nil {
		return 0, err
	}
	id, err := models.ParseUserID(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return id, nil
}

func (m *Manager) Claims(raw string) (*AccessClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalid)
	}

	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalid
	}
	return &claims, nil
}
