package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgBcrypt   = "bcrypt"
	AlgArgon2id = "argon2id"

	bcryptMaxLen = 72
)

var (
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrUnknownAlgorithm = errors.New("unknown password hash algorithm")
)

// Hasher is a one-way, salted password hash.
// Verify never fails loudly: a malformed hash simply does not match.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(password string) (string, error) {
	if len(password) > bcryptMaxLen {
		return "", ErrPasswordTooLong
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (b Bcrypt) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Argon2id encodes hashes as $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
type Argon2id struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

func DefaultArgon2id() Argon2id {
	return Argon2id{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

func (a Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, a.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, a.Time, a.Memory, a.Threads, a.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.Memory, a.Time, a.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a Argon2id) Verify(password, hash string) bool {
	sections := strings.Split(hash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(sections) != 6 || sections[0] != "" || sections[1] != AlgArgon2id {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(sections[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(sections[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	// bounds keep a forged hash from making us allocate gigabytes
	if m == 0 || m > 1<<20 || t == 0 || t > 16 || p == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(sections[5])
	if err != nil || len(expected) < 16 || len(expected) > 128 {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(expected)))
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// Multi hashes new passwords with Primary and verifies hashes of any known
// format, so switching PASSWORD_HASHER does not lock out existing users.
type Multi struct {
	Primary  Hasher
	Bcrypt   Bcrypt
	Argon2id Argon2id
}

func New(algorithm string) (*Multi, error) {
	m := &Multi{Bcrypt: Bcrypt{Cost: bcrypt.DefaultCost}, Argon2id: DefaultArgon2id()}
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgBcrypt:
		m.Primary = m.Bcrypt
	case AlgArgon2id:
		m.Primary = m.Argon2id
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return m, nil
}

func (m *Multi) Hash(password string) (string, error) {
	return m.Primary.Hash(password)
}

func (m *Multi) Verify(password, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return m.Argon2id.Verify(password, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.Bcrypt.Verify(password, hash)
	default:
		return false
	}
}
