// Package authz decides whether a caller may modify a resource.
//
// Caller ids arrive as token subjects (strings), owner ids come from integer
// columns, and JSON decoding produces float64. Every comparison goes through
// Canonical so that all of them meet as models.UserID.
package authz

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/Skotchmaster/social_feed/internal/models"
)

var (
	ErrNoIdentity = errors.New("no caller identity")
	ErrNoResource = errors.New("resource does not exist")
	ErrNotOwner   = errors.New("caller is not the resource owner")
)

// Owned is implemented by resources that record the identity that created them.
type Owned interface {
	OwnerID() models.UserID
}

// Canonical converts a supported identity representation to models.UserID.
// Zero, negative, fractional and unparsable values are rejected.
func Canonical(v any) (models.UserID, error) {
	switch id := v.(type) {
	case nil:
		return 0, models.ErrInvalidUserID
	case models.UserID:
		return positive(uint64(id))
	case *models.UserID:
		if id == nil {
			return 0, models.ErrInvalidUserID
		}
		return positive(uint64(*id))
	case uint:
		return positive(uint64(id))
	case uint32:
		return positive(uint64(id))
	case uint64:
		return positive(id)
	case int:
		return signed(int64(id))
	case int32:
		return signed(int64(id))
	case int64:
		return signed(id)
	case float64:
		if id != math.Trunc(id) || id <= 0 || id >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", models.ErrInvalidUserID, id)
		}
		return models.UserID(id), nil
	case json.Number:
		return models.ParseUserID(id.String())
	case string:
		return models.ParseUserID(id)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", models.ErrInvalidUserID, v)
	}
}

func positive(n uint64) (models.UserID, error) {
	if n == 0 || n > uint64(models.MaxUserID) {
		return 0, fmt.Errorf("%w: %d", models.ErrInvalidUserID, n)
	}
	return models.UserID(n), nil
}

func signed(n int64) (models.UserID, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", models.ErrInvalidUserID, n)
	}
	return models.UserID(n), nil
}

// CanModify reports whether caller and owner denote the same identity.
func CanModify(caller, owner any) bool {
	c, err := Canonical(caller)
	if err != nil {
		return false
	}
	o, err := Canonical(owner)
	if err != nil {
		return false
	}
	return c == o
}

// Authorize applies deny-by-default ownership. The returned error tells the
// caller why access was refused: ErrNoIdentity, ErrNoResource or ErrNotOwner.
func Authorize(caller any, resource Owned) error {
	c, err := Canonical(caller)
	if err != nil {
		return ErrNoIdentity
	}
	if isNil(resource) {
		return ErrNoResource
	}
	o, err := Canonical(resource.OwnerID())
	if err != nil || c != o {
		return ErrNotOwner
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
