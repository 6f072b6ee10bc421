package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// UserID is the canonical representation of an identity id. Token subjects,
// path parameters and owner columns are all converted to it before comparison.
// Valid ids are 1..MaxUserID so they fit a signed bigint column.
type UserID uint64

const MaxUserID = UserID(math.MaxInt64)

var ErrInvalidUserID = errors.New("invalid user id")

func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 63)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, s)
	}
	return UserID(n), nil
}

func (id UserID) String() string { return strconv.FormatUint(uint64(id), 10) }

func (id UserID) Value() (driver.Value, error) {
	if id > MaxUserID {
		return nil, fmt.Errorf("%w: %d out of range", ErrInvalidUserID, uint64(id))
	}
	return int64(id), nil
}

func (id *UserID) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*id = UserID(v)
	case uint64:
		*id = UserID(v)
	case []byte:
		n, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return err
		}
		*id = UserID(n)
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		*id = UserID(n)
	case nil:
		*id = 0
	default:
		return fmt.Errorf("cannot scan %T into UserID", src)
	}
	return nil
}

type User struct {
	ID           UserID    `gorm:"primaryKey;autoIncrement"       json:"id"`
	Username     string    `gorm:"size:120;uniqueIndex;not null"  json:"username"`
	Email        string    `gorm:"size:120;uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Avatar       *string   `gorm:"size:255"                       json:"avatar"`
	IsActive     bool      `gorm:"not null"                       json:"is_active"`
	CreatedAt    time.Time `                                      json:"created_at"`
}

type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID    UserID    `gorm:"index;not null"            json:"user_id"`
	Content   string    `gorm:"type:text;not null"        json:"content"`
	Image     *string   `gorm:"size:255"                  json:"image"`
	CreatedAt time.Time `gorm:"index"                     json:"created_at"`
}

func (p *Post) OwnerID() UserID { return p.UserID }

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	PostID    uint      `gorm:"index;not null"            json:"post_id"`
	UserID    UserID    `gorm:"index;not null"            json:"user_id"`
	Content   string    `gorm:"type:text;not null"        json:"content"`
	CreatedAt time.Time `                                 json:"created_at"`
}

func (c *Comment) OwnerID() UserID { return c.UserID }

type Like struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"                 json:"id"`
	UserID UserID `gorm:"uniqueIndex:idx_likes_user_post;not null" json:"user_id"`
	PostID uint   `gorm:"uniqueIndex:idx_likes_user_post;not null;index" json:"post_id"`
}

type News struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title       string     `gorm:"size:255;not null"         json:"title"`
	ImageURL    string     `gorm:"size:255;not null"         json:"image_url"`
	PublishedAt *time.Time `gorm:"index"                     json:"published_at"`
}

func (News) TableName() string { return "news" }

type Tutorial struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID      UserID    `gorm:"index;not null"            json:"user_id"`
	Title       string    `gorm:"size:255;not null"         json:"title"`
	Description string    `gorm:"type:text;not null"        json:"description"`
	VideoURL    string    `gorm:"not null"                  json:"video_url"`
	CreatedAt   time.Time `gorm:"not null"                  json:"created_at"`
}

func (t *Tutorial) OwnerID() UserID { return t.UserID }

// All lists every table managed by the service, in migration order.
func All() []any {
	return []any{&User{}, &Post{}, &Comment{}, &Like{}, &News{}, &Tutorial{}}
}
