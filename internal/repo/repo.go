package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Skotchmaster/social_feed/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const pgUniqueViolation = "23505"

type UserStore interface {
	FindUserByID(ctx context.Context, id models.UserID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id models.UserID) error
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	FindPost(ctx context.Context, id uint) (*models.Post, error)
	FindPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	PostIDsByUser(ctx context.Context, userID models.UserID) ([]uint, error)
	ListPosts(ctx context.Context, f PostFilter) ([]models.Post, int64, error)
	SearchPosts(ctx context.Context, q string, offset, limit int) ([]models.Post, int64, error)
	DeletePost(ctx context.Context, id uint) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	FindComment(ctx context.Context, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error)
	DeleteComment(ctx context.Context, id uint) error
}

type LikeStore interface {
	CreateLike(ctx context.Context, l *models.Like) error
	DeleteLike(ctx context.Context, userID models.UserID, postID uint) error
	CountLikes(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

type TutorialStore interface {
	CreateTutorial(ctx context.Context, t *models.Tutorial) error
	FindTutorial(ctx context.Context, id uint) (*models.Tutorial, error)
	ListTutorials(ctx context.Context, offset, limit int) ([]models.Tutorial, int64, error)
	DeleteTutorial(ctx context.Context, id uint) error
}

type NewsStore interface {
	ListNews(ctx context.Context, offset, limit int) ([]models.News, int64, error)
}

// Store is the persistence capability the services depend on. Tx runs fn
// against a Store bound to one transaction; fn must use only that Store.
type Store interface {
	UserStore
	PostStore
	CommentStore
	LikeStore
	TutorialStore
	NewsStore

	Ping(ctx context.Context) error
	Tx(ctx context.Context, fn func(Store) error) error
}

type GormRepo struct {
	DB *gorm.DB
}

var _ Store = (*GormRepo)(nil)

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) Tx(ctx context.Context, fn func(Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// translate maps driver and gorm errors onto ErrNotFound and ErrDuplicate.
// Anything else is returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
