package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/social_feed/internal/models"
)

type PostFilter struct {
	UserID models.UserID
	Offset int
	Limit  int
}

const newestFirst = "created_at DESC, id DESC"

func (r *GormRepo) CreatePost(ctx context.Context, p *models.Post) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

func (r *GormRepo) FindPost(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindPostsByIDs returns the existing posts among ids in no particular order.
func (r *GormRepo) FindPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []models.Post
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (r *GormRepo) PostIDsByUser(ctx context.Context, userID models.UserID) ([]uint, error) {
	var ids []uint
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (r *GormRepo) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Post{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	return page[models.Post](q, f.Offset, f.Limit)
}

// SearchPosts is a case-insensitive substring match on post content.
func (r *GormRepo) SearchPosts(ctx context.Context, query string, offset, limit int) ([]models.Post, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := r.DB.WithContext(ctx).
		Model(&models.Post{}).
		Where("LOWER(content) LIKE ? ESCAPE '\\'", pattern)
	return page[models.Post](q, offset, limit)
}

// DeletePost removes the post with its comments and likes.
func (r *GormRepo) DeletePost(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return translate(err)
		}
		return affected(tx.Delete(&models.Post{}, "id = ?", id))
	})
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// page counts the rows matched by q and loads one page of them, newest first.
func page[T any](q *gorm.DB, offset, limit int) ([]T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	items := make([]T, 0, limit)
	if total == 0 {
		return items, 0, nil
	}
	if err := q.Session(&gorm.Session{}).Order(newestFirst).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}
