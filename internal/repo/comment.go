package repo

import (
	"context"

	"github.com/Skotchmaster/social_feed/internal/models"
)

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *GormRepo) FindComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormRepo) ListComments(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)
	return page[models.Comment](q, offset, limit)
}

func (r *GormRepo) DeleteComment(ctx context.Context, id uint) error {
	return affected(r.DB.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id))
}
