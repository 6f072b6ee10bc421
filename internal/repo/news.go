package repo

import (
	"context"

	"github.com/Skotchmaster/social_feed/internal/models"
)

// ListNews orders by publication date; unpublished items come last.
func (r *GormRepo) ListNews(ctx context.Context, offset, limit int) ([]models.News, int64, error) {
	var total int64
	q := r.DB.WithContext(ctx).Model(&models.News{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	items := make([]models.News, 0, limit)
	if err := r.DB.WithContext(ctx).
		Order("published_at IS NULL, published_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}
