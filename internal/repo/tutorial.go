package repo

import (
	"context"

	"github.com/Skotchmaster/social_feed/internal/models"
)

func (r *GormRepo) CreateTutorial(ctx context.Context, t *models.Tutorial) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) FindTutorial(ctx context.Context, id uint) (*models.Tutorial, error) {
	var t models.Tutorial
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormRepo) ListTutorials(ctx context.Context, offset, limit int) ([]models.Tutorial, int64, error) {
	return page[models.Tutorial](r.DB.WithContext(ctx).Model(&models.Tutorial{}), offset, limit)
}

func (r *GormRepo) DeleteTutorial(ctx context.Context, id uint) error {
	return affected(r.DB.WithContext(ctx).Delete(&models.Tutorial{}, "id = ?", id))
}
