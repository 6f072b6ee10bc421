package repo

import (
	"context"

	"github.com/Skotchmaster/social_feed/internal/models"
)

func (r *GormRepo) CreateLike(ctx context.Context, l *models.Like) error {
	return translate(r.DB.WithContext(ctx).Create(l).Error)
}

func (r *GormRepo) DeleteLike(ctx context.Context, userID models.UserID, postID uint) error {
	return affected(r.DB.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}))
}

// CountLikes returns the number of likes per post. Posts without likes are absent.
func (r *GormRepo) CountLikes(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uint
		N      int64
	}
	if err := r.DB.WithContext(ctx).
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}
