package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/social_feed/internal/models"
)

func (r *GormRepo) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id models.UserID) (*models.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username = ?", username)
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

// UpdateUser writes every mutable column of u, zero values included.
func (r *GormRepo) UpdateUser(ctx context.Context, u *models.User) error {
	res := r.DB.WithContext(ctx).
		Model(u).
		Select("username", "email", "password_hash", "avatar", "is_active").
		Updates(u)
	return affected(res)
}

// DeleteUser removes the user together with everything the user owns and
// everything attached to the user's posts.
func (r *GormRepo) DeleteUser(ctx context.Context, id models.UserID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := func() *gorm.DB {
			return tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
		}

		if err := tx.Where("user_id = ? OR post_id IN (?)", id, ownPosts()).Delete(&models.Like{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("user_id = ? OR post_id IN (?)", id, ownPosts()).Delete(&models.Comment{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Tutorial{}).Error; err != nil {
			return translate(err)
		}

		return affected(tx.Delete(&models.User{}, "id = ?", id))
	})
}
