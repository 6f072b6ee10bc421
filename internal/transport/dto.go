package transport

import (
	"time"

	"github.com/Skotchmaster/social_feed/internal/models"
)

type SignupRequest struct {
	Email    string  `json:"email"    validate:"required,email,max=120"`
	Username string  `json:"username" validate:"required,notblank,max=120"`
	Password string  `json:"password" validate:"required"`
	Avatar   *string `json:"avatar"   validate:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is a partial update: nil fields are left unchanged.
// Present fields are validated one by one with the same rules as signup.
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Avatar   *string `json:"avatar"`
}

type CreatePostRequest struct {
	Content string  `json:"content" validate:"required,notblank,max=10000"`
	Image   *string `json:"image"   validate:"omitempty,max=255"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=10000"`
}

type CreateTutorialRequest struct {
	Title       string `json:"title"       validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"required,notblank,max=10000"`
	VideoURL    string `json:"video_url"   validate:"required,http_url"`
}

// UserView is the public projection of a user. It has no password field.
type UserView struct {
	ID       models.UserID `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Avatar   *string       `json:"avatar"`
}

func NewUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar}
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserView  `json:"user"`
}

type PostView struct {
	ID        uint          `json:"id"`
	UserID    models.UserID `json:"user_id"`
	Content   string        `json:"content"`
	Image     *string       `json:"image"`
	Likes     int64         `json:"likes"`
	CreatedAt time.Time     `json:"created_at"`
}

func NewPostView(p *models.Post, likes int64) PostView {
	return PostView{ID: p.ID, UserID: p.UserID, Content: p.Content, Image: p.Image, Likes: likes, CreatedAt: p.CreatedAt}
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
