package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/social_feed/internal/logging"
	mwauth "github.com/Skotchmaster/social_feed/internal/middleware/auth"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/service"
	"github.com/Skotchmaster/social_feed/internal/transport"
	"github.com/Skotchmaster/social_feed/internal/util"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Posts     *service.PostService
	Tutorials *service.TutorialService
	News      *service.NewsService
	DB        Pinger

	SecureCookies bool
}

func caller(c echo.Context) (models.UserID, error) {
	id, ok := mwauth.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, transport.ErrorResponse{Error: service.KindUnauthorized, Message: "authentication required"})
	}
	return id, nil
}

func pageParams(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1), util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
}

func (h *Handlers) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *Handlers) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("readiness_failed", "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	user, err := h.Auth.Signup(ctx, req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handlers) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	res, err := h.Auth.Login(ctx, req)
	if err != nil {
		return fromService(err)
	}

	c.SetCookie(mwauth.CreateCookie(mwauth.AccessCookie, res.AccessToken, "/", res.ExpiresAt, h.SecureCookies))
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, res)
}

// Logout only clears the cookie. Issued tokens stay valid until they expire.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(mwauth.DeleteCookie(mwauth.AccessCookie, "/", h.SecureCookies))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *Handlers) Me(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.Users.Me(c.Request().Context(), id)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, user)
}

// warnPathID logs requests whose path id names someone other than the caller.
// The token subject is what gets modified either way.
func warnPathID(c echo.Context, id models.UserID) {
	raw := c.Param("id")
	if raw == "" || raw == id.String() {
		return
	}
	logging.FromContext(c.Request().Context()).Warn("path_id_ignored", "path_id", raw, "user_id", id)
}

func (h *Handlers) UpdateMe(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	warnPathID(c, id)

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	user, err := h.Users.Update(c.Request().Context(), id, req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handlers) DeleteMe(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	warnPathID(c, id)

	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return fromService(err)
	}
	c.SetCookie(mwauth.DeleteCookie(mwauth.AccessCookie, "/", h.SecureCookies))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) ListPosts(c echo.Context) error {
	var author models.UserID
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := models.ParseUserID(raw)
		if err != nil {
			return badRequest("user_id must be a positive integer")
		}
		author = id
	}
	page, size := pageParams(c)

	res, err := h.Posts.ListPosts(c.Request().Context(), author, page, size)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handlers) SearchPosts(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Posts.SearchPosts(c.Request().Context(), c.QueryParam("q"), page, size)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handlers) GetPost(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.Posts.GetPost(c.Request().Context(), id)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, post)
}

func (h *Handlers) CreatePost(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	post, err := h.Posts.CreatePost(c.Request().Context(), uid, req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, post)
}

func (h *Handlers) DeletePost(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Posts.DeletePost(c.Request().Context(), uid, id); err != nil {
		return fromService(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) ListComments(c echo.Context) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, size := pageParams(c)
	res, err := h.Posts.ListComments(c.Request().Context(), postID, page, size)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handlers) CreateComment(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req transport.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	comment, err := h.Posts.CreateComment(c.Request().Context(), uid, postID, req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *Handlers) DeleteComment(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Posts.DeleteComment(c.Request().Context(), uid, id); err != nil {
		return fromService(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) Like(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.Posts.Like(c.Request().Context(), uid, postID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"post_id": postID, "likes": n})
}

func (h *Handlers) Unlike(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.Posts.Unlike(c.Request().Context(), uid, postID)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "likes": n})
}

func (h *Handlers) ListTutorials(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Tutorials.List(c.Request().Context(), page, size)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handlers) CreateTutorial(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.CreateTutorialRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	t, err := h.Tutorials.Create(c.Request().Context(), uid, req)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handlers) DeleteTutorial(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Tutorials.Delete(c.Request().Context(), uid, id); err != nil {
		return fromService(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) ListNews(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.News.List(c.Request().Context(), page, size)
	if err != nil {
		return fromService(err)
	}
	return c.JSON(http.StatusOK, res)
}
