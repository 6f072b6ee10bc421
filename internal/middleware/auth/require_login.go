package auth

import (
	"context"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/transport"
)

const (
	ContextUserID = "userID"
	AccessCookie  = "accessToken"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (models.UserID, error)
}

// RequireLogin accepts an access token from the Authorization header or the
// access cookie and stores the verified caller id in the echo context.
func RequireLogin(a Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + AccessCookie,
		ContextKey:  ContextUserID,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			return a.Authenticate(c.Request().Context(), raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			reason := "invalid or expired token"
			if !presented(c.Request()) {
				reason = "authentication required"
			}
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", http.StatusUnauthorized, "reason", reason, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, transport.ErrorResponse{Error: "unauthorized", Message: reason})
		},
	})
}

func presented(r *http.Request) bool {
	if r.Header.Get(echo.HeaderAuthorization) != "" {
		return true
	}
	ck, err := r.Cookie(AccessCookie)
	return err == nil && ck.Value != ""
}
