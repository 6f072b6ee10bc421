package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/social_feed/internal/service"
	"github.com/Skotchmaster/social_feed/internal/transport"
)

var statusByKind = map[string]int{
	service.KindValidation:   http.StatusBadRequest,
	service.KindConflict:     http.StatusConflict,
	service.KindUnauthorized: http.StatusUnauthorized,
	service.KindForbidden:    http.StatusForbidden,
	service.KindNotFound:     http.StatusNotFound,
	service.KindInternal:     http.StatusInternalServerError,
}

// fromService converts a service error into the HTTP error sent to the client.
func fromService(err error) *echo.HTTPError {
	kind := service.KindOf(err)
	return echo.NewHTTPError(statusByKind[kind], transport.ErrorResponse{Error: kind, Message: service.Message(err)})
}

func badRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Error: service.KindValidation, Message: msg})
}

func parseID(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, badRequest(name + " must be a positive integer")
	}
	return uint(n), nil
}
