package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colisapp/shipping-core/internal/api/middleware"
)

// userID returns the authenticated caller's id, or "" for anonymous requests.
func userID(c echo.Context) string {
	id, _ := c.Get(middleware.ContextUserID).(string)
	return id
}

// requireUser is the fast-fail check for routes behind Auth: the subject's
// presence proves the middleware ran.
func requireUser(c echo.Context) (string, error) {
	id := userID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
