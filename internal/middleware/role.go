package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/session"
)

// RequireRole lets the request through only when the session user holds
// one of roles.  Anonymous browsers are sent to the login page, a session
// still being verified gets 503, and a signed-in user without the role
// gets 403 with a redirect home.  It runs after BrowserSession, which
// stores the verified role under "role".
func RequireRole(deniedMsg string, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok {
				if ws := Workspace(c); ws != nil && ws.Store.Snapshot().Loading() {
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session is still being verified"})
				}
				to := session.LoginPath(c.Request().URL.Path)
				c.Response().Header().Set(echo.HeaderLocation, to)
				return c.JSON(http.StatusSeeOther, echo.Map{"error": "login required", "redirect": to})
			}
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": deniedMsg, "redirect": "/"})
			}
			return next(c)
		}
	}
}
