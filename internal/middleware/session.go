package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportsvenue-portal/internal/portal"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
)

// CookieName identifies the browser session.
const CookieName = "portal_sid"

const workspaceKey = "workspace"

// BrowserSession resolves the portal_sid cookie to a workspace, minting a
// new id when the cookie is missing or malformed.  The workspace's session
// is bootstrapped once before the handler runs.  Once the server has
// verified the identity, the user id and role land in the context as
// "user_id" and "role"; an optimistic identity never does.
func BrowserSession(reg *portal.Registry, ttl time.Duration, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(CookieName); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					sid = id.String()
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}
			c.SetCookie(&http.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ws := reg.Get(sid)
			ws.Store.EnsureBootstrapped(c.Request().Context())
			c.Set(workspaceKey, ws)
			if st := ws.Store.Snapshot(); st.Phase == session.PhaseVerified && st.User.Valid() {
				c.Set("user_id", strconv.FormatInt(st.UserID(), 10))
				c.Set("role", st.User.Role)
			}
			return next(c)
		}
	}
}

// Workspace returns the workspace BrowserSession attached, or nil.
func Workspace(c echo.Context) *portal.Workspace {
	ws, _ := c.Get(workspaceKey).(*portal.Workspace)
	return ws
}
