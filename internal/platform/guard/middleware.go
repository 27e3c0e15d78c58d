package guard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/session"
)

const contextKey = "careview_session"

// Middleware resolves the session cookie and enforces the route's required
// roles. A missing session redirects to login, a wrong role to the
// unauthorized page; on success the session is stashed in the echo context
// for the handler.
func Middleware(mgr *session.Manager, required ...session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sess *session.Session
			if cookie, err := c.Cookie(session.CookieName); err == nil {
				s, err := mgr.Current(c.Request().Context(), cookie.Value)
				if err == nil {
					sess = s
				}
			}

			switch Authorize(sess, required) {
			case RedirectLogin:
				return c.Redirect(http.StatusFound, "/login")
			case RedirectUnauthorized:
				return c.Redirect(http.StatusFound, "/unauthorized")
			}

			c.Set(contextKey, sess)
			return next(c)
		}
	}
}

// FromContext returns the session stashed by Middleware, or nil on public
// routes.
func FromContext(c echo.Context) *session.Session {
	sess, _ := c.Get(contextKey).(*session.Session)
	return sess
}
