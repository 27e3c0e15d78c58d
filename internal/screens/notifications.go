package screens

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/notify"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerNotifications mounts the bell-menu endpoints and the websocket
// stream. All of them require a session of any role; the hub scopes pushes
// to the session's role by itself.
func (s *Screens) registerNotifications(e *echo.Echo, ws *notify.Handler) {
	mw := guard.Middleware(s.sessions, session.AllRoles...)

	e.GET("/notifications", s.listNotifications, mw)
	e.GET("/notifications/unread-count", s.unreadCount, mw)
	e.POST("/notifications/:id/read", s.markRead, mw)
	if ws != nil {
		e.GET("/ws", ws.Connect, mw)
	}
}

// listNotifications returns the feed, newest first, filtered to alerts the
// session's role should see (role-tagged or untargeted).
func (s *Screens) listNotifications(c echo.Context) error {
	sess := guard.FromContext(c)

	var visible []notify.Notification
	for _, n := range s.feed.All() {
		if n.Role == "" || matchesRole(n.Role, sess.Role) {
			visible = append(visible, n)
		}
	}
	if visible == nil {
		visible = []notify.Notification{}
	}
	return c.JSON(http.StatusOK, visible)
}

func (s *Screens) unreadCount(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"unread": s.feed.UnreadCount()})
}

// markRead flips the notification locally and confirms upstream. A failed
// confirmation still reports success to the browser: the local flip is
// deliberate and already logged (see notify.Feed.MarkRead).
func (s *Screens) markRead(c echo.Context) error {
	id := c.Param("id")

	if err := s.feed.MarkRead(c.Request().Context(), id); err != nil {
		// A failed upstream ack still flipped the local state; only an
		// unknown id is a client-visible failure.
		if s.feedHas(id) {
			return c.JSON(http.StatusOK, map[string]string{"message": "marked read"})
		}
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "marked read"})
}

func (s *Screens) feedHas(id string) bool {
	for _, n := range s.feed.All() {
		if n.ID == id {
			return true
		}
	}
	return false
}

func matchesRole(tag string, role session.Role) bool {
	parsed, err := session.ParseRole(tag)
	return err == nil && parsed == role
}
