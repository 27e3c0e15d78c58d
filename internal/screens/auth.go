package screens

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerPublic mounts the routes reachable without a session.
func (s *Screens) registerPublic(e *echo.Echo) {
	e.GET("/", s.home)
	e.POST("/login", s.login)
	e.POST("/register", s.register)
	e.POST("/logout", s.logout)
	e.GET("/unauthorized", s.unauthorized)
	e.GET("/menu", s.menu, guard.Middleware(s.sessions, session.AllRoles...))
}

// home is the public landing payload for the marketing shell.
func (s *Screens) home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":   "CareView Portal",
		"status": "ok",
		"links":  []string{"/login", "/register"},
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login proxies the credentials upstream, and on success creates the
// session and hands the browser its cookie plus the role's landing path.
func (s *Screens) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	body, err := s.api.Post(c.Request().Context(), "/api/login", req)
	if err != nil {
		return s.fail(c, nil, err)
	}

	var upstream struct {
		Token    string `json:"token"`
		Role     string `json:"role"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &upstream); err != nil || upstream.Token == "" {
		return echo.NewHTTPError(http.StatusBadGateway, "malformed login response")
	}
	if upstream.Username == "" {
		upstream.Username = req.Username
	}

	cookie, sess, err := s.sessions.Login(c.Request().Context(), upstream.Token, upstream.Role, upstream.Username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", upstream.Username).Msg("login rejected")
		return echo.NewHTTPError(http.StatusBadGateway, "upstream returned an unknown role")
	}

	setSessionCookie(c, cookie, sess.ExpiresAt)
	return c.JSON(http.StatusOK, map[string]any{
		"message":  "login successful",
		"role":     sess.Role,
		"username": sess.Username,
		"redirect": landingPath(sess.Role),
	})
}

// landingPath is the role's dashboard: the first entry of its menu, so the
// capability table stays the only source of truth.
func landingPath(role session.Role) string {
	entries := guard.Menu(role)
	if len(entries) == 0 {
		return "/unauthorized"
	}
	return entries[0].Path
}

// register proxies a self-registration to the upstream unchanged.
func (s *Screens) register(c echo.Context) error {
	var values map[string]any
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	body, err := s.api.Post(c.Request().Context(), "/api/register", values)
	if err != nil {
		return s.fail(c, nil, err)
	}
	return c.JSONBlob(http.StatusCreated, body)
}

// logout destroys the session and the cookie together.
func (s *Screens) logout(c echo.Context) error {
	if cookie, err := c.Cookie(session.CookieName); err == nil {
		if err := s.sessions.Logout(c.Request().Context(), cookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// unauthorized is the explicit dead-end for a role that does not match the
// requested route.
func (s *Screens) unauthorized(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{
		"message": "your role is not permitted to view this page",
	})
}

// menu returns the signed-in role's navigation entries.
func (s *Screens) menu(c echo.Context) error {
	sess := guard.FromContext(c)
	return c.JSON(http.StatusOK, map[string]any{
		"role":    sess.Role,
		"entries": guard.Menu(sess.Role),
	})
}
