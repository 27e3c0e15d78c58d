// Package screens wires the generic list and form controllers to concrete
// role-gated routes. Each screen is a thin declaration: an upstream
// endpoint, a display field for the search box, and a form schema; the
// controllers do the rest.
package screens

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/listview"
	"github.com/careview/careview/internal/notify"
	"github.com/careview/careview/internal/platform/apiclient"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/record"
	"github.com/careview/careview/internal/session"
)

// Screens owns every portal route.
type Screens struct {
	api      *apiclient.Client
	sessions *session.Manager
	feed     *notify.Feed
	pageSize int
	logger   zerolog.Logger
}

// New creates the route set.
func New(api *apiclient.Client, sessions *session.Manager, feed *notify.Feed, pageSize int, logger zerolog.Logger) *Screens {
	return &Screens{api: api, sessions: sessions, feed: feed, pageSize: pageSize, logger: logger}
}

// Register mounts every screen on the echo instance.
func (s *Screens) Register(e *echo.Echo, ws *notify.Handler) {
	s.registerPublic(e)
	s.registerNotifications(e, ws)
	s.registerAdmin(e)
	s.registerDoctor(e)
	s.registerReception(e)
	s.registerPharmacy(e)
	s.registerLab(e)
	s.registerCashier(e)
	s.registerPatient(e)
	s.registerRCH(e)

	// Unknown paths land on the public home page.
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/")
	})
}

// resource declares one CRUD screen.
type resource struct {
	name     string
	path     string // portal route, must match the guard capability table
	endpoint string // upstream collection endpoint
	display  string // search field
	schema   formview.Schema
}

// registerResource mounts list/create/update/delete for one screen.
func (s *Screens) registerResource(e *echo.Echo, res resource, roles ...session.Role) {
	mw := guard.Middleware(s.sessions, roles...)
	e.GET(res.path, s.listHandler(res), mw)
	e.POST(res.path, s.createHandler(res), mw)
	e.PUT(res.path+"/:id", s.updateHandler(res), mw)
	e.DELETE(res.path+"/:id", s.deleteHandler(res), mw)
}

// listHandler drives a fresh list controller from the request's query
// parameters: q, sort, order, size, page. The browser keeps its view state
// in the URL; the controller enforces the clamp/reset semantics.
func (s *Screens) listHandler(res resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := guard.FromContext(c)
		ctrl := listview.New(s.api.WithToken(sess.Token), res.endpoint, res.display, s.pageSize)
		if err := ctrl.Load(c.Request().Context()); err != nil {
			return s.fail(c, sess, err)
		}

		if q := c.QueryParam("q"); q != "" {
			ctrl.SetSearchTerm(q)
		}
		if field := c.QueryParam("sort"); field != "" {
			ctrl.SetSort(field)
			if c.QueryParam("order") == "desc" {
				ctrl.SetSort(field) // second select on the same field flips direction
			}
		}
		if n, err := strconv.Atoi(c.QueryParam("size")); err == nil {
			ctrl.SetPageSize(n)
		}
		if n, err := strconv.Atoi(c.QueryParam("page")); err == nil {
			ctrl.SetPage(n)
		}

		return c.JSON(http.StatusOK, ctrl.Snapshot())
	}
}

func (s *Screens) createHandler(res resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		return s.submit(c, res, formview.ModeCreate, "")
	}
}

func (s *Screens) updateHandler(res resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		return s.submit(c, res, formview.ModeEdit, c.Param("id"))
	}
}

func (s *Screens) submit(c echo.Context, res resource, mode formview.Mode, id string) error {
	sess := guard.FromContext(c)

	var values map[string]any
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	form := formview.New(s.api.WithToken(sess.Token), res.schema)
	if mode == formview.ModeEdit {
		form.Open(mode, record.Record{"id": id})
	} else {
		form.Open(mode, nil)
	}
	for k, v := range values {
		form.SetField(k, v)
	}

	if err := form.Submit(c.Request().Context()); err != nil {
		if errors.Is(err, formview.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"message": "validation failed",
				"errors":  form.Draft().Errors,
			})
		}
		return s.fail(c, sess, err)
	}

	status := http.StatusCreated
	if mode == formview.ModeEdit {
		status = http.StatusOK
	}
	return c.JSON(status, map[string]string{"message": res.name + " saved"})
}

func (s *Screens) deleteHandler(res resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := guard.FromContext(c)
		if err := s.api.WithToken(sess.Token).Delete(c.Request().Context(), res.endpoint+"/"+c.Param("id")); err != nil {
			return s.fail(c, sess, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": res.name + " deleted"})
	}
}

// bucketSpec declares one date-bucketed chart series.
type bucketSpec struct {
	Name       string
	Collection string
	DateField  string
	ByMonth    bool
}

// dashboardHandler fetches the named collections and reduces them to the
// role's summary numbers and chart series.
func (s *Screens) dashboardHandler(sources map[string]string, metrics []dashboard.Metric, buckets []bucketSpec) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := guard.FromContext(c)
		api := s.api.WithToken(sess.Token)

		collections := make(map[string][]record.Record, len(sources))
		for name, endpoint := range sources {
			rows, err := api.GetList(c.Request().Context(), endpoint)
			if err != nil {
				return s.fail(c, sess, err)
			}
			collections[name] = rows
		}

		charts := make(map[string]map[string]int, len(buckets))
		for _, b := range buckets {
			if b.ByMonth {
				charts[b.Name] = dashboard.BucketByMonth(collections[b.Collection], b.DateField)
			} else {
				charts[b.Name] = dashboard.BucketByDay(collections[b.Collection], b.DateField)
			}
		}

		return c.JSON(http.StatusOK, map[string]any{
			"role":    sess.Role,
			"metrics": dashboard.Summarize(collections, metrics),
			"charts":  charts,
		})
	}
}

// fail renders an upstream failure. A 401 means the token died under us:
// the session is cleared and the browser sent back to login; everything
// else surfaces the server's message at its own status, with network
// failures mapped to 502.
func (s *Screens) fail(c echo.Context, sess *session.Session, err error) error {
	apiErr := apiclient.AsError(err)
	if apiErr.Status == http.StatusUnauthorized {
		if sess != nil {
			_ = s.sessions.Invalidate(c.Request().Context(), sess.ID)
		}
		clearSessionCookie(c)
		return c.Redirect(http.StatusFound, "/login")
	}

	status := apiErr.Status
	if apiErr.IsNetwork() {
		status = http.StatusBadGateway
	}
	return c.JSON(status, map[string]string{"message": apiErr.Message})
}

func setSessionCookie(c echo.Context, value string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
