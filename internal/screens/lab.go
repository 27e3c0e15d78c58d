package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerLab mounts the lab technician screens: the test catalog with
// results and the derived test-price total.
func (s *Screens) registerLab(e *echo.Echo) {
	res := resource{
		name:     "test",
		path:     "/lab/tests",
		endpoint: "/api/tests",
		display:  "testName",
		schema: formview.Schema{
			Endpoint: "/api/tests",
			IDField:  "id",
			Fields: []formview.Field{
				{Name: "testName", Required: true},
				{Name: "patientName", Required: true},
				{Name: "testPrice"},
				{Name: "result"},
			},
			Totals: []formview.Total{
				{Name: "totalTestPrice", Contributors: []string{"testPrice"}},
			},
		},
	}
	s.registerResource(e, res, session.RoleLab)

	sources := map[string]string{
		"tests": "/api/tests",
	}
	metrics := []dashboard.Metric{
		{Name: "totalTests", Collection: "tests", Kind: dashboard.Count},
		{Name: "pendingTests", Collection: "tests", Kind: dashboard.CountWhere, Field: "status", Equals: "pending"},
		{Name: "testRevenue", Collection: "tests", Kind: dashboard.Sum, Field: "testPrice"},
	}
	buckets := []bucketSpec{
		{Name: "testsByDay", Collection: "tests", DateField: "date"},
	}
	e.GET("/lab", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RoleLab))
}
