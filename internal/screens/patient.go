package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerPatient mounts the patient's own screens: their bill history
// (read-mostly) and the feedback form.
func (s *Screens) registerPatient(e *echo.Echo) {
	resources := []resource{
		{
			name:     "bill",
			path:     "/patient/bills",
			endpoint: "/api/patient/bills",
			display:  "date",
			schema: formview.Schema{
				Endpoint: "/api/patient/bills",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "date", Required: true},
				},
			},
		},
		{
			name:     "feedback",
			path:     "/patient/feedback",
			endpoint: "/api/feedback",
			display:  "message",
			schema: formview.Schema{
				Endpoint: "/api/feedback",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "message", Required: true},
					{Name: "rating"},
				},
			},
		},
	}
	for _, res := range resources {
		s.registerResource(e, res, session.RolePatient)
	}

	sources := map[string]string{
		"bills": "/api/patient/bills",
	}
	metrics := []dashboard.Metric{
		{Name: "totalBills", Collection: "bills", Kind: dashboard.Count},
		{Name: "amountOwed", Collection: "bills", Kind: dashboard.Sum, Field: "total"},
		{Name: "unpaidBills", Collection: "bills", Kind: dashboard.CountWhere, Field: "status", Equals: "unpaid"},
	}
	buckets := []bucketSpec{
		{Name: "billsByMonth", Collection: "bills", DateField: "date", ByMonth: true},
	}
	e.GET("/patient", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RolePatient))
}
