package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerRCH mounts the reproductive and child health clinic screens:
// clinic visits and the vaccination register.
func (s *Screens) registerRCH(e *echo.Echo) {
	resources := []resource{
		{
			name:     "visit",
			path:     "/rch/visits",
			endpoint: "/api/rch/visits",
			display:  "motherName",
			schema: formview.Schema{
				Endpoint: "/api/rch/visits",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "motherName", Required: true},
					{Name: "childName"},
					{Name: "visitDate", Required: true},
					{Name: "notes"},
				},
			},
		},
		{
			name:     "vaccination",
			path:     "/rch/vaccinations",
			endpoint: "/api/rch/vaccinations",
			display:  "childName",
			schema: formview.Schema{
				Endpoint: "/api/rch/vaccinations",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "childName", Required: true},
					{Name: "vaccine", Required: true},
					{Name: "givenDate", Required: true},
				},
			},
		},
	}
	for _, res := range resources {
		s.registerResource(e, res, session.RoleRCH)
	}

	sources := map[string]string{
		"visits":       "/api/rch/visits",
		"vaccinations": "/api/rch/vaccinations",
	}
	metrics := []dashboard.Metric{
		{Name: "clinicVisits", Collection: "visits", Kind: dashboard.Count},
		{Name: "vaccinationsGiven", Collection: "vaccinations", Kind: dashboard.Count},
	}
	buckets := []bucketSpec{
		{Name: "visitsByMonth", Collection: "visits", DateField: "visitDate", ByMonth: true},
		{Name: "vaccinationsByMonth", Collection: "vaccinations", DateField: "givenDate", ByMonth: true},
	}
	e.GET("/rch", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RoleRCH))
}
