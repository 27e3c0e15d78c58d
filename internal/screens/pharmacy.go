package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerPharmacy mounts the pharmacist screens: the drug inventory and
// the physical stock count.
func (s *Screens) registerPharmacy(e *echo.Echo) {
	resources := []resource{
		{
			name:     "drug",
			path:     "/pharmacy/drugs",
			endpoint: "/api/drugs",
			display:  "name",
			schema: formview.Schema{
				Endpoint: "/api/drugs",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "name", Required: true},
					{Name: "price", Required: true},
					{Name: "quantity", Required: true},
					{Name: "expiryDate"},
				},
			},
		},
		{
			name:     "physical count",
			path:     "/pharmacy/physical-count",
			endpoint: "/api/physical-counts",
			display:  "drugName",
			schema: formview.Schema{
				Endpoint: "/api/physical-counts",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "drugName", Required: true},
					{Name: "countedQuantity", Required: true},
					{Name: "countDate", Required: true},
				},
			},
		},
	}
	for _, res := range resources {
		s.registerResource(e, res, session.RolePharmacist)
	}

	sources := map[string]string{
		"drugs":  "/api/drugs",
		"counts": "/api/physical-counts",
	}
	metrics := []dashboard.Metric{
		{Name: "stockedDrugs", Collection: "drugs", Kind: dashboard.Count},
		{Name: "stockValue", Collection: "drugs", Kind: dashboard.Sum, Field: "price"},
		{Name: "countsRecorded", Collection: "counts", Kind: dashboard.Count},
	}
	buckets := []bucketSpec{
		{Name: "countsByDay", Collection: "counts", DateField: "countDate"},
	}
	e.GET("/pharmacy", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RolePharmacist))
}
