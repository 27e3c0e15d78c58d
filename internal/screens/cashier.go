package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerCashier mounts the billing screens. The bill form derives its
// grand total from the consultation fee plus the test and drug components,
// so editing any component reprices the bill before it is ever submitted.
func (s *Screens) registerCashier(e *echo.Echo) {
	res := resource{
		name:     "bill",
		path:     "/cashier/bills",
		endpoint: "/api/bills",
		display:  "patientName",
		schema: formview.Schema{
			Endpoint: "/api/bills",
			IDField:  "id",
			Fields: []formview.Field{
				{Name: "patientName", Required: true},
				{Name: "ConsultationFee", Required: true},
				{Name: "totalTestPrice"},
				{Name: "totalDrugPrice"},
				{Name: "status"},
			},
			Totals: []formview.Total{
				{Name: "total", Contributors: []string{"ConsultationFee", "totalTestPrice", "totalDrugPrice"}},
			},
		},
	}
	s.registerResource(e, res, session.RoleCashier)

	sources := map[string]string{
		"bills": "/api/bills",
	}
	metrics := []dashboard.Metric{
		{Name: "totalBills", Collection: "bills", Kind: dashboard.Count},
		{Name: "revenue", Collection: "bills", Kind: dashboard.Sum, Field: "total"},
		{Name: "unpaidBills", Collection: "bills", Kind: dashboard.CountWhere, Field: "status", Equals: "unpaid"},
	}
	buckets := []bucketSpec{
		{Name: "billsByDay", Collection: "bills", DateField: "date"},
		{Name: "billsByMonth", Collection: "bills", DateField: "date", ByMonth: true},
	}
	e.GET("/cashier", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RoleCashier))
}
