package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerAdmin mounts the administrator screens: staff and patient
// registries, the equipment inventory, the feedback inbox, and the
// hospital-wide dashboard.
func (s *Screens) registerAdmin(e *echo.Echo) {
	resources := []resource{
		{
			name:     "doctor",
			path:     "/admin/doctors",
			endpoint: "/api/doctors",
			display:  "name",
			schema: formview.Schema{
				Endpoint: "/api/doctors",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "name", Required: true},
					{Name: "specialization", Required: true},
					{Name: "phone", Required: true},
					{Name: "email"},
				},
			},
		},
		{
			name:     "patient",
			path:     "/admin/patients",
			endpoint: "/api/patients",
			display:  "name",
			schema: formview.Schema{
				Endpoint: "/api/patients",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "name", Required: true},
					{Name: "gender", Required: true},
					{Name: "dateOfBirth", Required: true},
					{Name: "phone"},
					{Name: "address"},
				},
			},
		},
		{
			name:     "equipment",
			path:     "/admin/equipment",
			endpoint: "/api/equipment",
			display:  "name",
			schema: formview.Schema{
				Endpoint: "/api/equipment",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "name", Required: true},
					{Name: "quantity", Required: true},
					{Name: "condition"},
				},
			},
		},
		{
			name:     "feedback",
			path:     "/admin/feedback",
			endpoint: "/api/feedback",
			display:  "message",
			schema: formview.Schema{
				Endpoint: "/api/feedback",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "message", Required: true},
				},
			},
		},
	}
	for _, res := range resources {
		s.registerResource(e, res, session.RoleAdmin)
	}

	sources := map[string]string{
		"doctors":  "/api/doctors",
		"patients": "/api/patients",
		"bills":    "/api/bills",
		"feedback": "/api/feedback",
	}
	metrics := []dashboard.Metric{
		{Name: "totalDoctors", Collection: "doctors", Kind: dashboard.Count},
		{Name: "totalPatients", Collection: "patients", Kind: dashboard.Count},
		{Name: "totalRevenue", Collection: "bills", Kind: dashboard.Sum, Field: "total"},
		{Name: "unpaidBills", Collection: "bills", Kind: dashboard.CountWhere, Field: "status", Equals: "unpaid"},
		{Name: "feedbackEntries", Collection: "feedback", Kind: dashboard.Count},
	}
	buckets := []bucketSpec{
		{Name: "patientsByMonth", Collection: "patients", DateField: "createdAt", ByMonth: true},
		{Name: "billsByDay", Collection: "bills", DateField: "date"},
	}
	e.GET("/admin", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RoleAdmin))
}
