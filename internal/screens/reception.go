package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerReception mounts the front-desk screens: patient intake and the
// appointment book.
func (s *Screens) registerReception(e *echo.Echo) {
	resources := []resource{
		{
			name:     "patient",
			path:     "/reception/patients",
			endpoint: "/api/patients",
			display:  "name",
			schema: formview.Schema{
				Endpoint: "/api/patients",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "name", Required: true},
					{Name: "gender", Required: true},
					{Name: "dateOfBirth", Required: true},
					{Name: "phone", Required: true},
					{Name: "address"},
				},
			},
		},
		{
			name:     "appointment",
			path:     "/reception/appointments",
			endpoint: "/api/appointments",
			display:  "patientName",
			schema: formview.Schema{
				Endpoint: "/api/appointments",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "patientName", Required: true},
					{Name: "doctorName", Required: true},
					{Name: "date", Required: true},
					{Name: "time", Required: true},
				},
			},
		},
	}
	for _, res := range resources {
		s.registerResource(e, res, session.RoleReception)
	}

	sources := map[string]string{
		"patients":     "/api/patients",
		"appointments": "/api/appointments",
	}
	metrics := []dashboard.Metric{
		{Name: "registeredPatients", Collection: "patients", Kind: dashboard.Count},
		{Name: "totalAppointments", Collection: "appointments", Kind: dashboard.Count},
		{Name: "pendingAppointments", Collection: "appointments", Kind: dashboard.CountWhere, Field: "status", Equals: "pending"},
	}
	buckets := []bucketSpec{
		{Name: "appointmentsByDay", Collection: "appointments", DateField: "date"},
	}
	e.GET("/reception", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RoleReception))
}
