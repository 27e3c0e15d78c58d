package screens

import (
	"github.com/labstack/echo/v4"

	"github.com/careview/careview/internal/dashboard"
	"github.com/careview/careview/internal/formview"
	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// registerDoctor mounts the clinician screens: the assigned patient list,
// prescriptions with the drug-price derived total, and lab report review.
func (s *Screens) registerDoctor(e *echo.Echo) {
	resources := []resource{
		{
			name:     "patient",
			path:     "/doctor/patients",
			endpoint: "/api/doctor/patients",
			display:  "name",
			schema: formview.Schema{
				Endpoint: "/api/doctor/patients",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "name", Required: true},
					{Name: "diagnosis"},
					{Name: "notes"},
				},
			},
		},
		{
			name:     "prescription",
			path:     "/doctor/prescriptions",
			endpoint: "/api/prescriptions",
			display:  "patientName",
			schema: formview.Schema{
				Endpoint: "/api/prescriptions",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "patientName", Required: true},
					{Name: "drugName", Required: true},
					{Name: "dosage", Required: true},
					{Name: "drugPrice"},
					{Name: "quantity"},
				},
				Totals: []formview.Total{
					{Name: "totalDrugPrice", Contributors: []string{"drugPrice"}},
				},
			},
		},
		{
			name:     "report",
			path:     "/doctor/reports",
			endpoint: "/api/reports",
			display:  "patientName",
			schema: formview.Schema{
				Endpoint: "/api/reports",
				IDField:  "id",
				Fields: []formview.Field{
					{Name: "patientName", Required: true},
					{Name: "summary", Required: true},
				},
			},
		},
	}
	for _, res := range resources {
		s.registerResource(e, res, session.RoleDoctor)
	}

	sources := map[string]string{
		"patients":      "/api/doctor/patients",
		"prescriptions": "/api/prescriptions",
		"reports":       "/api/reports",
	}
	metrics := []dashboard.Metric{
		{Name: "assignedPatients", Collection: "patients", Kind: dashboard.Count},
		{Name: "prescriptionsWritten", Collection: "prescriptions", Kind: dashboard.Count},
		{Name: "pendingReports", Collection: "reports", Kind: dashboard.CountWhere, Field: "status", Equals: "pending"},
	}
	buckets := []bucketSpec{
		{Name: "prescriptionsByDay", Collection: "prescriptions", DateField: "date"},
	}
	e.GET("/doctor", s.dashboardHandler(sources, metrics, buckets),
		guard.Middleware(s.sessions, session.RoleDoctor))
}
