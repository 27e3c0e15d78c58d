package dashboard

import (
	"testing"

	"github.com/careview/careview/internal/record"
)

func TestSummarize(t *testing.T) {
	collections := map[string][]record.Record{
		"bills": {
			{"status": "pending", "amount": float64(5000)},
			{"status": "paid", "amount": float64(2000)},
			{"status": "pending", "amount": float64(1500)},
			{"status": "pending", "amount": "750"}, // numeric string still counts
		},
		"drugs": {
			{"name": "Amoxicillin", "quantity": float64(40)},
			{"name": "Ibuprofen", "quantity": float64(12)},
		},
	}

	metrics := []Metric{
		{Name: "total_bills", Collection: "bills", Kind: Count},
		{Name: "pending_bills", Collection: "bills", Kind: CountWhere, Field: "status", Equals: "pending"},
		{Name: "billed_amount", Collection: "bills", Kind: Sum, Field: "amount"},
		{Name: "stock_total", Collection: "drugs", Kind: Sum, Field: "quantity"},
		{Name: "missing", Collection: "nope", Kind: Count},
	}

	got := Summarize(collections, metrics)

	want := map[string]float64{
		"total_bills":   4,
		"pending_bills": 3,
		"billed_amount": 9250,
		"stock_total":   52,
		"missing":       0,
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}
}

func TestSummarize_SumSkipsNonNumeric(t *testing.T) {
	collections := map[string][]record.Record{
		"bills": {
			{"amount": float64(100)},
			{"amount": "not a number"},
			{"amount": nil},
			{},
		},
	}
	got := Summarize(collections, []Metric{{Name: "sum", Collection: "bills", Kind: Sum, Field: "amount"}})
	if got["sum"] != 100 {
		t.Errorf("expected malformed amounts skipped, got %v", got["sum"])
	}
}

func TestBucketByDay_TolerantOfBadDates(t *testing.T) {
	rows := []record.Record{
		{"createdAt": "2026-03-01T09:30:00Z"},
		{"createdAt": "2026-03-01"},
		{"createdAt": "2026-03-02T23:59:59"},
		{"createdAt": "yesterday-ish"}, // unparsable: excluded
		{"createdAt": ""},              // missing: excluded
		{},                             // absent: excluded
	}

	got := BucketByDay(rows, "createdAt")
	if got["2026-03-01"] != 2 {
		t.Errorf("expected 2 on 2026-03-01, got %d", got["2026-03-01"])
	}
	if got["2026-03-02"] != 1 {
		t.Errorf("expected 1 on 2026-03-02, got %d", got["2026-03-02"])
	}
	if len(got) != 2 {
		t.Errorf("malformed dates must not create buckets: %v", got)
	}
}

func TestBucketByMonth(t *testing.T) {
	rows := []record.Record{
		{"visitDate": "2026-01-05"},
		{"visitDate": "2026-01-31"},
		{"visitDate": "2026-02-01"},
	}
	got := BucketByMonth(rows, "visitDate")
	if got["2026-01"] != 2 || got["2026-02"] != 1 {
		t.Errorf("unexpected month buckets: %v", got)
	}
}
