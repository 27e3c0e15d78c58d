// Package dashboard computes the per-role summary numbers: counts, filtered
// counts, sums, and date-bucketed series for the charts. Everything is a
// pure fold over the fetched collections and is recomputed on every refresh.
package dashboard

import (
	"time"

	"github.com/careview/careview/internal/record"
)

// Metric declares one summary number derived from a named collection.
type Metric struct {
	Name       string
	Collection string
	Kind       Kind
	Field      string // sum field, or the filter field for CountWhere
	Equals     string // CountWhere comparison value
}

// Kind selects the aggregation.
type Kind int

const (
	Count Kind = iota
	CountWhere
	Sum
)

// Summarize evaluates every metric against the collections. Metrics over a
// missing collection report zero rather than failing: a dashboard with one
// broken widget still renders the rest.
func Summarize(collections map[string][]record.Record, metrics []Metric) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		rows := collections[m.Collection]
		switch m.Kind {
		case Count:
			out[m.Name] = float64(len(rows))
		case CountWhere:
			n := 0
			for _, r := range rows {
				if r.String(m.Field) == m.Equals {
					n++
				}
			}
			out[m.Name] = float64(n)
		case Sum:
			sum := 0.0
			for _, r := range rows {
				if v, ok := r.Float(m.Field); ok {
					sum += v
				}
			}
			out[m.Name] = sum
		}
	}
	return out
}

// dateLayouts are the formats the upstream has been seen emitting.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BucketByDay counts records per calendar day of their dateField. Records
// with a missing or unparsable date are skipped, never failing the series.
func BucketByDay(rows []record.Record, dateField string) map[string]int {
	return bucket(rows, dateField, "2006-01-02")
}

// BucketByMonth counts records per calendar month of their dateField.
func BucketByMonth(rows []record.Record, dateField string) map[string]int {
	return bucket(rows, dateField, "2006-01")
}

func bucket(rows []record.Record, dateField, keyLayout string) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		raw := r.String(dateField)
		if raw == "" {
			continue
		}
		t, ok := parseDate(raw)
		if !ok {
			continue
		}
		out[t.Format(keyLayout)]++
	}
	return out
}
