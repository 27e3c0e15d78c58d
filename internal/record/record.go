// Package record models the opaque JSON entities served by the upstream
// hospital API. A Record is whatever the backend returns for one table row;
// screens only need typed access to a handful of known fields, so the type is
// a thin wrapper over the decoded JSON object rather than a generated struct.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one backend-owned entity (a doctor, a drug, a bill, ...).
type Record map[string]any

// idCandidates are tried in order when a screen does not declare its own
// identifier field. The upstream mixes conventions per resource.
var idCandidates = []string{"id", "Id", "ID", "_id"}

// Decode parses a JSON object into a Record.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// DecodeList parses a JSON array of objects into a slice of Records.
func DecodeList(data []byte) ([]Record, error) {
	var rs []Record
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode record list: %w", err)
	}
	return rs, nil
}

// String returns the field rendered as a string. Numbers are formatted
// without a trailing ".0" so identifiers survive the JSON float round-trip.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Float returns the field coerced to a float64. Numeric strings are parsed;
// anything else reports ok=false.
func (r Record) Float(field string) (float64, bool) {
	v, present := r[field]
	if !present || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ID returns the record identifier. The preferred field is tried first,
// falling back to the common identifier spellings.
func (r Record) ID(preferred string) string {
	if preferred != "" {
		if id := r.String(preferred); id != "" {
			return id
		}
	}
	for _, f := range idCandidates {
		if id := r.String(f); id != "" {
			return id
		}
	}
	return ""
}

// Clone returns a shallow copy, used when a form draft is seeded from a list
// row so edits do not leak back into the cached list.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
