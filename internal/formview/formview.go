// Package formview implements the generic add/edit modal controller: a draft
// record, required-field validation, reference-driven auto-population,
// derived totals, and a submit lifecycle that always reloads the owning list
// from the server rather than appending locally.
package formview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/careview/careview/internal/record"
)

// Mode distinguishes a create draft from an edit draft.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// ErrValidation is returned by Submit when required fields are missing; no
// network call is made in that case.
var ErrValidation = errors.New("validation failed")

// ErrClosed is returned when Submit is called with no open draft.
var ErrClosed = errors.New("no open form")

// Submitter is the slice of the API client a form needs.
type Submitter interface {
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Field declares one form field.
type Field struct {
	Name     string
	Required bool
}

// Reference auto-populates draft fields when a selection field changes:
// the option whose KeyField matches the selected value has its Copy-mapped
// fields copied into the draft. This is the "pick a test, get its price"
// pattern shared by bills, prescriptions and lab orders.
type Reference struct {
	Field    string
	KeyField string
	Options  []record.Record
	Copy     map[string]string // option field -> draft field
}

// Total declares a derived field recomputed as the sum of its contributing
// numeric fields whenever any of them changes.
type Total struct {
	Name         string
	Contributors []string
}

// Schema describes one resource form.
type Schema struct {
	Endpoint   string
	IDField    string
	Fields     []Field
	References []Reference
	Totals     []Total
}

// Draft is the in-progress, not-yet-submitted record.
type Draft struct {
	Values   map[string]any    `json:"values"`
	Errors   map[string]string `json:"errors,omitempty"`
	Mode     Mode              `json:"mode"`
	TargetID string            `json:"target_id,omitempty"`
}

// Controller owns one form's lifecycle.
type Controller struct {
	mu         sync.Mutex
	client     Submitter
	schema     Schema
	draft      *Draft
	submitting bool
	submitErr  error

	// onSuccess fires after a confirmed submit; the owning screen hooks the
	// list reload here.
	onSuccess func(ctx context.Context)
}

// New creates a Controller for one resource form.
func New(client Submitter, schema Schema) *Controller {
	return &Controller{client: client, schema: schema}
}

// OnSuccess registers the post-submit hook (typically list.Load).
func (c *Controller) OnSuccess(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSuccess = fn
}

// Open starts a draft: empty for create, seeded from the record for edit.
func (c *Controller) Open(mode Mode, rec record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := &Draft{
		Values: make(map[string]any),
		Errors: make(map[string]string),
		Mode:   mode,
	}
	if mode == ModeEdit && rec != nil {
		for k, v := range rec.Clone() {
			d.Values[k] = v
		}
		d.TargetID = rec.ID(c.schema.IDField)
	}
	c.schema.recompute(d.Values)
	c.draft = d
	c.submitErr = nil
}

// SetField updates one field and recomputes every derived field. A no-op on
// a closed form.
func (c *Controller) SetField(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return
	}
	c.draft.Values[name] = value
	delete(c.draft.Errors, name)
	c.schema.recompute(c.draft.Values)
}

// Validate checks required-field presence and records per-field errors.
// Cross-field and business validation stay with the backend.
func (c *Controller) Validate() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return nil
	}
	errs := c.schema.validate(c.draft.Values)
	c.draft.Errors = errs
	return errs
}

// Submit validates, then POSTs (create) or PUTs (edit) the draft. On success
// the form closes and the owning list is asked to reload; on failure the
// form stays open with the error for display.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	errs := c.schema.validate(c.draft.Values)
	c.draft.Errors = errs
	if len(errs) > 0 {
		c.mu.Unlock()
		return ErrValidation
	}

	mode := c.draft.Mode
	targetID := c.draft.TargetID
	body := make(map[string]any, len(c.draft.Values))
	for k, v := range c.draft.Values {
		body[k] = v
	}
	c.submitting = true
	c.mu.Unlock()

	var err error
	if mode == ModeEdit {
		_, err = c.client.Put(ctx, c.schema.Endpoint+"/"+targetID, body)
	} else {
		_, err = c.client.Post(ctx, c.schema.Endpoint, body)
	}

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.submitErr = err
		c.mu.Unlock()
		return err
	}
	c.draft = nil
	c.submitErr = nil
	onSuccess := c.onSuccess
	c.mu.Unlock()

	if onSuccess != nil {
		onSuccess(ctx)
	}
	return nil
}

// Cancel discards the draft unconditionally.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = nil
	c.submitErr = nil
}

// IsOpen reports whether a draft exists.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft != nil
}

// Submitting reports whether a submit is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Err returns the last submit failure, kept while the form stays open.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Draft returns a copy of the current draft, or nil when closed.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return nil
	}
	cp := Draft{
		Values:   make(map[string]any, len(c.draft.Values)),
		Errors:   make(map[string]string, len(c.draft.Errors)),
		Mode:     c.draft.Mode,
		TargetID: c.draft.TargetID,
	}
	for k, v := range c.draft.Values {
		cp.Values[k] = v
	}
	for k, v := range c.draft.Errors {
		cp.Errors[k] = v
	}
	return &cp
}

// ---------------------------------------------------------------------------
// Pure schema logic
// ---------------------------------------------------------------------------

// validate returns field-level errors for blank required fields.
func (s Schema) validate(values map[string]any) map[string]string {
	errs := make(map[string]string)
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(record.Record(values).String(f.Name)) == "" {
			errs[f.Name] = fmt.Sprintf("%s is required", f.Name)
		}
	}
	return errs
}

// recompute applies every reference copy and rebuilds every derived total.
// It is a deterministic fold over the draft values: references first, so a
// freshly copied price feeds the totals in the same pass.
func (s Schema) recompute(values map[string]any) {
	rec := record.Record(values)

	for _, ref := range s.References {
		selected := rec.String(ref.Field)
		if selected == "" {
			continue
		}
		for _, opt := range ref.Options {
			if opt.String(ref.KeyField) != selected {
				continue
			}
			for src, dst := range ref.Copy {
				if v, ok := opt[src]; ok {
					values[dst] = v
				}
			}
			break
		}
	}

	for _, total := range s.Totals {
		sum := 0.0
		for _, field := range total.Contributors {
			if v, ok := rec.Float(field); ok {
				sum += v
			}
		}
		values[total.Name] = sum
	}
}
