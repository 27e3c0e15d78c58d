// Package listview implements the generic table-screen controller every
// resource screen is built from: one fetched collection plus search, sort
// and pagination state, with the visible rows derived as a pure projection.
package listview

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/careview/careview/internal/record"
)

// Fetcher is the slice of the API client a Controller needs.
type Fetcher interface {
	GetList(ctx context.Context, path string) ([]record.Record, error)
}

// Controller owns the state of one table screen. All methods are safe for
// concurrent use; Load follows last-request-wins so a slow earlier fetch can
// never clobber a newer one.
type Controller struct {
	mu           sync.Mutex
	client       Fetcher
	endpoint     string
	displayField string

	items      []record.Record
	searchTerm string
	sortField  string
	sortAsc    bool
	page       int
	pageSize   int

	loading bool
	err     error

	seq    uint64
	cancel context.CancelFunc
}

// View is a consistent snapshot of the controller for rendering.
type View struct {
	Rows       []record.Record `json:"rows"`
	Page       int             `json:"page"`
	PageCount  int             `json:"page_count"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	SearchTerm string          `json:"search_term,omitempty"`
	SortField  string          `json:"sort_field,omitempty"`
	SortOrder  string          `json:"sort_order"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
}

// New creates a Controller for one collection endpoint. displayField is the
// column the search box filters on.
func New(client Fetcher, endpoint, displayField string, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Controller{
		client:       client,
		endpoint:     endpoint,
		displayField: displayField,
		sortAsc:      true,
		page:         1,
		pageSize:     pageSize,
	}
}

// Load fetches the collection. Issuing a new Load cancels the previous one;
// if a superseded response still arrives it is discarded, so the items always
// reflect the most recently issued request.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.seq++
	seq := c.seq
	c.loading = true
	client, endpoint := c.client, c.endpoint
	c.mu.Unlock()

	items, err := client.GetList(ctx, endpoint)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		// A newer Load superseded this one; its outcome is irrelevant.
		cancel()
		return nil
	}
	c.loading = false
	c.cancel = nil
	cancel()
	if err != nil {
		c.err = err
		return err
	}
	c.err = nil
	c.items = items
	c.page = clamp(c.page, c.pageCountLocked())
	return nil
}

// Cancel aborts any in-flight Load, used when the owning screen is torn down.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++ // orphan any response still in flight
	c.loading = false
}

// SetSearchTerm updates the filter and jumps back to the first page: keeping
// a stale page index against a shrunken result set would show an empty page.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = term
	c.page = 1
}

// SetSort toggles direction when the field is already the sort key, and
// starts ascending when a new field is chosen.
func (c *Controller) SetSort(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sortField == field {
		c.sortAsc = !c.sortAsc
		return
	}
	c.sortField = field
	c.sortAsc = true
}

// SetPage moves to page n, clamped to the valid range for the current
// filter. First and last page are therefore O(1) jumps.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = clamp(n, c.pageCountLocked())
}

// SetPageSize changes the page size and resets to the first page.
func (c *Controller) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = n
	c.page = 1
}

// VisibleRows derives the rows for the current page:
// paginate(sort(filter(items))). The underlying items are never reordered,
// so clearing the sort restores the original fetch order.
func (c *Controller) VisibleRows() []record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

// Snapshot returns the full view state in one consistent read.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Rows:       c.visibleLocked(),
		Page:       c.page,
		PageCount:  c.pageCountLocked(),
		PageSize:   c.pageSize,
		Total:      len(c.filteredLocked()),
		SearchTerm: c.searchTerm,
		SortField:  c.sortField,
		SortOrder:  "asc",
		Loading:    c.loading,
	}
	if !c.sortAsc {
		v.SortOrder = "desc"
	}
	if c.err != nil {
		v.Error = c.err.Error()
	}
	return v
}

// Page returns the current (clamped) page number.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageCount returns the number of pages for the current filter, at least 1.
func (c *Controller) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCountLocked()
}

// Err returns the failure of the most recent completed Load, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether a Load is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ---------------------------------------------------------------------------
// Derivation (callers hold c.mu)
// ---------------------------------------------------------------------------

func (c *Controller) visibleLocked() []record.Record {
	rows := c.sorted(c.filteredLocked())

	start := (c.page - 1) * c.pageSize
	if start >= len(rows) {
		return []record.Record{}
	}
	end := start + c.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func (c *Controller) filteredLocked() []record.Record {
	if c.searchTerm == "" {
		return c.items
	}
	term := strings.ToLower(c.searchTerm)
	var out []record.Record
	for _, r := range c.items {
		if strings.Contains(strings.ToLower(r.String(c.displayField)), term) {
			out = append(out, r)
		}
	}
	return out
}

// sorted returns a stably sorted copy; numeric when both keys parse as
// numbers, lexicographic otherwise. No sort field means fetch order.
func (c *Controller) sorted(rows []record.Record) []record.Record {
	if c.sortField == "" {
		return rows
	}
	out := make([]record.Record, len(rows))
	copy(out, rows)

	field, asc := c.sortField, c.sortAsc
	sort.SliceStable(out, func(i, j int) bool {
		less := recordLess(out[i], out[j], field)
		if asc {
			return less
		}
		return recordLess(out[j], out[i], field)
	})
	return out
}

func recordLess(a, b record.Record, field string) bool {
	af, aok := a.Float(field)
	bf, bok := b.Float(field)
	if aok && bok {
		return af < bf
	}
	return strings.ToLower(a.String(field)) < strings.ToLower(b.String(field))
}

func (c *Controller) pageCountLocked() int {
	n := len(c.filteredLocked())
	if n == 0 {
		return 1
	}
	return (n + c.pageSize - 1) / c.pageSize
}

func clamp(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}
