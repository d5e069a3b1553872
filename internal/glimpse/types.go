package glimpse

import "time"

// Shape selects the payload schema and the template branch a widget renders
// with.
type Shape string

const (
	ShapeLine Shape = "line"
	ShapeArea Shape = "area"
	ShapeBar  Shape = "bar"
	ShapePie  Shape = "pie"
)

func (s Shape) valid() bool {
	switch s {
	case ShapeLine, ShapeArea, ShapeBar, ShapePie:
		return true
	}
	return false
}

// WidgetSpec describes one widget: where its data comes from, how often it is
// refreshed, and which shape its payload must match. Immutable after config
// load.
type WidgetSpec struct {
	ID    string
	Shape Shape

	// Exactly one of File/URL is set.
	File  string
	URL   string
	Query map[string]string

	Interval time.Duration
	Timeout  time.Duration
}

// ColumnSpec is one ordered column of widget references on a page.
type ColumnSpec struct {
	WidgetIDs []string
}

// PageSpec is an ordered arrangement of columns. Multiple pages may reference
// the same widget; they share its cache entry.
type PageSpec struct {
	Name    string
	Slug    string
	Columns []ColumnSpec
}
