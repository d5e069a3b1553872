package glimpse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderSlot(t *testing.T, slot WidgetSlot) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	snap := PageSnapshot{
		Page:    PageSpec{Name: "Test", Slug: "test"},
		Columns: [][]WidgetSlot{{slot}},
		TakenAt: time.Now(),
	}
	var b strings.Builder
	require.NoError(t, r.RenderPage(&b, snap))
	return b.String()
}

func TestRenderShapeBranches(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		wantTag string
	}{
		{"line uses polyline", linePayload(10), "<polyline"},
		{"area fills a polygon", Payload{Shape: ShapeArea, Points: []Point{{"a", 1}, {"b", 2}}}, "<polygon"},
		{"bar uses rects", Payload{Shape: ShapeBar, Bars: []Point{{"a", 1}}}, "<rect"},
		{"pie uses arc paths", Payload{Shape: ShapePie, Slices: []Slice{{"up", 80, "#0f0"}, {"down", 20, "#f00"}}}, "<path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := renderSlot(t, WidgetSlot{
				Spec:      WidgetSpec{ID: "w", Shape: tc.payload.Shape},
				State:     SlotOK,
				Payload:   tc.payload,
				UpdatedAt: time.Now(),
			})
			assert.Contains(t, out, tc.wantTag)
			assert.NotContains(t, out, `<span class="stale-badge">`)
			assert.NotContains(t, out, "no data")
		})
	}
}

func TestRenderStaleBadge(t *testing.T) {
	out := renderSlot(t, WidgetSlot{
		Spec:      WidgetSpec{ID: "w", Shape: ShapeLine},
		State:     SlotStale,
		Payload:   linePayload(10),
		UpdatedAt: time.Now().Add(-10 * time.Minute),
	})
	assert.Contains(t, out, `<span class="stale-badge">`)
	assert.Contains(t, out, "<polyline", "stale slots still render their payload")
	assert.Contains(t, out, "minutes ago")
}

func TestRenderUnavailablePlaceholder(t *testing.T) {
	out := renderSlot(t, WidgetSlot{
		Spec:  WidgetSpec{ID: "w", Shape: ShapeLine},
		State: SlotUnavailable,
	})
	assert.Contains(t, out, "no data")
	assert.NotContains(t, out, "<polyline")
}

func TestRenderEscapesLabels(t *testing.T) {
	out := renderSlot(t, WidgetSlot{
		Spec:      WidgetSpec{ID: "w", Shape: ShapeBar},
		State:     SlotOK,
		Payload:   Payload{Shape: ShapeBar, Bars: []Point{{`<script>alert(1)</script>`, 1}}},
		UpdatedAt: time.Now(),
	})
	assert.NotContains(t, out, "<script>")
}

func TestRenderPieZeroTotal(t *testing.T) {
	out := renderSlot(t, WidgetSlot{
		Spec:      WidgetSpec{ID: "w", Shape: ShapePie},
		State:     SlotOK,
		Payload:   Payload{Shape: ShapePie, Slices: []Slice{{"a", 0, "#000"}}},
		UpdatedAt: time.Now(),
	})
	assert.Contains(t, out, "<svg", "zero-total pie still renders an empty chart")
	assert.NotContains(t, out, "<path")
}
