package glimpse

import "time"

// SlotState classifies one widget slot in a page snapshot.
type SlotState string

const (
	SlotOK          SlotState = "ok"
	SlotStale       SlotState = "stale"
	SlotUnavailable SlotState = "unavailable"
)

// WidgetSlot is one widget's contribution to a snapshot. Payload is only
// meaningful for SlotOK and SlotStale.
type WidgetSlot struct {
	Spec      WidgetSpec
	State     SlotState
	Payload   Payload
	UpdatedAt time.Time
	LastErr   error
}

// PageSnapshot mirrors a PageSpec's column layout with the cache state of each
// referenced widget at one instant.
type PageSnapshot struct {
	Page    PageSpec
	Columns [][]WidgetSlot
	TakenAt time.Time
}

// PageBySlug resolves a configured page.
func (m *Manager) PageBySlug(slug string) (PageSpec, bool) {
	for _, p := range m.pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return PageSpec{}, false
}

// Pages returns the configured pages in order.
func (m *Manager) Pages() []PageSpec { return m.pages }

// Snapshot composes the current cache state for every widget on a page. It
// only reads entries, never fetches and never blocks on I/O, so one widget's
// trouble cannot hold up the rest of the page.
func (m *Manager) Snapshot(page PageSpec) PageSnapshot {
	now := m.now()
	snap := PageSnapshot{Page: page, TakenAt: now, Columns: make([][]WidgetSlot, 0, len(page.Columns))}

	for _, col := range page.Columns {
		slots := make([]WidgetSlot, 0, len(col.WidgetIDs))
		for _, id := range col.WidgetIDs {
			slots = append(slots, m.slotFor(id, now))
		}
		snap.Columns = append(snap.Columns, slots)
	}
	return snap
}

func (m *Manager) slotFor(id string, now time.Time) WidgetSlot {
	spec := m.widgets[id]
	v := m.entries[id].view()

	slot := WidgetSlot{Spec: spec, LastErr: v.LastErr}
	if !v.HasPayload {
		slot.State = SlotUnavailable
		return slot
	}

	slot.Payload = v.Payload
	slot.UpdatedAt = v.LastSuccess
	if now.Sub(v.LastSuccess) > time.Duration(m.staleMultiplier)*spec.Interval {
		slot.State = SlotStale
	} else {
		slot.State = SlotOK
	}
	return slot
}
