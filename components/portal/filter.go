package portal

import (
	"slices"
	"sort"
)

// FilterWidgets applies the two-stage filter (role allow list, then tenant
// override) to a candidate widget list. Dangling ids, disallowed widgets and
// duplicate ids are dropped silently, unknown sizes fall back to the catalog
// default, and orders are re-sequenced densely following the existing order
// values. The function is idempotent.
func FilterWidgets(catalog *Catalog, role Role, access AccessOverrides, widgets []WidgetInstance) []WidgetInstance {
	ordered := slices.Clone(widgets)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	out := make([]WidgetInstance, 0, len(ordered))
	seen := make(map[string]struct{}, len(ordered))
	for _, w := range ordered {
		if _, dup := seen[w.ID]; dup {
			continue
		}
		meta, ok := catalog.Widget(w.ID)
		if !ok || !meta.AllowedFor(role) || !access.IsEnabled(w.ID, role) {
			continue
		}
		if !w.Size.Valid() {
			w.Size = meta.DefaultSize
		}
		seen[w.ID] = struct{}{}
		out = append(out, w)
	}
	resequence(out)
	return out
}

// resequence assigns dense 0..N-1 orders following slice position.
func resequence(widgets []WidgetInstance) {
	for i := range widgets {
		widgets[i].Order = i
	}
}

// spliceMove removes the source widget and inserts it at the index the target
// occupied before removal.
func spliceMove(widgets []WidgetInstance, sourceID, targetID string) ([]WidgetInstance, bool) {
	if sourceID == "" || targetID == "" || sourceID == targetID {
		return widgets, false
	}
	src, dst := indexOf(widgets, sourceID), indexOf(widgets, targetID)
	if src < 0 || dst < 0 {
		return widgets, false
	}
	moved := widgets[src]
	next := slices.Delete(slices.Clone(widgets), src, src+1)
	next = slices.Insert(next, dst, moved)
	resequence(next)
	return next, true
}
