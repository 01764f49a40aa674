package snapshot

import (
	"cmp"
	"slices"

	"github.com/wesleywu/winroute/internal/routing/entities"
)

// Diff classifies the changes between two snapshots.
//
// Routes are grouped by key (destination, prefix length, interface). Within a
// key, entries with the same gateway are paired first and reported as
// Modified when the metric differs. Remaining entries are paired in order as
// Modified (gateway change); whatever is left is Added or Deleted.
//
// The result is ordered by route (see Compare), then by kind.
// Diff always walks every group; use Snapshot.Same for a cheap pre-check.
func Diff(old, cur *Snapshot) []entities.RouteEvent {
	var events []entities.RouteEvent

	if cur != nil {
		for k, now := range cur.groups {
			var before []entities.Route
			if old != nil {
				before = old.groups[k]
			}
			events = append(events, diffGroup(before, now)...)
		}
	}
	if old != nil {
		for k, before := range old.groups {
			if cur.Contains(k) {
				continue
			}
			for _, r := range before {
				events = append(events, entities.NewRouteEvent(entities.RouteDeleted, r))
			}
		}
	}

	slices.SortFunc(events, func(a, b entities.RouteEvent) int {
		if c := Compare(a.Route, b.Route); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return events
}

func diffGroup(before, now []entities.Route) []entities.RouteEvent {
	var events []entities.RouteEvent

	oldLeft := slices.Clone(before)
	var newLeft []entities.Route

	for _, r := range now {
		gw, _ := r.Gateway()
		i := slices.IndexFunc(oldLeft, func(o entities.Route) bool {
			ogw, _ := o.Gateway()
			return ogw == gw
		})
		if i < 0 {
			newLeft = append(newLeft, r)
			continue
		}
		prev := oldLeft[i]
		oldLeft = slices.Delete(oldLeft, i, i+1)
		if !sameAttributes(prev, r) {
			events = append(events, modified(prev, r))
		}
	}

	n := min(len(oldLeft), len(newLeft))
	for i := 0; i < n; i++ {
		events = append(events, modified(oldLeft[i], newLeft[i]))
	}
	for _, r := range newLeft[n:] {
		events = append(events, entities.NewRouteEvent(entities.RouteAdded, r))
	}
	for _, r := range oldLeft[n:] {
		events = append(events, entities.NewRouteEvent(entities.RouteDeleted, r))
	}
	return events
}

// sameAttributes compares the non-key fields that make a change observable.
func sameAttributes(a, b entities.Route) bool {
	am, aok := a.Metric()
	bm, bok := b.Metric()
	ag, _ := a.Gateway()
	bg, _ := b.Gateway()
	return am == bm && aok == bok && ag == bg
}

func modified(prev, cur entities.Route) entities.RouteEvent {
	ev := entities.NewRouteEvent(entities.RouteModified, cur)
	ev.Previous = &prev
	return ev
}
