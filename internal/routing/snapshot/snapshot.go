// Package snapshot holds point-in-time copies of the routing table and
// computes the deltas between two of them.
package snapshot

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/wesleywu/winroute/internal/routing/entities"
)

// Snapshot is an immutable, key-grouped copy of the routing table
type Snapshot struct {
	groups map[entities.Key][]entities.Route
	size   int
	digest uint64
}

// New builds a snapshot from a table read. The input slice is not retained.
func New(routes []entities.Route) *Snapshot {
	s := &Snapshot{
		groups: make(map[entities.Key][]entities.Route, len(routes)),
		size:   len(routes),
	}
	for _, r := range routes {
		k := r.Key()
		s.groups[k] = append(s.groups[k], r)
	}
	s.digest = digest(routes)
	return s
}

// Size returns the number of routes in the snapshot
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Digest returns an order-independent hash of every route's full contents.
func (s *Snapshot) Digest() uint64 {
	if s == nil {
		return 0
	}
	return s.digest
}

// Same reports whether s and o very likely hold the same table: equal
// digest and size. A false result is exact; a true result can, in the
// rare case of a hash collision, hide a change.
func (s *Snapshot) Same(o *Snapshot) bool {
	return s.Digest() == o.Digest() && s.Size() == o.Size()
}

// Contains reports whether an entry with the given key exists
func (s *Snapshot) Contains(k entities.Key) bool {
	if s == nil {
		return false
	}
	_, ok := s.groups[k]
	return ok
}

// Lookup returns the entries stored under k
func (s *Snapshot) Lookup(k entities.Key) []entities.Route {
	if s == nil {
		return nil
	}
	return slices.Clone(s.groups[k])
}

// Routes returns every route, ordered by Compare
func (s *Snapshot) Routes() []entities.Route {
	if s == nil {
		return nil
	}
	out := make([]entities.Route, 0, s.size)
	for _, g := range s.groups {
		out = append(out, g...)
	}
	slices.SortFunc(out, Compare)
	return out
}

// Compare orders routes by family, destination, prefix, interface, gateway and metric.
func Compare(a, b entities.Route) int {
	if c := cmp.Compare(a.Version(), b.Version()); c != 0 {
		return c
	}
	if c := a.Destination().Compare(b.Destination()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PrefixLen(), b.PrefixLen()); c != 0 {
		return c
	}
	ai, _ := a.Interface()
	bi, _ := b.Interface()
	if c := cmp.Compare(ai, bi); c != 0 {
		return c
	}
	ag, _ := a.Gateway()
	bg, _ := b.Gateway()
	if c := ag.Compare(bg); c != 0 {
		return c
	}
	am, _ := a.Metric()
	bm, _ := b.Metric()
	return cmp.Compare(am, bm)
}

// digest hashes the sorted table so reordering by the OS does not count as a change
func digest(routes []entities.Route) uint64 {
	sorted := slices.Clone(routes)
	slices.SortFunc(sorted, Compare)

	h := xxhash.New()
	var buf [8]byte
	for _, r := range sorted {
		dst := r.Destination().As16()
		_, _ = h.Write(dst[:])
		_, _ = h.Write([]byte{byte(r.Version()), byte(r.PrefixLen())})

		gw, ok := r.Gateway()
		if ok {
			g := gw.As16()
			_, _ = h.Write(g[:])
		} else {
			_, _ = h.Write([]byte{0xff})
		}

		idx, _ := r.Interface()
		binary.BigEndian.PutUint32(buf[:4], idx)
		m, hasMetric := r.Metric()
		binary.BigEndian.PutUint32(buf[4:], m)
		_, _ = h.Write(buf[:])
		if hasMetric {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	return h.Sum64()
}
