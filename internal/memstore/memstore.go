// Package memstore provides in-memory, mutex-guarded implementations of the
// domain repositories. Entity IDs come from a per-store monotonic counter
// starting at 1, so IDs are never reused after a restart-free lifetime and
// allocation is O(1). Stores hand out copies: callers mutate their copy and
// persist through an explicit Save/Update.
package memstore

import "sort"

// idSeq is a monotonic ID allocator. Callers hold the owning store's lock.
type idSeq struct {
	last int64
}

func (s *idSeq) next() int64 {
	s.last++
	return s.last
}

// pageIDs returns the sorted id slice window described by skip and limit.
// IDs are monotonic, so ascending order is creation order. A limit below
// zero means no limit.
func pageIDs[V any](m map[int64]V, skip, limit int) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if skip < 0 {
		skip = 0
	}
	if skip >= len(ids) {
		return nil
	}
	ids = ids[skip:]
	if limit >= 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}
