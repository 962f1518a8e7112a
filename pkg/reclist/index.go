package reclist

import (
	"slices"
	"sort"
	"strings"
)

// Index is a sorted snapshot of a [List] for binary-search lookup.
//
// It is tied to the list revision it was built from. Any later mutation makes
// [Index.Lookup] return [ErrStaleIndex].
type Index struct {
	list *List
	rev  uint64
	recs []*Record
}

// BuildIndex sorts l by key, then by value when both values are non-empty,
// and returns an index over the result. The list itself is reordered to
// match. Ordering is byte-wise, not locale-aware.
func BuildIndex(l *List) *Index {
	l.Sort(indexCompare)

	return &Index{
		list: l,
		rev:  l.rev,
		recs: slices.Clone(l.recs),
	}
}

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.recs) }

// Records returns the indexed records in sorted order.
func (ix *Index) Records() []*Record { return slices.Clone(ix.recs) }

// Stale reports whether the list changed since the index was built.
func (ix *Index) Stale() bool { return ix.list.rev != ix.rev }

// Lookup returns the first active record with key.
func (ix *Index) Lookup(key string) (*Record, error) {
	if ix.Stale() {
		return nil, ErrStaleIndex
	}

	if key == "" {
		return nil, ErrNotFound
	}

	i := sort.Search(len(ix.recs), func(i int) bool {
		return strings.Compare(ix.recs[i].key, key) >= 0
	})

	for ; i < len(ix.recs) && ix.recs[i].key == key; i++ {
		if !ix.recs[i].removed {
			return ix.recs[i], nil
		}
	}

	return nil, ErrNotFound
}

func indexCompare(a, b *Record) int {
	if c := strings.Compare(a.key, b.key); c != 0 {
		return c
	}

	if a.value == "" || b.value == "" {
		return 0
	}

	return strings.Compare(a.value, b.value)
}
