package reclist

import (
	"slices"
	"strings"
)

// CompareFunc orders two records like [strings.Compare].
type CompareFunc func(a, b *Record) int

// ByKey orders records by key in byte order. A record with an empty key
// compares equal to every record.
func ByKey(a, b *Record) int {
	if a.key == "" || b.key == "" {
		return 0
	}

	return strings.Compare(a.key, b.key)
}

// Reverse flips the record order.
func (l *List) Reverse() {
	slices.Reverse(l.recs)
	l.rev++
}

// Sort orders records with cmp, or [ByKey] when cmp is nil. The sort is
// stable: records cmp reports equal keep their relative order.
func (l *List) Sort(cmp CompareFunc) {
	if cmp == nil {
		l.insertionSort(ByKey)

		return
	}

	slices.SortStableFunc(l.recs, cmp)
	l.rev++
}

// insertionSort places records one by one in list order. Each goes to the
// front when it orders before the current first record, otherwise before the
// first record it orders before. The result stays well defined for
// comparators like [ByKey] that are not transitive.
func (l *List) insertionSort(cmp CompareFunc) {
	out := make([]*Record, 0, len(l.recs))

	for _, r := range l.recs {
		if len(out) == 0 || cmp(r, out[0]) < 0 {
			out = slices.Insert(out, 0, r)

			continue
		}

		i := 1
		for i < len(out) && cmp(r, out[i]) >= 0 {
			i++
		}

		out = slices.Insert(out, i, r)
	}

	copy(l.recs, out)
	l.rev++
}
