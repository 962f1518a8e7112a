// Package reclist implements an ordered associative record list.
//
// A [List] is a mutable, order-preserving sequence of key/value [Record]
// values. Records can be soft-deleted and revived, carry a nested sublist,
// and are rendered with a small template language ([Compile]). A sorted
// [Index] gives logarithmic lookup over a frozen list and refuses to answer
// once the list has changed.
//
// Persistence is line oriented: [ReadConfig] imports "KEY VALUE" lines from a
// file, stdin or a subprocess, and [Save] writes through a temp file that is
// only renamed over the target when its size matches what the writer reported.
//
// A List is not safe for concurrent use.
package reclist

import (
	"iter"
	"strings"
)

// List is an ordered sequence of records. The zero value is an empty list.
type List struct {
	recs []*Record
	rev  uint64
}

// New returns an empty list.
func New() *List {
	return &List{}
}

// Len returns the number of records, removed ones included.
func (l *List) Len() int { return len(l.recs) }

// Count returns the number of active records.
func (l *List) Count() int {
	n := 0

	for _, r := range l.recs {
		if !r.removed {
			n++
		}
	}

	return n
}

// HasActive reports whether any active record has a non-empty key.
func (l *List) HasActive() bool {
	for _, r := range l.recs {
		if !r.removed && r.key != "" {
			return true
		}
	}

	return false
}

// Revision changes on every mutation of the list or of a member's key,
// value or removed flag.
func (l *List) Revision() uint64 { return l.rev }

// At returns the i-th record. Panics if i is out of range.
func (l *List) At(i int) *Record { return l.recs[i] }

// All iterates every record in order, removed ones included.
func (l *List) All() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for _, r := range l.recs {
			if !yield(r) {
				return
			}
		}
	}
}

// Active iterates records that are not removed.
func (l *List) Active() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for _, r := range l.recs {
			if r.removed {
				continue
			}

			if !yield(r) {
				return
			}
		}
	}
}

// Keys returns the keys of active records in order.
func (l *List) Keys() []string {
	keys := make([]string, 0, len(l.recs))
	for r := range l.Active() {
		keys = append(keys, r.key)
	}

	return keys
}

// --- Insertion ---

// PushFront inserts a record with key at the head.
// Returns nil for an empty key.
func (l *List) PushFront(key string) *Record {
	return l.PushFrontValue(key, "")
}

// PushFrontValue inserts key/value at the head.
func (l *List) PushFrontValue(key, value string) *Record {
	if key == "" {
		return nil
	}

	r := l.newRecord(key, value)
	l.recs = append(l.recs, nil)
	copy(l.recs[1:], l.recs)
	l.recs[0] = r
	l.rev++

	return r
}

// PushBack appends a record with key.
// Returns nil for an empty key.
func (l *List) PushBack(key string) *Record {
	return l.PushBackValue(key, "")
}

// PushBackValue appends key/value.
func (l *List) PushBackValue(key, value string) *Record {
	if key == "" {
		return nil
	}

	return l.PushRecord(key, value)
}

// PushRecord appends a record without validating the key. Synthetic entries
// such as JSON array elements use it with an empty key.
func (l *List) PushRecord(key, value string) *Record {
	r := l.newRecord(key, value)
	l.recs = append(l.recs, r)
	l.rev++

	return r
}

// InsertSorted inserts key before the first record whose key compares
// greater, so equal keys keep insertion order.
func (l *List) InsertSorted(key string) *Record {
	return l.InsertSortedValue(key, "")
}

// InsertSortedValue is [List.InsertSorted] with a value.
func (l *List) InsertSortedValue(key, value string) *Record {
	if key == "" {
		return nil
	}

	pos := len(l.recs)

	for i, r := range l.recs {
		if strings.Compare(r.key, key) > 0 {
			pos = i

			break
		}
	}

	r := l.newRecord(key, value)
	l.recs = append(l.recs, nil)
	copy(l.recs[pos+1:], l.recs[pos:])
	l.recs[pos] = r
	l.rev++

	return r
}

// UpsertFront returns the record for key, reviving a removed one, or inserts
// a new record at the head.
func (l *List) UpsertFront(key string) *Record {
	return l.upsert(key, l.PushFront)
}

// UpsertBack is [List.UpsertFront] appending at the tail.
func (l *List) UpsertBack(key string) *Record {
	return l.upsert(key, l.PushBack)
}

// UpsertSorted is [List.UpsertFront] inserting in key order.
func (l *List) UpsertSorted(key string) *Record {
	return l.upsert(key, l.InsertSorted)
}

// FindOrPushFront returns the active record for key or inserts one at the
// head. Removed records are left alone.
func (l *List) FindOrPushFront(key string) *Record {
	if r := l.Find(key); r != nil {
		return r
	}

	return l.PushFront(key)
}

func (l *List) upsert(key string, insert func(string) *Record) *Record {
	if key == "" {
		return nil
	}

	if r := l.FindAny(key); r != nil {
		r.Restore()

		return r
	}

	return insert(key)
}

func (l *List) newRecord(key, value string) *Record {
	return &Record{key: key, value: value, owner: l}
}

// --- Lookup ---

// Find returns the first active record with key, or nil.
func (l *List) Find(key string) *Record {
	if key == "" {
		return nil
	}

	for _, r := range l.recs {
		if !r.removed && r.key == key {
			return r
		}
	}

	return nil
}

// FindAny is [List.Find] including removed records.
func (l *List) FindAny(key string) *Record {
	if key == "" {
		return nil
	}

	for _, r := range l.recs {
		if r.key == key {
			return r
		}
	}

	return nil
}

// FindPair returns the first active record matching key and value.
// An empty value matches only records whose value is empty.
func (l *List) FindPair(key, value string) *Record {
	if key == "" {
		return nil
	}

	for _, r := range l.recs {
		if !r.removed && r.key == key && r.value == value {
			return r
		}
	}

	return nil
}

// FindPrefix returns the first active record whose key shares the first n
// bytes with key. n == 0 is an exact [List.Find]. Records with empty keys
// never match, nor does a key shorter than n.
func (l *List) FindPrefix(n int, key string) *Record {
	if n <= 0 {
		return l.Find(key)
	}

	if len(key) < n {
		return nil
	}

	prefix := key[:n]

	for _, r := range l.recs {
		if r.removed || r.key == "" {
			continue
		}

		if strings.HasPrefix(r.key, prefix) {
			return r
		}
	}

	return nil
}

// FindNum returns the first active record with Num == n. n == 0 never matches.
func (l *List) FindNum(n int64) *Record {
	if n == 0 {
		return nil
	}

	for _, r := range l.recs {
		if !r.removed && r.Num == n {
			return r
		}
	}

	return nil
}

// Value returns the value of the active record for key.
func (l *List) Value(key string) (string, bool) {
	r := l.Find(key)
	if r == nil {
		return "", false
	}

	return r.value, true
}

// External returns the external value of the active record for key.
func (l *List) External(key string) any {
	r := l.Find(key)
	if r == nil {
		return nil
	}

	return r.external
}

// --- Deletion ---

// Remove soft-deletes the first active record with key.
func (l *List) Remove(key string) bool {
	r := l.Find(key)
	if r == nil {
		return false
	}

	r.MarkRemoved()

	return true
}

// Pull soft-deletes the first active record with key and returns its value.
func (l *List) Pull(key string) (string, bool) {
	r := l.Find(key)
	if r == nil {
		return "", false
	}

	r.MarkRemoved()

	return r.value, true
}

// Purge drops every removed record, keeping survivors in order, and returns
// how many were dropped.
func (l *List) Purge() int {
	kept := l.recs[:0]

	for _, r := range l.recs {
		if r.removed {
			r.owner = nil

			continue
		}

		kept = append(kept, r)
	}

	n := len(l.recs) - len(kept)

	clear(l.recs[len(kept):])
	l.recs = kept

	if n > 0 {
		l.rev++
	}

	return n
}

// Clear drops every record.
func (l *List) Clear() {
	for _, r := range l.recs {
		r.owner = nil
	}

	l.recs = nil
	l.rev++
}

// Take moves all records into a new list and leaves l empty.
func (l *List) Take() *List {
	moved := &List{recs: l.recs}
	for _, r := range moved.recs {
		r.owner = moved
	}

	l.recs = nil
	l.rev++

	return moved
}

// Clone returns a deep copy. Nested lists are copied too, so the clone and
// the original can be cleared in either order. External values are shared
// since the caller owns them.
func (l *List) Clone() *List {
	c := &List{recs: make([]*Record, len(l.recs))}
	for i, r := range l.recs {
		c.recs[i] = r.clone(c)
	}

	return c
}
