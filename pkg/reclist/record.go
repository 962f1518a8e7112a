package reclist

// Record is one entry of a [List].
//
// Text fields use the empty string for "absent". Records are created only by
// List insertion methods; the zero Record is not attached to any list.
type Record struct {
	key   string
	value string
	data  string

	external any

	// Scalars with no meaning to the container.
	Num   int64
	Float float64
	ATime int64
	BTime int64

	// Reads counts [Record.Touch] calls.
	Reads int

	removed bool
	sub     *List
	binding Binding
	owner   *List
}

// Key returns the lookup key.
func (r *Record) Key() string { return r.key }

// Value returns the value text, empty when absent.
func (r *Record) Value() string { return r.value }

// ValueOrKey returns the value, or the key when the value is empty.
func (r *Record) ValueOrKey() string {
	if r.value != "" {
		return r.value
	}

	return r.key
}

// Data returns the secondary annotation text.
func (r *Record) Data() string { return r.data }

// External returns the caller-owned value stored with [Record.SetExternal].
func (r *Record) External() any { return r.external }

// Removed reports whether the record is soft-deleted.
func (r *Record) Removed() bool { return r.removed }

// Sub returns the nested list, nil until [Record.Link] creates it.
func (r *Record) Sub() *List { return r.sub }

// Binding returns the destination recorded by the last successful Cf* accessor.
func (r *Record) Binding() Binding { return r.binding }

// SetKey replaces the key. Invalidates any [Index] over the owning list.
func (r *Record) SetKey(key string) {
	r.key = key
	r.changed()
}

// SetValue replaces the value. Invalidates any [Index] over the owning list.
func (r *Record) SetValue(value string) {
	r.value = value
	r.changed()
}

// SetData replaces the secondary text.
func (r *Record) SetData(data string) {
	r.data = data
}

// SetExternal stores v in the external slot. The slot is write-once:
// a second call returns [ErrExternalSet] and leaves the first value.
// A nil v is ignored.
func (r *Record) SetExternal(v any) error {
	if v == nil {
		return nil
	}

	if r.external != nil {
		return ErrExternalSet
	}

	r.external = v

	return nil
}

// Touch increments Reads.
func (r *Record) Touch() {
	r.Reads++
}

// MarkRemoved soft-deletes the record.
func (r *Record) MarkRemoved() {
	if r.removed {
		return
	}

	r.removed = true
	r.changed()
}

// Restore clears the soft-delete marker.
func (r *Record) Restore() {
	if !r.removed {
		return
	}

	r.removed = false
	r.changed()
}

// Separate splits the key at the first sep byte into key and value.
// It only applies when the value is empty and sep occurs in the key.
func (r *Record) Separate(sep byte) bool {
	if r.value != "" {
		return false
	}

	for i := 0; i < len(r.key); i++ {
		if r.key[i] == sep {
			r.value = r.key[i+1:]
			r.key = r.key[:i]
			r.changed()

			return true
		}
	}

	return false
}

// Link upserts key into the record's nested list, creating it on first use.
// A removed entry with the same key is revived. Returns nil for an empty key.
func (r *Record) Link(key string) *Record {
	if key == "" {
		return nil
	}

	if r.sub == nil {
		r.sub = New()
	}

	return r.sub.UpsertFront(key)
}

// SubList returns the nested list, creating it empty on first use.
func (r *Record) SubList() *List {
	if r.sub == nil {
		r.sub = New()
	}

	return r.sub
}

// LinkExternal returns the external value of the active nested entry key.
func (r *Record) LinkExternal(key string) any {
	if r.sub == nil {
		return nil
	}

	return r.sub.External(key)
}

func (r *Record) changed() {
	if r.owner != nil {
		r.owner.rev++
	}
}

func (r *Record) clone(owner *List) *Record {
	c := *r
	c.owner = owner

	if r.sub != nil {
		c.sub = r.sub.Clone()
	}

	return &c
}
