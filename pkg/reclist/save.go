package reclist

import (
	"io"

	"github.com/calvinalkan/reclist/pkg/fs"
)

// RecordWriter serializes one record and returns the bytes it wrote.
// It is called once with a nil record for an optional header, then once per
// record, removed ones included.
type RecordWriter func(w io.Writer, r *Record) (int, error)

// Save writes l to path atomically.
//
// With a nil fn each active record with a key is written as "key[ value]\n",
// the format [ReadConfig] reads back. The summed byte count must match the
// temp file size or the target is left untouched; see [fs.SaveAtomic].
func Save(fsys fs.FS, l *List, path string, fn RecordWriter) error {
	return SaveFunc(fsys, path, func(w io.Writer) (int64, error) {
		return writeRecords(w, l, fn)
	})
}

// SaveFunc writes path atomically with a whole-file serializer.
func SaveFunc(fsys fs.FS, path string, fn fs.WriteFunc) error {
	if path == "" {
		return ErrEmptyPath
	}

	return fs.SaveAtomic(fsys, path, fn)
}

// WriteTo writes l in the default save format.
func (l *List) WriteTo(w io.Writer) (int64, error) {
	return writeRecords(w, l, nil)
}

func writeRecords(w io.Writer, l *List, fn RecordWriter) (int64, error) {
	var total int64

	if fn != nil {
		n, err := fn(w, nil)
		total += int64(n)

		if err != nil {
			return total, err
		}

		for _, r := range l.recs {
			n, err := fn(w, r)
			total += int64(n)

			if err != nil {
				return total, err
			}
		}

		return total, nil
	}

	var line []byte

	for _, r := range l.recs {
		if r.removed || r.key == "" {
			continue
		}

		line = appendLine(line[:0], r, true)

		n, err := w.Write(line)
		total += int64(n)

		if err != nil {
			return total, err
		}
	}

	return total, nil
}
