// Package codec stores whole record lists, sublists included, as msgpack.
//
// External values are caller-owned and never encoded. Bindings are not
// encoded either.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

// Version is the document version written by [Encode].
const Version = 1

// ErrVersion indicates a document written by an unknown format version.
var ErrVersion = errors.New("codec: unsupported version")

type document struct {
	Version int      `msgpack:"v"`
	Records []record `msgpack:"records"`
}

type record struct {
	Key     string   `msgpack:"k"`
	Value   string   `msgpack:"s,omitempty"`
	Data    string   `msgpack:"d,omitempty"`
	Num     int64    `msgpack:"n,omitempty"`
	Float   float64  `msgpack:"f,omitempty"`
	ATime   int64    `msgpack:"a,omitempty"`
	BTime   int64    `msgpack:"b,omitempty"`
	Reads   int      `msgpack:"r,omitempty"`
	Removed bool     `msgpack:"x,omitempty"`
	HasSub  bool     `msgpack:"h,omitempty"`
	Sub     []record `msgpack:"sub,omitempty"`
}

// Encode writes l to w.
func Encode(w io.Writer, l *reclist.List) error {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	enc.Reset(w)

	err := enc.Encode(document{Version: Version, Records: fromList(l)})
	if err != nil {
		return fmt.Errorf("codec: encode: %w", err)
	}

	return nil
}

// Marshal returns the encoding of l.
func Marshal(l *reclist.List) ([]byte, error) {
	var buf bytes.Buffer

	err := Encode(&buf, l)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode reads one list from r.
func Decode(r io.Reader) (*reclist.List, error) {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(r)

	var doc document

	err := dec.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}

	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}

	l := reclist.New()
	toList(l, doc.Records)

	return l, nil
}

// Unmarshal decodes a list from data.
func Unmarshal(data []byte) (*reclist.List, error) {
	return Decode(bytes.NewReader(data))
}

func fromList(l *reclist.List) []record {
	out := make([]record, 0, l.Len())

	for r := range l.All() {
		rec := record{
			Key:     r.Key(),
			Value:   r.Value(),
			Data:    r.Data(),
			Num:     r.Num,
			Float:   r.Float,
			ATime:   r.ATime,
			BTime:   r.BTime,
			Reads:   r.Reads,
			Removed: r.Removed(),
		}

		if sub := r.Sub(); sub != nil {
			rec.HasSub = true
			rec.Sub = fromList(sub)
		}

		out = append(out, rec)
	}

	return out
}

func toList(l *reclist.List, recs []record) {
	for _, rec := range recs {
		r := l.PushRecord(rec.Key, rec.Value)
		r.SetData(rec.Data)
		r.Num = rec.Num
		r.Float = rec.Float
		r.ATime = rec.ATime
		r.BTime = rec.BTime
		r.Reads = rec.Reads

		if rec.Removed {
			r.MarkRemoved()
		}

		if rec.HasSub {
			toList(r.SubList(), rec.Sub)
		}
	}
}
