// Package jsontree converts between JSON text and record-list trees.
//
// Every JSON value becomes one [reclist.Record]:
//
//   - Key is the object member name, empty for array elements and roots.
//   - Data is the kind: "object", "array", "string", "number", "bool", "null".
//   - Value is the scalar text: the unescaped string, the number exactly as
//     written, "true"/"false", or empty for null and containers.
//   - Sub holds the members or elements of objects and arrays.
//
// Numbers also fill Float, and Num when they are integers; bools set Num to 1
// or 0. The top-level list holds one record per value in the input stream.
package jsontree

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

// Kinds stored in Record.Data.
const (
	KindObject = "object"
	KindArray  = "array"
	KindString = "string"
	KindNumber = "number"
	KindBool   = "bool"
	KindNull   = "null"
)

// DefaultIndent is the indent [Write] uses when none is given.
const DefaultIndent = "    "

type frame struct {
	list     *reclist.List
	isObject bool
	name     string
	haveName bool
}

// Parse reads every JSON value from r into a list of root records.
func Parse(r io.Reader) (*reclist.List, error) {
	dec := jsontext.NewDecoder(r)
	root := reclist.New()
	stack := []*frame{{list: root}}

	for {
		tok, err := dec.ReadToken()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("jsontree: %w", err)
		}

		top := stack[len(stack)-1]
		kind := tok.Kind()

		if kind == '}' || kind == ']' {
			stack = stack[:len(stack)-1]

			continue
		}

		if top.isObject && !top.haveName {
			top.name, top.haveName = tok.String(), true

			continue
		}

		rec := top.list.PushRecord(top.name, "")
		top.name, top.haveName = "", false

		switch kind {
		case '{':
			rec.SetData(KindObject)
			stack = append(stack, &frame{list: rec.SubList(), isObject: true})
		case '[':
			rec.SetData(KindArray)
			stack = append(stack, &frame{list: rec.SubList()})
		case '"':
			rec.SetData(KindString)
			rec.SetValue(tok.String())
		case '0':
			rec.SetData(KindNumber)
			rec.SetValue(tok.String())
			rec.Float = tok.Float()

			if n, err := strconv.ParseInt(tok.String(), 10, 64); err == nil {
				rec.Num = n
			}
		case 't', 'f':
			rec.SetData(KindBool)
			rec.SetValue(strconv.FormatBool(tok.Bool()))

			if tok.Bool() {
				rec.Num = 1
			}
		case 'n':
			rec.SetData(KindNull)
		}
	}

	return root, nil
}

// Write encodes each active root record of l as a JSON value. An empty
// indent writes compact JSON.
func Write(w io.Writer, l *reclist.List, indent string) error {
	enc := newEncoder(w, indent)

	for r := range l.Active() {
		err := writeValue(enc, r)
		if err != nil {
			return fmt.Errorf("jsontree: %w", err)
		}
	}

	return nil
}

// WriteRecord encodes r and its subtree as one JSON value.
func WriteRecord(w io.Writer, r *reclist.Record, indent string) error {
	err := writeValue(newEncoder(w, indent), r)
	if err != nil {
		return fmt.Errorf("jsontree: %w", err)
	}

	return nil
}

func newEncoder(w io.Writer, indent string) *jsontext.Encoder {
	if indent == "" {
		return jsontext.NewEncoder(w)
	}

	return jsontext.NewEncoder(w, jsontext.Multiline(true), jsontext.WithIndent(indent), jsontext.SpaceAfterColon(true))
}

func writeValue(enc *jsontext.Encoder, r *reclist.Record) error {
	switch kindOf(r) {
	case KindObject:
		return writeContainer(enc, r, jsontext.BeginObject, jsontext.EndObject, true)
	case KindArray:
		return writeContainer(enc, r, jsontext.BeginArray, jsontext.EndArray, false)
	case KindNumber:
		return enc.WriteValue(jsontext.Value(r.Value()))
	case KindBool:
		return enc.WriteToken(jsontext.Bool(r.Value() == "true"))
	case KindNull:
		return enc.WriteToken(jsontext.Null)
	}

	return enc.WriteToken(jsontext.String(r.Value()))
}

func writeContainer(enc *jsontext.Encoder, r *reclist.Record, begin, end jsontext.Token, named bool) error {
	err := enc.WriteToken(begin)
	if err != nil {
		return err
	}

	if sub := r.Sub(); sub != nil {
		for c := range sub.Active() {
			if named {
				err = enc.WriteToken(jsontext.String(c.Key()))
				if err != nil {
					return err
				}
			}

			err = writeValue(enc, c)
			if err != nil {
				return err
			}
		}
	}

	return enc.WriteToken(end)
}

// kindOf falls back for records built by hand: with a sublist they are
// objects, otherwise strings.
func kindOf(r *reclist.Record) string {
	switch d := r.Data(); d {
	case KindObject, KindArray, KindString, KindNumber, KindBool, KindNull:
		return d
	}

	if r.Sub() != nil {
		return KindObject
	}

	return KindString
}

// Lookup walks path from the first root record. Object steps match member
// names, array steps are decimal indexes. Returns nil when a step is missing.
func Lookup(l *reclist.List, path ...string) *reclist.Record {
	if l.Len() == 0 {
		return nil
	}

	cur := l.At(0)

	for _, step := range path {
		sub := cur.Sub()
		if sub == nil {
			return nil
		}

		switch cur.Data() {
		case KindArray:
			i, err := strconv.Atoi(step)
			if err != nil || i < 0 || i >= sub.Len() {
				return nil
			}

			cur = sub.At(i)
		default:
			cur = sub.Find(step)
			if cur == nil {
				return nil
			}
		}
	}

	return cur
}
