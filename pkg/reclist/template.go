package reclist

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Template is a compiled output format. Compile once, execute per list.
//
// The format is literal text with escapes:
//
//	%Tk key          %Ta ATime     %Tf Float as %f
//	%Ts value        %Tb BTime     %Te Float as %e
//	%Tv value or key %Tn Num       %Tl key, then " value" if set
//	%Td data         %Tr Reads     %Tx external value via %v
//
// and suppression modes, which print nothing but drop a record's whole line
// when a field used on it is empty:
//
//	%Ov any of key, value, data   %Ok key   %Os value   %Od data
//
// An unknown escape is written as-is. The empty format prints
// "key[ value]\n" per record.
//
// %Tx formats whatever the caller stored with [Record.SetExternal]; the
// container knows nothing about its type.
type Template struct {
	parts []part
	modes mode
	empty bool
}

type mode uint8

const (
	modeAny mode = 1 << iota
	modeKey
	modeValue
	modeData
)

type part struct {
	lit   string
	field byte
}

// Compile parses format into a [Template]. It never fails: malformed escapes
// become literal text.
func Compile(format string) *Template {
	t := &Template{empty: format == ""}

	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			lit.WriteByte(c)

			continue
		}

		switch format[i+1] {
		case 'T':
			if i+2 < len(format) && isField(format[i+2]) {
				flush()
				t.parts = append(t.parts, part{field: format[i+2]})
				i += 2

				continue
			}
		case 'O':
			if i+2 < len(format) {
				if m, ok := modeOf(format[i+2]); ok {
					t.modes |= m
					i += 2

					continue
				}
			}
		}

		lit.WriteByte('%')
		lit.WriteByte(format[i+1])
		i++
	}

	flush()

	return t
}

func isField(c byte) bool {
	return strings.IndexByte("ksvdabnrfelx", c) >= 0
}

func modeOf(c byte) (mode, bool) {
	switch c {
	case 'v':
		return modeAny, true
	case 'k':
		return modeKey, true
	case 's':
		return modeValue, true
	case 'd':
		return modeData, true
	}

	return 0, false
}

// Execute renders every active record with a non-empty key to w and returns
// the number of bytes written.
func (t *Template) Execute(w io.Writer, l *List) (int, error) {
	var (
		total int
		line  []byte
	)

	for r := range l.Active() {
		if r.key == "" {
			continue
		}

		var show bool

		line, show = t.render(line[:0], r)
		if !show {
			continue
		}

		n, err := w.Write(line)
		total += n

		if err != nil {
			return total, fmt.Errorf("render %q: %w", r.key, err)
		}
	}

	return total, nil
}

// RenderRecord returns the rendered line for r and whether it survives the
// suppression modes.
func (t *Template) RenderRecord(r *Record) (string, bool) {
	b, ok := t.render(nil, r)

	return string(b), ok
}

func (t *Template) render(buf []byte, r *Record) ([]byte, bool) {
	if t.empty {
		return appendLine(buf, r, true), true
	}

	show := true
	strict := t.modes&modeAny != 0

	for _, p := range t.parts {
		if p.field == 0 {
			buf = append(buf, p.lit...)

			continue
		}

		switch p.field {
		case 'k':
			if r.key == "" && (strict || t.modes&modeKey != 0) {
				show = false
			}

			buf = append(buf, r.key...)
		case 's':
			if r.value == "" && (strict || t.modes&modeValue != 0) {
				show = false
			}

			buf = append(buf, r.value...)
		case 'v':
			if r.key == "" && r.value == "" && strict {
				show = false
			}

			buf = append(buf, r.ValueOrKey()...)
		case 'd':
			if r.data == "" && (strict || t.modes&modeData != 0) {
				show = false
			}

			buf = append(buf, r.data...)
		case 'a':
			buf = strconv.AppendInt(buf, r.ATime, 10)
		case 'b':
			buf = strconv.AppendInt(buf, r.BTime, 10)
		case 'n':
			buf = strconv.AppendInt(buf, r.Num, 10)
		case 'r':
			buf = strconv.AppendInt(buf, int64(r.Reads), 10)
		case 'f':
			buf = fmt.Appendf(buf, "%f", r.Float)
		case 'e':
			buf = fmt.Appendf(buf, "%e", r.Float)
		case 'l':
			if r.key == "" && (strict || t.modes&modeKey != 0) {
				show = false
			}

			if r.value == "" && (strict || t.modes&modeValue != 0) {
				show = false
			}

			buf = appendLine(buf, r, false)
		case 'x':
			if r.external != nil {
				buf = fmt.Appendf(buf, "%v", r.external)
			}
		}
	}

	return buf, show
}

func appendLine(buf []byte, r *Record, newline bool) []byte {
	buf = append(buf, r.key...)
	if r.value != "" {
		buf = append(buf, ' ')
		buf = append(buf, r.value...)
	}

	if newline {
		buf = append(buf, '\n')
	}

	return buf
}

// Render is shorthand for Compile(format).Execute(w, l).
func (l *List) Render(w io.Writer, format string) (int, error) {
	return Compile(format).Execute(w, l)
}
