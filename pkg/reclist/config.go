package reclist

import (
	"strconv"
	"strings"
)

// BindKind names the destination type of a [Binding].
type BindKind uint8

const (
	BindNone BindKind = iota
	BindString
	BindInt
	BindInt64
	BindFlag
)

func (k BindKind) String() string {
	switch k {
	case BindString:
		return "string"
	case BindInt:
		return "int"
	case BindInt64:
		return "int64"
	case BindFlag:
		return "flag"
	}

	return "none"
}

// Binding records which caller variable a config record was last copied into.
type Binding struct {
	Kind BindKind
	Dest any
}

// CfString copies the value of r into dest when r's key is key.
// An empty value is copied too. Returns the value and whether the key matched.
// A nil dest only reports the value.
func CfString(r *Record, dest *string, key string) (string, bool) {
	if r == nil || r.key != key {
		return "", false
	}

	if dest != nil {
		*dest = r.value
		r.binding = Binding{Kind: BindString, Dest: dest}
	}

	return r.value, true
}

// CfInt parses the value of r as a decimal int into dest and Num.
// The key must match and the value must be non-empty. Text after the leading
// number is ignored and an unparsable number reads as 0.
func CfInt(r *Record, dest *int, key string) (string, bool) {
	if r == nil || r.key != key || r.value == "" {
		return "", false
	}

	if dest != nil {
		r.Num = parseLeadingInt(r.value, 10)
		*dest = int(r.Num)
		r.binding = Binding{Kind: BindInt, Dest: dest}
	}

	return r.value, true
}

// CfInt64 parses the value of r into dest and ATime. The base follows the
// Go literal prefix (0x, 0o, 0b, leading 0 for octal).
func CfInt64(r *Record, dest *int64, key string) (string, bool) {
	if r == nil || r.key != key || r.value == "" {
		return "", false
	}

	if dest != nil {
		r.ATime = parseLeadingInt(r.value, 0)
		*dest = r.ATime
		r.binding = Binding{Kind: BindInt64, Dest: dest}
	}

	return r.value, true
}

// CfFlag sets dest when r's key is key. A bare key or any value other than
// "0", "false", "no" or "off" means true. Num mirrors the result as 1 or 0.
func CfFlag(r *Record, dest *bool, key string) (string, bool) {
	if r == nil || r.key != key {
		return "", false
	}

	on := true

	switch strings.ToLower(r.value) {
	case "0", "false", "no", "off":
		on = false
	}

	if dest != nil {
		*dest = on
		r.Num = 0

		if on {
			r.Num = 1
		}

		r.binding = Binding{Kind: BindFlag, Dest: dest}
	}

	if r.value == "" {
		return "1", true
	}

	return r.value, true
}

func parseLeadingInt(s string, base int) int64 {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}

	n, err := strconv.ParseInt(s, base, 64)
	if err == nil {
		return n
	}

	// Fall back to the longest decimal prefix: "42ms" reads as 42.
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}

	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err = strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}

	return n
}
