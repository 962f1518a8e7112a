package reclist

import "strings"

// Join concatenates active non-empty keys with sep. An empty sep means ",".
func (l *List) Join(sep string) string {
	if sep == "" {
		sep = ","
	}

	var b strings.Builder

	for r := range l.Active() {
		if r.key == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString(sep)
		}

		b.WriteString(r.key)
	}

	return b.String()
}

// Split builds a list from s, one record per field. A zero sep splits on
// runs of whitespace; otherwise empty fields are skipped.
func Split(s string, sep byte) *List {
	l := New()

	var fields []string
	if sep == 0 {
		fields = strings.Fields(s)
	} else {
		fields = strings.Split(s, string(sep))
	}

	for _, f := range fields {
		l.PushBack(f)
	}

	return l
}

// Argv returns the active keys as an argument vector.
func (l *List) Argv() []string {
	argv := make([]string, 0, len(l.recs))

	for r := range l.Active() {
		if r.key != "" {
			argv = append(argv, r.key)
		}
	}

	return argv
}

// SeparateAll applies [Record.Separate] to every active record. A zero sep
// means a space, and then keys starting with '#' or ';' are left alone.
func (l *List) SeparateAll(sep byte) {
	skipComments := sep == 0
	if skipComments {
		sep = ' '
	}

	for r := range l.Active() {
		if skipComments && r.key != "" && (r.key[0] == '#' || r.key[0] == ';') {
			continue
		}

		r.Separate(sep)
	}
}
