package reclist_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

func render(t *testing.T, l *reclist.List, format string) string {
	t.Helper()

	var buf bytes.Buffer

	n, err := l.Render(&buf, format)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n, "reported count must match bytes written")

	return buf.String()
}

func Test_Template_Falls_Back_To_Key_When_Value_Missing(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBack("host")

	assert.Equal(t, "host=host\n", render(t, l, "%Tk=%Tv\n"))
}

func Test_Template_Prints_Key_And_Value_When_Format_Empty(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBackValue("port", "80")
	l.PushBack("debug")
	l.PushBack("gone").MarkRemoved()

	assert.Equal(t, "port 80\ndebug\n", render(t, l, ""))
}

func Test_Template_Renders_Every_Field_When_Selected(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBackValue("k", "v")
	r.SetData("d")
	r.ATime = 10
	r.BTime = -2
	r.Num = 3
	r.Float = 1.5
	r.Touch()
	require.NoError(t, r.SetExternal("ext"))

	got := render(t, l, "%Tk|%Ts|%Tv|%Td|%Ta|%Tb|%Tn|%Tr|%Tf|%Te|%Tl|%Tx\n")

	assert.Equal(t, "k|v|v|d|10|-2|3|1|1.500000|1.500000e+00|k v|ext\n", got)
}

func Test_Template_Emits_Unknown_Escapes_Literally_When_Not_Recognized(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBack("k")

	assert.Equal(t, "%Q %TZ %Oz 100%% %T k%", render(t, l, "%Q %TZ %Oz 100%% %T %Tk%"))
}

func Test_Template_Suppresses_Line_When_Mode_Field_Empty(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBackValue("full", "1").SetData("note")
	l.PushBackValue("nodata", "2")
	l.PushBack("novalue").SetData("note")

	testCases := []struct {
		name   string
		format string
		want   string
	}{
		{name: "NoMode", format: "%Tk:%Ts:%Td\n", want: "full:1:note\nnodata:2:\nnovalue::note\n"},
		{name: "ValueMode", format: "%Os%Tk=%Ts\n", want: "full=1\nnodata=2\n"},
		{name: "DataMode", format: "%Od%Tk %Td\n", want: "full note\nnovalue note\n"},
		{name: "AnyMode", format: "%Ov%Tk %Ts %Td\n", want: "full 1 note\n"},
		{name: "ModeOnlyAffectsUsedFields", format: "%Od%Tk\n", want: "full\nnodata\nnovalue\n"},
		{name: "LineField", format: "%Os[%Tl]\n", want: "[full 1]\n[nodata 2]\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, render(t, l, tc.format))
		})
	}
}

func Test_Template_Skips_Removed_And_Keyless_Records_When_Executing(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushRecord("", "array element")
	l.PushBack("a")
	l.PushBack("b").MarkRemoved()

	tmpl := reclist.Compile("<%Tk>")

	var buf bytes.Buffer

	n, err := tmpl.Execute(&buf, l)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "<a>", buf.String())

	line, ok := tmpl.RenderRecord(l.Find("a"))
	assert.True(t, ok)
	assert.Equal(t, "<a>", line)
}
