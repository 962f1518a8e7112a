package reclist_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

type kv struct {
	Key, Value string
}

func pairs(l *reclist.List) []kv {
	var out []kv
	for r := range l.Active() {
		out = append(out, kv{r.Key(), r.Value()})
	}

	return out
}

func allKeys(l *reclist.List) []string {
	var out []string
	for r := range l.All() {
		out = append(out, r.Key())
	}

	return out
}

func Test_List_PushBack_Keeps_Insertion_Order_When_Keys_Appended(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	for _, k := range []string{"k1", "k2", "k3", "k2"} {
		l.PushBack(k)
	}

	assert.Empty(t, cmp.Diff([]string{"k1", "k2", "k3", "k2"}, allKeys(l)))
	assert.Equal(t, 4, l.Len())
}

func Test_List_PushFront_Prepends_When_Keys_Inserted(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushFront("a")
	l.PushFront("b")
	l.PushFrontValue("c", "3")

	assert.Empty(t, cmp.Diff([]string{"c", "b", "a"}, allKeys(l)))
	assert.Equal(t, "3", l.At(0).Value())
}

func Test_List_Insert_Returns_Nil_When_Key_Empty(t *testing.T) {
	t.Parallel()

	l := reclist.New()

	assert.Nil(t, l.PushBack(""))
	assert.Nil(t, l.PushFront(""))
	assert.Nil(t, l.InsertSorted(""))
	assert.Nil(t, l.UpsertBack(""))
	assert.Equal(t, 0, l.Len())
}

func Test_List_InsertSorted_Places_Ties_After_Equal_Keys_When_Duplicates_Inserted(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.InsertSortedValue("b", "1")
	l.InsertSortedValue("a", "2")
	l.InsertSortedValue("c", "3")
	l.InsertSortedValue("b", "4")

	want := []kv{{"a", "2"}, {"b", "1"}, {"b", "4"}, {"c", "3"}}
	assert.Empty(t, cmp.Diff(want, pairs(l)))
}

func Test_List_Find_Skips_Removed_When_FindAny_Does_Not(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBackValue("host", "a")
	l.PushBackValue("port", "80")

	r.MarkRemoved()

	assert.Nil(t, l.Find("host"))
	assert.Same(t, r, l.FindAny("host"))
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, 2, l.Len())

	n := l.Purge()
	assert.Equal(t, 1, n)
	assert.Nil(t, l.FindAny("host"))
	assert.Empty(t, cmp.Diff([]string{"port"}, allKeys(l)))
}

func Test_List_Purge_Preserves_Survivor_Order_When_Interleaved_Removals(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		l.PushBack(k)
	}

	l.Remove("b")
	l.Remove("d")

	assert.Equal(t, 2, l.Purge())
	assert.Empty(t, cmp.Diff([]string{"a", "c", "e"}, allKeys(l)))
	assert.Equal(t, 0, l.Purge())
}

func Test_List_Find_Returns_First_Match_When_Keys_Duplicated(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	first := l.PushBackValue("x", "1")
	l.PushBackValue("x", "2")

	assert.Same(t, first, l.Find("x"))

	first.MarkRemoved()
	assert.Equal(t, "2", l.Find("x").Value())
}

func Test_List_UpsertBack_Revives_Same_Record_When_Key_Soft_Deleted(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBackValue("k", "v")
	l.PushBack("other")
	r.MarkRemoved()

	got := l.UpsertBack("k")

	require.Same(t, r, got)
	assert.False(t, got.Removed())
	assert.Equal(t, "v", got.Value())
	assert.Equal(t, 2, l.Len())
}

func Test_List_Upsert_Inserts_At_Position_When_Key_Missing(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBack("m")

	l.UpsertFront("a")
	l.UpsertBack("z")
	l.UpsertSorted("n")

	assert.Empty(t, cmp.Diff([]string{"a", "m", "n", "z"}, allKeys(l)))
}

func Test_List_FindOrPushFront_Does_Not_Revive_When_Match_Removed(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	old := l.PushBack("k")
	old.MarkRemoved()

	got := l.FindOrPushFront("k")

	assert.NotSame(t, old, got)
	assert.True(t, old.Removed())
	assert.Same(t, got, l.At(0))
	assert.Same(t, got, l.FindOrPushFront("k"))
}

func Test_List_FindPair_Matches_Empty_Value_Only_When_Record_Value_Empty(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	withValue := l.PushBackValue("k", "v")
	bare := l.PushBack("k")

	assert.Same(t, bare, l.FindPair("k", ""))
	assert.Same(t, withValue, l.FindPair("k", "v"))
	assert.Nil(t, l.FindPair("k", "other"))
}

func Test_List_FindPrefix_Matches_First_N_Bytes_When_N_Positive(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushRecord("", "synthetic")
	l.PushBack("verbose")
	l.PushBack("version")

	assert.Equal(t, "verbose", l.FindPrefix(3, "vers").Key())
	assert.Equal(t, "version", l.FindPrefix(4, "vers").Key())
	assert.Equal(t, "version", l.FindPrefix(0, "version").Key())
	assert.Nil(t, l.FindPrefix(0, "vers"))
	assert.Nil(t, l.FindPrefix(5, "ver"), "key shorter than n")
	assert.Nil(t, l.FindPrefix(3, "xyz"))
}

func Test_List_FindNum_Ignores_Zero_When_Searching(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBack("a")
	b := l.PushBack("b")
	b.Num = 7

	assert.Nil(t, l.FindNum(0))
	assert.Same(t, b, l.FindNum(7))
}

func Test_List_Pull_Returns_Value_And_Removes_When_Key_Active(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBackValue("token", "abc")

	v, ok := l.Pull("token")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = l.Pull("token")
	assert.False(t, ok)
}

func Test_List_Sort_Is_Stable_When_Keys_Equal(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBackValue("b", "1")
	l.PushBackValue("a", "2")
	l.PushBackValue("b", "3")

	l.Sort(nil)

	want := []kv{{"a", "2"}, {"b", "1"}, {"b", "3"}}
	assert.Empty(t, cmp.Diff(want, pairs(l)))
}

func Test_List_Sort_Treats_Empty_Keys_As_Equal_When_Comparator_Nil(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBack("b")
	l.PushRecord("", "anon")
	l.PushBack("a")

	l.Sort(nil)

	want := []kv{{"a", ""}, {"b", ""}, {"", "anon"}}
	assert.Empty(t, cmp.Diff(want, pairs(l)))
	assert.Equal(t, 0, reclist.ByKey(l.At(0), l.At(2)))
}

func Test_List_Sort_Uses_Comparator_When_Given(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	for i, k := range []string{"x", "y", "z"} {
		l.PushBack(k).Num = int64(3 - i)
	}

	l.Sort(func(a, b *reclist.Record) int { return int(a.Num - b.Num) })

	assert.Empty(t, cmp.Diff([]string{"z", "y", "x"}, allKeys(l)))
}

func Test_List_Reverse_Flips_Order_When_Called(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	for _, k := range []string{"1", "2", "3"} {
		l.PushBack(k)
	}

	l.Reverse()

	assert.Empty(t, cmp.Diff([]string{"3", "2", "1"}, allKeys(l)))
}

func Test_List_Take_Moves_Records_When_Called(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBack("a")

	moved := l.Take()

	assert.Equal(t, 0, l.Len())
	assert.Same(t, r, moved.Find("a"))

	rev := moved.Revision()
	r.SetValue("v")
	assert.NotEqual(t, rev, moved.Revision(), "moved records report to the new list")
}

func Test_List_Clone_Is_Independent_When_Original_Cleared_First(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBackValue("opt", "1")
	r.Link("sub-a")
	r.Link("sub-b")

	c := l.Clone()
	l.Clear()

	cr := c.Find("opt")
	require.NotNil(t, cr)
	assert.Equal(t, "1", cr.Value())
	assert.Empty(t, cmp.Diff([]string{"sub-b", "sub-a"}, allKeys(cr.Sub())))
}

func Test_List_Clone_Is_Independent_When_Clone_Cleared_First(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBack("opt")
	r.Link("sub")

	c := l.Clone()
	c.Find("opt").Sub().Clear()
	c.Clear()

	assert.Equal(t, 1, l.Len())
	assert.NotNil(t, r.Sub().Find("sub"))
	assert.NotSame(t, r.Sub(), l.Clone().Find("opt").Sub())
}

func Test_Record_Link_Revives_Sub_Entry_When_Removed(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBack("parent")

	child := r.Link("child")
	require.NoError(t, child.SetExternal(42))
	child.MarkRemoved()

	assert.Nil(t, r.LinkExternal("child"))

	again := r.Link("child")
	assert.Same(t, child, again)
	assert.Equal(t, 42, r.LinkExternal("child"))
	assert.Nil(t, r.Link(""))
}

func Test_Record_SetExternal_Refuses_When_Already_Set(t *testing.T) {
	t.Parallel()

	r := reclist.New().PushBack("k")

	require.NoError(t, r.SetExternal("first"))
	require.ErrorIs(t, r.SetExternal("second"), reclist.ErrExternalSet)
	assert.Equal(t, "first", r.External())
}

func Test_Record_Separate_Splits_Key_When_Value_Empty(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	r := l.PushBack("name=value=x")
	kept := l.PushBackValue("a=b", "set")

	assert.True(t, r.Separate('='))
	assert.Equal(t, "name", r.Key())
	assert.Equal(t, "value=x", r.Value())

	assert.False(t, kept.Separate('='))
	assert.Equal(t, "a=b", kept.Key())
}

func Test_List_SeparateAll_Skips_Comments_When_Sep_Zero(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushBack("host example.org")
	l.PushBack("# a comment")

	l.SeparateAll(0)

	assert.Empty(t, cmp.Diff([]kv{{"host", "example.org"}, {"# a comment", ""}}, pairs(l)))
}

func Test_List_Join_Uses_Comma_When_Sep_Empty(t *testing.T) {
	t.Parallel()

	l := reclist.Split("a b\tc", 0)
	l.Remove("b")

	assert.Equal(t, "a,c", l.Join(""))
	assert.Equal(t, "a:c", l.Join(":"))
	assert.Empty(t, cmp.Diff([]string{"a", "c"}, l.Argv()))
}

func Test_Split_Skips_Empty_Fields_When_Sep_Given(t *testing.T) {
	t.Parallel()

	l := reclist.Split("a,,b,", ',')

	assert.Empty(t, cmp.Diff([]string{"a", "b"}, allKeys(l)))
}

func Test_List_HasActive_Ignores_Empty_Keys_When_Checking(t *testing.T) {
	t.Parallel()

	l := reclist.New()
	l.PushRecord("", "x")
	assert.False(t, l.HasActive())

	r := l.PushBack("k")
	assert.True(t, l.HasActive())

	r.MarkRemoved()
	assert.False(t, l.HasActive())
}

func Test_Record_Touch_Counts_Reads_When_Called(t *testing.T) {
	t.Parallel()

	r := reclist.New().PushBack("k")
	r.Touch()
	r.Touch()

	assert.Equal(t, 2, r.Reads)
}
