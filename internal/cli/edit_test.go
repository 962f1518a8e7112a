package cli_test

import (
	"testing"

	"github.com/calvinalkan/reclist/internal/cli"
	"github.com/calvinalkan/reclist/pkg/fs"
)

func Test_Set_Get_Del_Round_Trip_When_File_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("set", "app.cfg", "host", "example.com")
	c.MustRun("set", "app.cfg", "greeting", "hello", "world")

	if got, want := c.ReadFile("app.cfg"), "host example.com\ngreeting hello world\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}

	if got, want := c.MustRun("get", "app.cfg", "greeting"), "hello world\n"; got != want {
		t.Errorf("get=%q, want=%q", got, want)
	}

	c.MustRun("del", "app.cfg", "host")

	stderr := c.MustFail("get", "app.cfg", "host")
	cli.AssertContains(t, stderr, "not found")

	if got, want := c.ReadFile("app.cfg"), "greeting hello world\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Set_Keeps_Position_When_Key_Exists(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "a 1\nb 2\n")

	c.MustRun("set", "app.cfg", "a", "9")

	if got, want := c.ReadFile("app.cfg"), "a 9\nb 2\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Set_Inserts_At_Position_When_Placement_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "a 1\nc 3\n")

	c.MustRun("set", "--sorted", "app.cfg", "b", "2")
	c.MustRun("set", "--front", "app.cfg", "z", "0")

	if got, want := c.ReadFile("app.cfg"), "z 0\na 1\nb 2\nc 3\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Set_Stores_Bare_Key_When_Value_Omitted(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("set", "app.cfg", "debug")

	if got, want := c.ReadFile("app.cfg"), "debug\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Del_Fails_When_Key_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "a 1\n")

	stderr := c.MustFail("del", "app.cfg", "nope")
	cli.AssertContains(t, stderr, "reclist: not found: nope")

	if got, want := c.ReadFile("app.cfg"), "a 1\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Del_Removes_Every_Match_When_All_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "a 1\nb 2\na 3\n")

	c.MustRun("del", "--all", "app.cfg", "a")

	if got, want := c.ReadFile("app.cfg"), "b 2\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Get_Matches_Prefix_When_Prefix_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "verbose 1\nversion 2\n")

	if got, want := c.MustRun("get", "-p", "4", "app.cfg", "vers"), "2\n"; got != want {
		t.Errorf("get=%q, want=%q", got, want)
	}

	if got, want := c.MustRun("get", "-p", "3", "app.cfg", "vers"), "1\n"; got != want {
		t.Errorf("get=%q, want=%q", got, want)
	}
}

func Test_Get_Prints_Key_When_Value_Empty_And_Or_Key_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "debug\n")

	if got, want := c.MustRun("get", "--or-key", "app.cfg", "debug"), "debug\n"; got != want {
		t.Errorf("get=%q, want=%q", got, want)
	}

	if got, want := c.MustRun("get", "app.cfg", "debug"), "\n"; got != want {
		t.Errorf("get=%q, want=%q", got, want)
	}
}

func Test_Sort_Rewrites_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "b 2\na 1\nc 0\n")

	c.MustRun("sort", "app.cfg")

	if got, want := c.ReadFile("app.cfg"), "a 1\nb 2\nc 0\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}

	c.MustRun("sort", "-r", "app.cfg")

	if got, want := c.ReadFile("app.cfg"), "c 0\nb 2\na 1\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Sort_Fails_When_File_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stderr := c.MustFail("sort", "missing.cfg")
	cli.AssertContains(t, stderr, "not found")
}

func Test_Cmp_Succeeds_When_Lines_Equal(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("want.txt", "alpha\nbeta\n")
	c.WriteFile("got.txt", "alpha\nbeta\n")

	c.MustRun("cmp", "want.txt", "got.txt")
	c.MustRun("cmp", "want.txt", ":printf 'alpha\\nbeta\\n'")
}

func Test_Cmp_Fails_When_Lines_Differ(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("want.txt", "alpha\nbeta\n")
	c.WriteFile("got.txt", "alpha\ngamma\n")

	stderr := c.MustFail("cmp", "want.txt", "got.txt")
	cli.AssertContains(t, stderr, "mismatch")
	cli.AssertContains(t, stderr, "line 2")
}

func Test_Set_Fails_When_File_Locked_By_Another_Editor(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".recl.json", `{"lock_timeout": "20ms"}`)
	path := c.WriteFile("app.cfg", "a 1\n")

	lk, err := fs.NewLocker().Lock(path + ".lock")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	stderr := c.MustFail("set", "app.cfg", "a", "2")
	cli.AssertContains(t, stderr, "lock would block")

	if err := lk.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c.MustRun("set", "app.cfg", "a", "2")

	if got, want := c.ReadFile("app.cfg"), "a 2\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}
