package cli_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/reclist/internal/cli"
)

func Test_Dump_Then_Load_Round_Trips_When_Snapshot_Written(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("app.cfg", "b 2\na 1\nflag\n")

	c.MustRun("dump", "app.cfg", "snap.mp")

	if diff := cmp.Diff("b 2\na 1\nflag\n", c.MustRun("load", "snap.mp")); diff != "" {
		t.Errorf("load mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("b\na\nflag\n", c.MustRun("load", "-f", "%Tk", "snap.mp")); diff != "" {
		t.Errorf("load -f mismatch (-want +got):\n%s", diff)
	}
}

func Test_Load_Fails_When_Snapshot_Corrupt(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("snap.mp", "not msgpack")

	c.MustFail("load", "snap.mp")
}

func Test_Db_Put_Get_Ls_Rm_When_Store_Used(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("web.cfg", "host a\nport 80\n")

	c.MustRun("db", "put", "web", "web.cfg")
	c.MustRun("db", "put", "cmd", ":echo x 1")

	if diff := cmp.Diff("cmd\nweb\n", c.MustRun("db", "ls")); diff != "" {
		t.Errorf("ls mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("host a\nport 80\n", c.MustRun("db", "get", "web")); diff != "" {
		t.Errorf("get mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("1\n", c.MustRun("db", "get", "-f", "%Ts", "cmd")); diff != "" {
		t.Errorf("get -f mismatch (-want +got):\n%s", diff)
	}

	c.MustRun("db", "rm", "web")

	stderr := c.MustFail("db", "get", "web")
	cli.AssertContains(t, stderr, "boltstore: not found")

	stderr = c.MustFail("db", "rm", "web")
	cli.AssertContains(t, stderr, "boltstore: not found")
}

func Test_Db_Uses_Store_Flag_When_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("db", "--store", "other.db", "put", "x", ":echo k")

	if got := c.MustRun("db", "ls"); got != "" {
		t.Errorf("default store should be empty, got %q", got)
	}

	if diff := cmp.Diff("x\n", c.MustRun("db", "--store", "other.db", "ls")); diff != "" {
		t.Errorf("ls mismatch (-want +got):\n%s", diff)
	}
}

func Test_Db_Fails_When_Subcommand_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cli.AssertContains(t, c.MustFail("db"), "needs a subcommand")
	cli.AssertContains(t, c.MustFail("db", "frob"), "unknown subcommand")
	cli.AssertContains(t, c.MustFail("db", "get"), "wrong number of arguments")
}
