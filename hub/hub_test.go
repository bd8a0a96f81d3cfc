package hub_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pryzma-lang/pryzma/hub"
	"github.com/pryzma-lang/pryzma/manifest"
)

func newTestHub(t *testing.T) (*hub.Hub, *bytes.Buffer) {
	t.Helper()
	mft := manifest.Default()
	mft.Database.Driver = "SQLite"
	mft.Database.Name = filepath.Join(t.TempDir(), "hub.db")
	out := &bytes.Buffer{}
	return hub.New(mft, strings.NewReader(""), out), out
}

func writeScript(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.pz")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunAndTalkToService(t *testing.T) {
	hb, out := newTestHub(t)
	script := writeScript(t, `x = 2`)
	hb.Do("hub run " + script + " as calc")
	if hb.CurrentServiceName() != "calc" {
		t.Fatalf("current service is %q", hb.CurrentServiceName())
	}
	out.Reset()
	hb.Do("x + 40")
	if out.String() != "42\n" {
		t.Errorf("service answered %q", out.String())
	}
	out.Reset()
	hb.Do("hub vars")
	if !strings.Contains(out.String(), "x = 2") {
		t.Errorf("vars dump was %q", out.String())
	}
}

func TestInputWithNoService(t *testing.T) {
	hb, out := newTestHub(t)
	hb.Do("1 + 1")
	if !strings.Contains(out.String(), "no service is running") {
		t.Errorf("got %q", out.String())
	}
}

func TestServiceListAndStop(t *testing.T) {
	hb, out := newTestHub(t)
	hb.Do("hub run " + writeScript(t, `a = 1`) + " as first")
	hb.Do("hub run " + writeScript(t, `b = 2`) + " as second")
	out.Reset()
	hb.Do("hub services")
	listing := out.String()
	if !strings.Contains(listing, "first") || !strings.Contains(listing, "second") {
		t.Errorf("listing was %q", listing)
	}
	if !strings.Contains(listing, "second (") || !strings.Contains(listing, "← current") {
		t.Errorf("current marker missing from %q", listing)
	}
	hb.Do("hub switch first")
	out.Reset()
	hb.Do("a")
	if out.String() != "1\n" {
		t.Errorf("first service answered %q", out.String())
	}
	hb.Do("hub stop first")
	if hb.CurrentServiceName() != "" {
		t.Errorf("current service survived its own stop")
	}
}

func TestBrokenServiceIsMarked(t *testing.T) {
	hb, _ := newTestHub(t)
	hb.Do("hub run " + writeScript(t, `nonsuch`) + " as broken")
	if !hb.CurrentServiceIsBroken() {
		t.Errorf("service should be broken")
	}
}

func TestQuit(t *testing.T) {
	hb, _ := newTestHub(t)
	if hb.Do("hub quit") != true {
		t.Errorf("quit not reported")
	}
	if hb.Do("hub services") != false {
		t.Errorf("ordinary command reported quit")
	}
}

func TestDbServiceStore(t *testing.T) {
	hb, out := newTestHub(t)
	hb.Do("hub db init")
	if !strings.Contains(out.String(), "ok") {
		t.Fatalf("db init said %q", out.String())
	}
	script := writeScript(t, `x = 1`)
	hb.Do("hub run " + script + " as keeper")
	hb.Do("hub db store")
	out.Reset()
	hb.Do("hub db stored")
	if !strings.Contains(out.String(), "keeper") || !strings.Contains(out.String(), script) {
		t.Errorf("stored listing was %q", out.String())
	}
	hb.Do("hub db forget keeper")
	out.Reset()
	hb.Do("hub db stored")
	if !strings.Contains(out.String(), "no services stored") {
		t.Errorf("after forget, listing was %q", out.String())
	}
}

func TestDbUsersAndAccess(t *testing.T) {
	hb, out := newTestHub(t)
	hb.Do("hub db init")
	hb.Do("hub db add admin alice hunter2 alice@example.com")
	hb.Do("hub db add user bob tinkerbell bob@example.com")
	hb.Do("hub db add group Devs")
	hb.Do("hub db join bob Devs")

	script := writeScript(t, `x = 1`)
	hb.Do("hub run " + script + " as payroll")
	hb.Do("hub db store payroll")
	hb.Do("hub db let Devs payroll")

	// Bob is in Devs, and Devs may use payroll.
	out.Reset()
	hb.Do("hub db login bob tinkerbell")
	if !strings.Contains(out.String(), "ok") {
		t.Fatalf("login said %q", out.String())
	}
	out.Reset()
	hb.Do("hub switch payroll")
	if !strings.Contains(out.String(), "ok") {
		t.Errorf("bob was refused: %q", out.String())
	}

	// Take the group's access away and bob is locked out.
	hb.Do("hub db unlet Devs payroll")
	out.Reset()
	hb.Do("hub switch payroll")
	if !strings.Contains(out.String(), "don't have access") {
		t.Errorf("bob got in anyway: %q", out.String())
	}

	// An admin can go anywhere.
	hb.Do("hub db login alice hunter2")
	out.Reset()
	hb.Do("hub switch payroll")
	if !strings.Contains(out.String(), "ok") {
		t.Errorf("the admin was refused: %q", out.String())
	}

	// A bad password doesn't log anyone in.
	out.Reset()
	hb.Do("hub db login bob wrong")
	if !strings.Contains(out.String(), "doesn't recognize") {
		t.Errorf("bad login said %q", out.String())
	}
}

func TestDbRunStoredService(t *testing.T) {
	hb, out := newTestHub(t)
	hb.Do("hub db init")
	script := writeScript(t, `x = 7`)
	hb.Do("hub run " + script + " as keeper")
	hb.Do("hub db store keeper")
	hb.Do("hub stop keeper")
	out.Reset()
	hb.Do("hub db run keeper")
	if !strings.Contains(out.String(), "ok") {
		t.Fatalf("db run said %q", out.String())
	}
	out.Reset()
	hb.Do("x")
	if !strings.Contains(out.String(), "7") {
		t.Errorf("the revived service said %q", out.String())
	}
}
