package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/rocinante/internal/config"
	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/db"
	"github.com/javiermolinar/rocinante/internal/slotgrid"
)

// Wednesday
var testNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.Local)

func newTestStore(t *testing.T) *db.SQLite {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// run executes one command line on a fresh App, since cobra keeps flag
// values between executions of the same command tree.
func run(t *testing.T, store Store, args ...string) (string, error) {
	t.Helper()
	DisableColor()

	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "unused.db")

	app := NewApp(store, cfg)
	app.SetNow(func() time.Time { return testNow })
	app.SetConfigPath(filepath.Join(t.TempDir(), "config.toml"))
	var buf bytes.Buffer
	app.SetOutput(&buf)
	app.SetArgs(args)
	err := app.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, store Store, args ...string) string {
	t.Helper()
	out, err := run(t, store, args...)
	if err != nil {
		t.Fatalf("%s failed: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestVersion(t *testing.T) {
	out := mustRun(t, newTestStore(t), "version")
	if !strings.HasPrefix(out, "rocinante ") {
		t.Errorf("version output = %q", out)
	}
}

func TestAddAndList(t *testing.T) {
	store := newTestStore(t)

	out := mustRun(t, store, "add", "Math 1", "--date", "2025-01-15", "--start", "09:00", "--end", "10:00")
	if !strings.Contains(out, "Math 1") || !strings.Contains(out, "09:00-10:00") {
		t.Errorf("add output = %q", out)
	}

	out = mustRun(t, store, "list", "--start", "wed")
	for _, want := range []string{"Wednesday, January 15, 2025", "Math 1", "09:00-10:00", "1/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestAdd_Template(t *testing.T) {
	store := newTestStore(t)

	mustRun(t, store, "add", "--template", "focus", "--start", "14:00")

	ivs, err := store.List(context.Background(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(ivs) != 1 {
		t.Fatalf("stored %d intervals, want 1", len(ivs))
	}
	if ivs[0].Label != "Focus" || ivs[0].Start != 840 || ivs[0].End != 930 {
		t.Errorf("stored %q %d-%d, want Focus 840-930", ivs[0].Label, ivs[0].Start, ivs[0].End)
	}
}

func TestAdd_MissingEnd(t *testing.T) {
	_, err := run(t, newTestStore(t), "add", "Math", "--start", "09:00")
	if err == nil || !strings.Contains(err.Error(), "--end") {
		t.Errorf("add without end error = %v", err)
	}
}

func TestAdd_FirstFreeSlot(t *testing.T) {
	store := newTestStore(t)

	mustRun(t, store, "add", "Math 1", "--start", "09:00", "--end", "10:00")

	// today starts at now (09:00), the first gap is after Math 1
	out := mustRun(t, store, "add", "Piano", "--duration", "45")
	if !strings.Contains(out, "10:00-10:45") {
		t.Errorf("add output = %q, want Piano at 10:00-10:45", out)
	}

	// another day starts at the window start
	out = mustRun(t, store, "add", "Piano", "--date", "thu", "--duration", "45")
	if !strings.Contains(out, "06:00-06:45") {
		t.Errorf("add output = %q, want Piano at 06:00-06:45", out)
	}

	if _, err := run(t, store, "add", "Piano", "--end", "11:00"); err == nil {
		t.Error("--end without --start should fail")
	}
}

func TestAdd_BlockedByRule(t *testing.T) {
	store := newTestStore(t)

	mustRun(t, store, "rule", "add", "Math*", "Art*")
	mustRun(t, store, "add", "Math 1", "--start", "09:00", "--end", "10:00")

	_, err := run(t, store, "add", "Art 2", "--start", "09:30", "--end", "10:30")
	if !errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Fatalf("add error = %v, want restriction conflict", err)
	}

	// a touching block does not overlap
	mustRun(t, store, "add", "Art 2", "--start", "10:00", "--end", "11:00")

	ivs, _ := store.List(context.Background(), testNow)
	if len(ivs) != 2 {
		t.Errorf("stored %d intervals, want 2", len(ivs))
	}
}

func TestMove_KeepsDuration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustRun(t, store, "add", "Math 1", "--start", "09:00", "--end", "10:00")
	ivs, _ := store.List(ctx, testNow)
	if len(ivs) != 1 {
		t.Fatalf("stored %d intervals, want 1", len(ivs))
	}

	mustRun(t, store, "move", itoa(ivs[0].ID), "--date", "thu", "--start", "11:00")

	if left, _ := store.List(ctx, testNow); len(left) != 0 {
		t.Errorf("source day still has %d intervals", len(left))
	}
	moved, _ := store.List(ctx, testNow.AddDate(0, 0, 1))
	if len(moved) != 1 {
		t.Fatalf("target day has %d intervals, want 1", len(moved))
	}
	if moved[0].Start != 660 || moved[0].End != 720 {
		t.Errorf("moved to %d-%d, want 660-720", moved[0].Start, moved[0].End)
	}
}

func TestMove_Blocked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustRun(t, store, "rule", "add", "Math*", "Art*")
	mustRun(t, store, "add", "Math 1", "--start", "09:00", "--end", "10:00")
	mustRun(t, store, "add", "Art 2", "--start", "11:00", "--end", "12:00")

	var artID int64
	ivs, _ := store.List(ctx, testNow)
	for _, iv := range ivs {
		if iv.Label == "Art 2" {
			artID = iv.ID
		}
	}

	_, err := run(t, store, "move", itoa(artID), "--start", "09:30")
	if !errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Fatalf("move error = %v, want restriction conflict", err)
	}

	got, err := store.Get(ctx, artID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Start != 660 {
		t.Errorf("blocked move changed start to %d", got.Start)
	}
}

func TestShow(t *testing.T) {
	store := newTestStore(t)
	mustRun(t, store, "add", "Soccer", "--start", "16:00", "--end", "17:30", "--with", "ana", "--notes", "bring boots")

	out := mustRun(t, store, "show", "--verbose")
	for _, want := range []string{"Soccer", "16:00-17:30", "ana", "bring boots", "1h30m"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestRuleCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustRun(t, store, "rule", "add", "Math*", "Art*")
	if _, err := run(t, store, "rule", "add", "art*", "math*"); !errors.Is(err, conflict.ErrDuplicateRule) {
		t.Errorf("duplicate rule error = %v, want ErrDuplicateRule", err)
	}

	out := mustRun(t, store, "rule", "list")
	if !strings.Contains(out, "Math* / Art*") {
		t.Errorf("rule list output = %q", out)
	}

	rules, _ := store.ListRules(ctx)
	if len(rules) != 1 {
		t.Fatalf("stored %d rules, want 1", len(rules))
	}
	mustRun(t, store, "rule", "rm", rules[0].ID[:8])

	if rules, _ := store.ListRules(ctx); len(rules) != 0 {
		t.Errorf("rules after rm = %v", rules)
	}
	if _, err := run(t, store, "rule", "rm", "deadbeef"); !errors.Is(err, conflict.ErrRuleNotFound) {
		t.Errorf("rm unknown error = %v, want ErrRuleNotFound", err)
	}
}

func TestRuleImport(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := `rules:
  - a: "Math*"
    b: "Art*"
  - a: Piano
    b: Soccer
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, store, "rule", "import", path)
	if !strings.Contains(out, "Imported 2 rules") {
		t.Errorf("first import output = %q", out)
	}

	out = mustRun(t, store, "rule", "import", path)
	if !strings.Contains(out, "Imported 0 rules") || !strings.Contains(out, "2 already present") {
		t.Errorf("second import output = %q", out)
	}
}

func TestRuleImport_Invalid(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := `rules:
  - a: Math
    b: Art
  - a: ""
    b: Soccer
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, store, "rule", "import", path); err == nil {
		t.Fatal("import with an empty pattern should fail")
	}
	if rules, _ := store.ListRules(context.Background()); len(rules) != 0 {
		t.Errorf("a failed import stored %d rules", len(rules))
	}
}

func TestTokenCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustRun(t, store, "token", "add", "Lego", "--quantity", "1", "--duration", "60")

	out := mustRun(t, store, "token", "place", "Lego", "2025-01-15", "10:00")
	if !strings.Contains(out, "10:00-11:00") || !strings.Contains(out, "column 1") {
		t.Errorf("place output = %q", out)
	}

	if _, err := run(t, store, "token", "place", "lego", "2025-01-16", "10:00"); !errors.Is(err, slotgrid.ErrNoCapacity) {
		t.Errorf("placing an exhausted token error = %v, want ErrNoCapacity", err)
	}

	out = mustRun(t, store, "token", "list")
	if !strings.Contains(out, "0 left, used 1") || !strings.Contains(out, "2025-01-15") {
		t.Errorf("token list output = %q", out)
	}

	snap, err := store.LoadGrid(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Placements) != 1 {
		t.Fatalf("stored %d placements, want 1", len(snap.Placements))
	}
	mustRun(t, store, "token", "remove", snap.Placements[0].ID[:8])

	out = mustRun(t, store, "token", "list")
	if !strings.Contains(out, "1 left, used 1") {
		t.Errorf("usage should not drop on removal:\n%s", out)
	}
}

func TestTokenPlace_Force(t *testing.T) {
	store := newTestStore(t)

	mustRun(t, store, "rule", "add", "Lego", "Paint")
	mustRun(t, store, "token", "add", "Lego", "--quantity", "2")
	mustRun(t, store, "token", "add", "Paint", "--quantity", "2")
	mustRun(t, store, "token", "place", "Lego", "wed", "10:00")

	_, err := run(t, store, "token", "place", "Paint", "wed", "10:00")
	if !errors.Is(err, conflict.ErrRestrictionConflict) {
		t.Fatalf("place error = %v, want restriction conflict", err)
	}

	out := mustRun(t, store, "token", "place", "Paint", "wed", "10:00", "--force")
	if !strings.Contains(out, "Warning:") || !strings.Contains(out, "column 2") {
		t.Errorf("forced place output = %q", out)
	}
}

func TestTokenRestock(t *testing.T) {
	store := newTestStore(t)

	mustRun(t, store, "token", "add", "Lego", "--quantity", "1")
	out := mustRun(t, store, "token", "restock", "Lego", "2")
	if !strings.Contains(out, "3 units") {
		t.Errorf("restock output = %q", out)
	}
	if _, err := run(t, store, "token", "restock", "Lego", "-5"); !errors.Is(err, slotgrid.ErrInvalidQuantity) {
		t.Errorf("over-removing error = %v, want ErrInvalidQuantity", err)
	}
}

func TestConfig(t *testing.T) {
	DisableColor()
	path := filepath.Join(t.TempDir(), "config.toml")
	store := newTestStore(t)

	newApp := func(args ...string) (*App, *bytes.Buffer) {
		app := NewApp(store, config.Default())
		app.SetConfigPath(path)
		var buf bytes.Buffer
		app.SetOutput(&buf)
		app.SetArgs(args)
		return app, &buf
	}

	app, buf := newApp("config")
	if err := app.Execute(); err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Created "+path) || !strings.Contains(buf.String(), "[planner]") {
		t.Errorf("config output = %q", buf.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// window start, then keep every other value
	app, _ = newApp("config", "--edit")
	app.SetInput(strings.NewReader("7\n" + strings.Repeat("\n", 11)))
	if err := app.Execute(); err != nil {
		t.Fatalf("config --edit failed: %v", err)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Planner.WindowStart != 7 {
		t.Errorf("WindowStart = %d, want 7", cfg.Planner.WindowStart)
	}
	if cfg.Planner.SnapMinutes != config.Default().Planner.SnapMinutes {
		t.Errorf("SnapMinutes changed to %d", cfg.Planner.SnapMinutes)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
