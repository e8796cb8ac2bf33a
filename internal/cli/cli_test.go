package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/config"
	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// testEnv is an isolated config directory with a fast tick interval.
type testEnv struct {
	cfgPath string
	dbPath  string
	stderr  string // log output of the last run
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{config.EnvDB, config.EnvLogLevel, config.EnvLogFile, config.EnvExportDir} {
		t.Setenv(key, "")
	}
	chdir(t, t.TempDir())

	dir := t.TempDir()
	env := &testEnv{
		cfgPath: filepath.Join(dir, "config.yaml"),
		dbPath:  filepath.Join(dir, "studytrack.db"),
	}
	content := "tick_interval: 5ms\nlog_level: warn\nexport_dir: " + filepath.Join(dir, "exports") + "\n"
	if err := os.WriteFile(env.cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

// resetFlags puts every flag of the tree back to its default, since cobra
// keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the command tree and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	if err != nil {
		_ = teardown()
	}
	e.stderr = errOut.String()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("studytrack %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// open returns a store on the same file the commands use.
func (e *testEnv) open(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(e.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func today() time.Time {
	return store.DateOf(time.Now())
}

// ============================================================================
// Helpers
// ============================================================================

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{1500 * time.Millisecond, "00:00:01"},
		{25 * time.Minute, "00:25:00"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "03:04:05"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.in); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2024, 5, 10, 23, 30, 0, 0, time.Local)
	tests := []struct {
		in   string
		want string
	}{
		{"", "2024-05-10"},
		{"today", "2024-05-10"},
		{"Yesterday", "2024-05-09"},
		{"2024-01-31", "2024-01-31"},
	}
	for _, tt := range tests {
		got, err := parseDay(tt.in, now)
		if err != nil {
			t.Fatalf("parseDay(%q): %v", tt.in, err)
		}
		if got.Format(dateLayout) != tt.want {
			t.Errorf("parseDay(%q) = %s, want %s", tt.in, got.Format(dateLayout), tt.want)
		}
	}

	if _, err := parseDay("10/05/2024", now); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestRangeResolve(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	r := rangeFlags{to: "today"}
	from, to, err := r.resolve(now, 7)
	if err != nil {
		t.Fatal(err)
	}
	if from.Format(dateLayout) != "2024-05-04" || to.Format(dateLayout) != "2024-05-10" {
		t.Fatalf("default range = %s..%s", from.Format(dateLayout), to.Format(dateLayout))
	}

	r = rangeFlags{to: "2024-05-10", days: 1}
	from, to, _ = r.resolve(now, 7)
	if !from.Equal(to) {
		t.Fatalf("--days 1 should be a single day, got %s..%s", from, to)
	}

	r = rangeFlags{from: "2024-04-01", to: "2024-04-30", days: 3}
	from, _, _ = r.resolve(now, 7)
	if from.Format(dateLayout) != "2024-04-01" {
		t.Fatalf("--from should win over --days, got %s", from)
	}

	r = rangeFlags{from: "2024-05-11", to: "2024-05-10"}
	if _, _, err := r.resolve(now, 7); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestValidatePercent(t *testing.T) {
	for _, ok := range []string{"", "  ", "0", "55.5", "100"} {
		if err := validatePercent(ok); err != nil {
			t.Errorf("validatePercent(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"abc", "-1", "100.1"} {
		if err := validatePercent(bad); err == nil {
			t.Errorf("validatePercent(%q) should fail", bad)
		}
	}
}

func TestOutcomeFields(t *testing.T) {
	f := outcomeFields("  ", "", "interrupted", "")
	if f.StopReason == nil || *f.StopReason != "interrupted" {
		t.Fatalf("StopReason = %v", f.StopReason)
	}
	if f.Objectives != nil || f.CompletionPercent != nil || f.Comments != nil {
		t.Fatal("blank answers must stay nil so stored values survive")
	}

	f = outcomeFields("chapter 3", "80", "done for today", "good")
	if *f.Objectives != "chapter 3" || *f.CompletionPercent != 80 || *f.Comments != "good" {
		t.Fatalf("fields = %+v", f)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}

// ============================================================================
// Commands
// ============================================================================

func TestVersionSkipsStore(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")
	if !strings.Contains(out, "studytrack dev") {
		t.Fatalf("version output = %q", out)
	}
	if _, err := os.Stat(env.dbPath); !os.IsNotExist(err) {
		t.Fatal("version must not create the database")
	}
}

func TestActivityCommands(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "activity", "add", "Deep Work", "--target", "3", "--tags", "focus")
	env.mustRun(t, "activity", "add", "Reading")
	if _, err := env.run(t, "activity", "add", "Reading"); err == nil {
		t.Fatal("expected duplicate name error")
	}

	out := env.mustRun(t, "activity", "list")
	if !strings.Contains(out, "Deep Work") || !strings.Contains(out, "Reading") {
		t.Fatalf("list output = %q", out)
	}

	env.mustRun(t, "activity", "update", "Reading", "--active=false")
	out = env.mustRun(t, "activity", "list")
	if strings.Contains(out, "Reading") {
		t.Fatalf("inactive activity listed without --all: %q", out)
	}
	out = env.mustRun(t, "activity", "list", "--all")
	if !strings.Contains(out, "Reading") {
		t.Fatalf("--all should include inactive: %q", out)
	}

	s := env.open(t)
	a, err := s.GetActivityByName("Deep Work")
	if err != nil {
		t.Fatal(err)
	}
	if a.DefaultTargetHours != 3 || a.Tags != "focus" {
		t.Fatalf("activity = %+v", a)
	}
}

func TestActivityUpdateKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work", "--description", "no email", "--target", "3")
	env.mustRun(t, "activity", "update", "Deep Work", "--target", "4")

	a, err := env.open(t).GetActivityByName("Deep Work")
	if err != nil {
		t.Fatal(err)
	}
	if a.DefaultTargetHours != 4 || a.Description != "no email" || !a.IsActive {
		t.Fatalf("activity = %+v", a)
	}
}

func TestActivityDeleteNeedsYes(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")

	// go test never runs with a terminal on stdin, so the prompt is refused.
	if !interactive() {
		if _, err := env.run(t, "activity", "delete", "Deep Work"); err == nil {
			t.Fatal("expected refusal without --yes")
		}
	}
	env.mustRun(t, "activity", "delete", "Deep Work", "--yes")

	if _, err := env.open(t).GetActivityByName("Deep Work"); err == nil {
		t.Fatal("activity should be gone")
	}
}

func TestLogMerges(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")

	env.mustRun(t, "log", "Deep Work", "--hours", "1.5", "--objectives", "draft", "--completion", "40")
	out := env.mustRun(t, "log", "1", "--hours", "2", "--completion", "90")
	if !strings.Contains(out, "3.50h") {
		t.Fatalf("log output = %q", out)
	}

	e, err := env.open(t).GetDailyEntry(today(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if e.DurationHours != 3.5 {
		t.Errorf("DurationHours = %v, want 3.5", e.DurationHours)
	}
	if e.ObjectivesSucceeded != "draft" {
		t.Errorf("Objectives = %q, omitted flag must keep it", e.ObjectivesSucceeded)
	}
	if e.CompletionPercent != 90 {
		t.Errorf("CompletionPercent = %v", e.CompletionPercent)
	}
}

func TestLogErrors(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")

	if _, err := env.run(t, "log", "Nope", "--hours", "1"); err == nil {
		t.Fatal("expected unknown activity error")
	}
	if _, err := env.run(t, "log", "Deep Work", "--completion", "150"); err == nil {
		t.Fatal("expected out-of-range completion error")
	}
	if _, err := env.run(t, "log", "Deep Work", "--date", "May 1"); err == nil {
		t.Fatal("expected bad date error")
	}
}

func TestEntryShowAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")
	env.mustRun(t, "log", "Deep Work", "--hours", "2", "--date", "2024-05-01", "--comments", "solid")

	out := env.mustRun(t, "entry", "show", "--date", "2024-05-01")
	if !strings.Contains(out, "Deep Work") || !strings.Contains(out, "solid") {
		t.Fatalf("show output = %q", out)
	}

	env.mustRun(t, "entry", "delete", "Deep Work", "--date", "2024-05-01")
	out = env.mustRun(t, "entry", "show", "Deep Work", "--date", "2024-05-01")
	if !strings.Contains(out, "No entry") {
		t.Fatalf("show after delete = %q", out)
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "A")
	env.mustRun(t, "activity", "add", "B")
	env.mustRun(t, "log", "A", "--hours", "3", "--date", "2024-05-01", "--completion", "100")
	env.mustRun(t, "log", "B", "--hours", "5", "--date", "2024-05-02", "--target-hours", "4")

	out := env.mustRun(t, "history", "--from", "2024-05-01", "--to", "2024-05-31")
	first, second := strings.Index(out, "2024-05-01  A"), strings.Index(out, "2024-05-02  B")
	if first < 0 || second < first {
		t.Fatalf("history not in date order: %q", out)
	}
	if !strings.Contains(out, "8.00h") {
		t.Fatalf("history total missing: %q", out)
	}

	out = env.mustRun(t, "stats", "--from", "2024-05-01", "--to", "2024-05-31")
	a, b := strings.Index(out, "\nA "), strings.Index(out, "\nB ")
	if a < 0 || b < 0 || b > a {
		t.Fatalf("stats should list B (5h) before A (3h): %q", out)
	}

	out = env.mustRun(t, "kpi", "--from", "2024-05-01", "--to", "2024-05-31")
	for _, want := range []string{"Planned vs actual", "Completion rate", "50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("kpi output missing %q: %q", want, out)
		}
	}
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work", "--target", "2")
	path := filepath.Join(t.TempDir(), "activities.json")

	out := env.mustRun(t, "export", path)
	if !strings.Contains(out, "1 activities") {
		t.Fatalf("export output = %q", out)
	}

	other := newTestEnv(t)
	other.mustRun(t, "activity", "add", "Deep Work")
	out = other.mustRun(t, "import", path)
	if !strings.Contains(out, "0 new activities") {
		t.Fatalf("existing name must be skipped: %q", out)
	}
}

func TestExportEntriesDefaultPath(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")
	env.mustRun(t, "log", "Deep Work", "--hours", "1")

	env.mustRun(t, "export", "--entries")
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(env.cfgPath), "exports", "entries-*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one entry export, got %v", matches)
	}
}

func TestBackupCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")
	out := env.mustRun(t, "backup", "--log-level", "info")
	if !strings.Contains(out, "-backup-") {
		t.Fatalf("backup output = %q", out)
	}
	if n := strings.Count(env.stderr, "database backed up"); n != 1 {
		t.Fatalf("backup logged %d times, want once: %q", n, env.stderr)
	}
}

// ============================================================================
// Foreground sessions
// ============================================================================

func TestTimerLogsOnTarget(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a timer for over a second")
	}
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")

	// 0.0003h is 1.08s, just over the one second logging threshold.
	env.mustRun(t, "timer", "Deep Work", "--target", "0.0003", "--no-prompt")

	e, err := env.open(t).GetDailyEntry(today(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if e.DurationHours < 0.00029 {
		t.Errorf("DurationHours = %v, want at least the target", e.DurationHours)
	}
	if e.StopReason != reasonTarget {
		t.Errorf("StopReason = %q", e.StopReason)
	}

	cfg, err := config.Load(env.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LastSelectedActivity == nil || *cfg.LastSelectedActivity != 1 {
		t.Fatalf("LastSelectedActivity = %v", cfg.LastSelectedActivity)
	}
}

func TestTimerNeedsActivity(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "timer"); err == nil {
		t.Fatal("expected error with no activity and no history")
	}
}

func TestFocusLogsOnlyWork(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a focus cycle for over a second")
	}
	env := newTestEnv(t)
	env.mustRun(t, "activity", "add", "Deep Work")

	out := env.mustRun(t, "focus", "Deep Work", "--work", "1100ms", "--break", "50ms",
		"--completion", "100")
	if !strings.Contains(out, "Cycle complete") {
		t.Fatalf("focus output = %q", out)
	}

	e, err := env.open(t).GetDailyEntry(today(), 1)
	if err != nil {
		t.Fatal(err)
	}
	want := (1100 * time.Millisecond).Hours()
	if e.DurationHours != want {
		t.Errorf("DurationHours = %v, want exactly the work phase %v", e.DurationHours, want)
	}
	if e.CompletionPercent != 100 || e.StopReason != reasonTarget {
		t.Errorf("entry = %+v", e)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
