package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// isolate clears every override so the host environment cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDB, EnvLogLevel, EnvLogFile, EnvExportDir, EnvConfigDir} {
		t.Setenv(key, "")
	}
	chdir(t, t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfigDir, "")

	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(xdg, "studytrack") {
		t.Fatalf("Dir() = %q", dir)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(xdg, "studytrack", "config.yaml") {
		t.Fatalf("DefaultPath() = %q", path)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	got, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Fatalf("Dir() = %q, want the override %q", got, dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv(EnvConfigDir, "~/track-config")
	if got, _ := Dir(); got != filepath.Join(home, "track-config") {
		t.Fatalf("Dir() = %q, want ~ expanded", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	dir := filepath.Dir(path)
	if cfg.DBPath != filepath.Join(dir, "studytrack.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ExportDir != filepath.Join(dir, "exports") {
		t.Errorf("ExportDir = %q", cfg.ExportDir)
	}
	if cfg.LogLevel != "info" || cfg.LogFile != "" {
		t.Errorf("log settings = %q, %q", cfg.LogLevel, cfg.LogFile)
	}
	if cfg.DefaultRangeDays != 7 {
		t.Errorf("DefaultRangeDays = %d", cfg.DefaultRangeDays)
	}
	if cfg.Pomodoro.Work() != 25*time.Minute || cfg.Pomodoro.Break() != 5*time.Minute {
		t.Errorf("Pomodoro = %+v", cfg.Pomodoro)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.LastSelectedActivity != nil {
		t.Error("LastSelectedActivity should default to nil")
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
db_path: /data/track.db
log_level: debug
default_range_days: 30
pomodoro:
  work_minutes: 50
tick_interval: 250ms
last_selected_activity: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/data/track.db" || cfg.LogLevel != "debug" || cfg.DefaultRangeDays != 30 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Pomodoro.WorkMinutes != 50 || cfg.Pomodoro.BreakMinutes != 5 {
		t.Fatalf("partial pomodoro block should keep other defaults: %+v", cfg.Pomodoro)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.LastSelectedActivity == nil || *cfg.LastSelectedActivity != 4 {
		t.Fatalf("LastSelectedActivity = %v", cfg.LastSelectedActivity)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "db_path: /from/file.db\nlog_level: warn\n")
	t.Setenv(EnvDB, "/from/env.db")
	t.Setenv(EnvExportDir, "/tmp/exports")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Fatalf("DBPath = %q, env should win", cfg.DBPath)
	}
	if cfg.ExportDir != "/tmp/exports" {
		t.Fatalf("ExportDir = %q", cfg.ExportDir)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, file value should survive", cfg.LogLevel)
	}
}

func TestDotEnv(t *testing.T) {
	isolate(t)
	// godotenv never overrides a variable that is already set.
	os.Unsetenv(EnvLogLevel)
	if err := os.WriteFile(".env", []byte(EnvLogLevel+"=error\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("LogLevel = %q, want value from .env", cfg.LogLevel)
	}
}

func TestLoadExpandsHome(t *testing.T) {
	isolate(t)
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Load(writeConfig(t, "db_path: ~/track.db\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != filepath.Join(home, "track.db") {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "db_path: [unclosed\n", "parse"},
		{"bad log level", "log_level: loud\n", "log_level"},
		{"zero range", "default_range_days: 0\n", "default_range_days"},
		{"zero work", "pomodoro:\n  work_minutes: 0\n", "work_minutes"},
		{"negative break", "pomodoro:\n  break_minutes: -1\n", "break_minutes"},
		{"bad tick", "tick_interval: 0s\n", "tick_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	id := int64(12)
	cfg.LastSelectedActivity = &id
	cfg.TickInterval = 500 * time.Millisecond
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.LastSelectedActivity == nil || *reloaded.LastSelectedActivity != 12 {
		t.Fatalf("LastSelectedActivity = %v", reloaded.LastSelectedActivity)
	}
	if reloaded.TickInterval != 500*time.Millisecond {
		t.Fatalf("TickInterval = %v", reloaded.TickInterval)
	}
	if reloaded.DBPath != cfg.DBPath {
		t.Fatalf("DBPath = %q, want %q", reloaded.DBPath, cfg.DBPath)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := (&Config{}).Save(); err == nil {
		t.Fatal("expected error for config without path")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := (&Config{LogLevel: tt.in}).SlogLevel()
		if err != nil {
			t.Fatalf("SlogLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		wantPath string
	}{
		{"tilde only", "~", home},
		{"tilde with path", "~/.studytrack", filepath.Join(home, ".studytrack")},
		{"absolute path", "/absolute/path", "/absolute/path"},
		{"relative path", "relative/path", "relative/path"},
		{"empty path", "", ""},
		{"tilde in middle", "path/~/file", "path/~/file"},
		{"other user", "~bob/notes", "~bob/notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := expandTilde(tt.path)
			if err != nil {
				t.Fatalf("expandTilde(%q) error = %v", tt.path, err)
			}
			if result != tt.wantPath {
				t.Errorf("expandTilde(%q) = %q, want %q", tt.path, result, tt.wantPath)
			}
		})
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
