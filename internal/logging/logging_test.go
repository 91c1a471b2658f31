package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewFileLoggerWritesComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.log")
	logger, err := New(&Config{
		Level:      LevelInfo,
		Format:     FormatJSON,
		Output:     "file",
		FilePath:   path,
		MaxSize:    10,
		MaxBackups: 2,
		MaxAge:     7,
		Component:  "expandd",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.Info("engine started", "triggers", 3)
	if err := logger.Sync(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"component":"expandd"`) {
		t.Errorf("missing component attr: %s", out)
	}
	if !strings.Contains(out, `"msg":"engine started"`) {
		t.Errorf("missing message: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.log")
	logger, err := New(&Config{
		Level:    LevelWarn,
		Format:   FormatText,
		Output:   "file",
		FilePath: path,
		MaxSize:  10,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.Debug("hidden")
	logger.Warn("visible")
	logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("debug line leaked through warn level")
	}
	if !strings.Contains(string(data), "visible") {
		t.Error("warn line missing")
	}
}

func TestWithComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.log")
	logger, err := New(&Config{
		Level:    LevelInfo,
		Format:   FormatJSON,
		Output:   "file",
		FilePath: path,
		MaxSize:  10,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.WithComponent("watchdog").Info("checking")
	logger.Sync()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"component":"watchdog"`) {
		t.Errorf("component override missing: %s", data)
	}
}

func TestRotationOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expandd.log")
	cfg := &Config{
		Level:      LevelInfo,
		Output:     "file",
		FilePath:   path,
		MaxSize:    0, // rotate on every write
		MaxBackups: 5,
		MaxAge:     7,
	}

	rotator, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer rotator.Close()

	if _, err := rotator.Write([]byte("first line\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := rotator.Write([]byte("second line\n")); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "expandd-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Error("expected at least one rotated file")
	}
}

func TestPruneKeepsBackupCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expandd.log")
	rotator, err := NewFileRotator(&Config{
		FilePath:   path,
		MaxSize:    10,
		MaxBackups: 1,
		MaxAge:     7,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rotator.Close()

	oldest := filepath.Join(dir, "expandd-20240101-000000.log")
	newest := filepath.Join(dir, "expandd-20250101-000000.log")
	if err := os.WriteFile(oldest, []byte("old"), 0640); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newest, []byte("new"), 0640); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(oldest, past, past); err != nil {
		t.Fatal(err)
	}

	rotator.prune()

	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Error("oldest backup survived pruning")
	}
	if _, err := os.Stat(newest); err != nil {
		t.Error("newest backup was pruned")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
