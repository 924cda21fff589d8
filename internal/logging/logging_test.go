package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("capture")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("region captured", "display", `\\.\DISPLAY1`)

	out := buf.String()
	if strings.Contains(out, `msg="INFO region captured`) {
		t.Fatalf("unexpected nested severity prefix in message: %s", out)
	}
	if !strings.Contains(out, `msg="region captured"`) {
		t.Fatalf("expected plain message, got: %s", out)
	}
	if !strings.Contains(out, "component=capture") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, `display=\\.\DISPLAY1`) {
		t.Fatalf("expected display field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("push")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	defer Init("text", "info", nil)

	L("watch").Info("tick", "interval", "5s")

	out := buf.String()
	if !strings.Contains(out, `"component":"watch"`) || !strings.Contains(out, `"msg":"tick"`) {
		t.Fatalf("expected JSON fields, got: %s", out)
	}
}

func TestWithRequestAttachesCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger := WithRequest(L("pipeserve"), "req-42", `\\.\DISPLAY2`)
	logger.Info("capture dispatched")

	out := buf.String()
	if !strings.Contains(out, "requestId=req-42") {
		t.Fatalf("expected requestId field, got: %s", out)
	}
	if !strings.Contains(out, `display=\\.\DISPLAY2`) {
		t.Fatalf("expected display field, got: %s", out)
	}
}

func TestRotatingWriterRotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screengrab.log")

	rw, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer rw.Close()

	// Force a rotation by crossing the 1MB limit.
	chunk := bytes.Repeat([]byte("x"), 256*1024)
	for i := 0; i < 5; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("active log missing after rotation: %v", err)
	}
	backups, err := filepath.Glob(path + ".*")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(backups) == 0 {
		t.Fatal("expected a stamped backup after rotation")
	}
}

func TestRotatingWriterPrunesOldBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screengrab.log")

	seeded := []string{
		path + ".20240101-000000",
		path + ".20240101-000001",
		path + ".20240101-000002",
	}
	for _, b := range seeded {
		if err := os.WriteFile(b, []byte("old"), 0o600); err != nil {
			t.Fatalf("seed backup: %v", err)
		}
	}

	rw, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer rw.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	if _, err := rw.Write(chunk); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := rw.Write(chunk); err != nil {
		t.Fatalf("rotating write: %v", err)
	}

	backups, err := filepath.Glob(path + ".*")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("backups after prune = %d (%v), want 2", len(backups), backups)
	}
	for _, gone := range seeded[:2] {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("oldest backup %s should have been pruned", gone)
		}
	}
}
