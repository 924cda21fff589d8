package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeJobsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write jobs file: %v", err)
	}
	return path
}

func TestLoadJobs(t *testing.T) {
	path := writeJobsFile(t, `
jobs:
  - name: dashboard
    region: { x: 0, y: 0, width: 1920, height: 1080 }
    quality: 70
    interval_seconds: 10
    upload: true
    skip_unchanged: true
    retention: 48
  - name: ticker
    region: { x: 1920, y: 0, width: 400, height: 120 }
`)
	jobs, err := LoadJobs(path)
	if err != nil {
		t.Fatalf("LoadJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	if jobs[0].Name != "dashboard" || jobs[0].Region.Width != 1920 || !jobs[0].Upload {
		t.Fatalf("dashboard job parsed wrong: %+v", jobs[0])
	}
	if jobs[0].Retention != 48 {
		t.Fatalf("dashboard retention = %d, want 48", jobs[0].Retention)
	}
	if jobs[1].Region.X != 1920 || jobs[1].Quality != 0 || jobs[1].Retention != 0 {
		t.Fatalf("ticker job parsed wrong: %+v", jobs[1])
	}
}

func TestLoadJobsRejectsNegativeRetention(t *testing.T) {
	path := writeJobsFile(t, `
jobs:
  - name: bad
    region: { width: 10, height: 10 }
    retention: -1
`)
	if _, err := LoadJobs(path); err == nil || !strings.Contains(err.Error(), "retention") {
		t.Fatalf("err = %v, want retention error", err)
	}
}

func TestLoadJobsRejectsDuplicateNames(t *testing.T) {
	path := writeJobsFile(t, `
jobs:
  - name: a
    region: { width: 10, height: 10 }
  - name: a
    region: { width: 20, height: 20 }
`)
	if _, err := LoadJobs(path); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v, want duplicate-name error", err)
	}
}

func TestLoadJobsRejectsEmptyRegion(t *testing.T) {
	path := writeJobsFile(t, `
jobs:
  - name: broken
    region: { x: 5, y: 5 }
`)
	if _, err := LoadJobs(path); err == nil || !strings.Contains(err.Error(), "no area") {
		t.Fatalf("err = %v, want no-area error", err)
	}
}

func TestLoadJobsRejectsEmptyFile(t *testing.T) {
	path := writeJobsFile(t, "jobs: []\n")
	if _, err := LoadJobs(path); err == nil {
		t.Fatal("empty jobs list should be rejected")
	}
}

func TestJobIntervalFallback(t *testing.T) {
	j := Job{IntervalSeconds: 0}
	if got := j.Interval(5 * time.Second); got != 5*time.Second {
		t.Fatalf("Interval = %v, want default 5s", got)
	}
	j.IntervalSeconds = 30
	if got := j.Interval(5 * time.Second); got != 30*time.Second {
		t.Fatalf("Interval = %v, want 30s", got)
	}
}
