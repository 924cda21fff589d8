package push

import (
	"context"
	"testing"

	"github.com/breeze-rmm/screengrab/internal/logging"
)

// initTestShipper initializes a global shipper so SetShipperLevel succeeds in tests.
func initTestShipper(t *testing.T) {
	t.Helper()
	logging.InitShipper(logging.ShipperConfig{
		ServerURL: "http://localhost:3001",
		SourceID:  "test-host",
		AuthToken: "test-token",
		Version:   "0.1.0",
		MinLevel:  "warn",
	})
	t.Cleanup(func() { logging.StopShipper() })
}

func TestHandleSetLogLevelMissingLevel(t *testing.T) {
	result := handleSetLogLevel(context.Background(), nil, Command{
		ID:      "cmd-1",
		Type:    "set_log_level",
		Payload: map[string]any{},
	})

	if result.Status != "failed" {
		t.Fatalf("expected failed status, got %s", result.Status)
	}
	if result.Error == "" {
		t.Fatal("expected error message for missing level")
	}
}

func TestHandleSetLogLevelInvalidLevel(t *testing.T) {
	for _, level := range []string{"trace", "verbose", "critical", "DEBUG"} {
		t.Run(level, func(t *testing.T) {
			result := handleSetLogLevel(context.Background(), nil, Command{
				ID:   "cmd-1",
				Type: "set_log_level",
				Payload: map[string]any{
					"level": level,
				},
			})
			if result.Status != "failed" {
				t.Fatalf("expected failed for level %q, got %s", level, result.Status)
			}
		})
	}
}

func TestHandleSetLogLevelValidLevels(t *testing.T) {
	initTestShipper(t)

	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			result := handleSetLogLevel(context.Background(), nil, Command{
				ID:   "cmd-1",
				Type: "set_log_level",
				Payload: map[string]any{
					"level":           level,
					"durationMinutes": float64(0), // disable auto-revert for test
				},
			})
			if result.Status != "completed" {
				t.Fatalf("expected completed for level %q, got %s (error: %s)",
					level, result.Status, result.Error)
			}

			data, ok := result.Result.(map[string]any)
			if !ok {
				t.Fatalf("unexpected result payload: %#v", result.Result)
			}
			if data["newLevel"] != level {
				t.Fatalf("newLevel = %v, want %s", data["newLevel"], level)
			}
		})
	}
}

func TestHandleSetLogLevelNoShipper(t *testing.T) {
	result := handleSetLogLevel(context.Background(), nil, Command{
		ID:   "cmd-1",
		Type: "set_log_level",
		Payload: map[string]any{
			"level":           "debug",
			"durationMinutes": float64(0),
		},
	})
	if result.Status != "failed" {
		t.Fatalf("expected failed when shipper not running, got %s", result.Status)
	}
	if result.Error == "" {
		t.Fatal("expected error about the shipper not running")
	}
}

func TestHandlerRoutesSetLogLevel(t *testing.T) {
	initTestShipper(t)
	handler := NewHandler(nil)

	result := handler(Command{
		ID:   "cmd-2",
		Type: "set_log_level",
		Payload: map[string]any{
			"level":           "error",
			"durationMinutes": float64(0),
		},
	})
	if result.Status != "completed" {
		t.Fatalf("expected completed, got %s (error: %s)", result.Status, result.Error)
	}
}
