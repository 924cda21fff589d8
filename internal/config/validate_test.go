package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateTieredInvalidPushURLSchemeIsFatal(t *testing.T) {
	cfg := Default()
	cfg.PushURL = "ftp://example.com"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("invalid URL scheme should be fatal")
	}
}

func TestValidateTieredControlCharsInTokenIsFatal(t *testing.T) {
	cfg := Default()
	cfg.PushToken = "token\x00with\x01control"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("control chars in token should be fatal")
	}
}

func TestValidateTieredNonSocksProxyIsFatal(t *testing.T) {
	cfg := Default()
	cfg.PushProxy = "http://proxy.local:8080"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("non-socks5 proxy should be fatal")
	}
}

func TestValidateTieredUnknownProviderIsFatal(t *testing.T) {
	cfg := Default()
	cfg.UploadProvider = "ftp"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("unknown upload provider should be fatal")
	}
	found := false
	for _, err := range result.Fatals {
		if strings.Contains(err.Error(), "upload_provider") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected upload_provider error in fatals")
	}
}

func TestValidateTieredQualityClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.Quality = 0
	result := cfg.ValidateTiered()

	// Should NOT be a fatal since it's auto-corrected
	if result.HasFatals() {
		t.Fatalf("clamped quality should be warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for clamped quality")
	}
	if cfg.Quality != 1 {
		t.Fatalf("Quality = %d, want 1 (clamped)", cfg.Quality)
	}
}

func TestValidateTieredHighQualityClamping(t *testing.T) {
	cfg := Default()
	cfg.Quality = 250
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped quality should be warning, not fatal: %v", result.Fatals)
	}
	if cfg.Quality != 100 {
		t.Fatalf("Quality = %d, want 100 (clamped)", cfg.Quality)
	}
}

func TestValidateTieredWatchClamping(t *testing.T) {
	cfg := Default()
	cfg.WatchIntervalSeconds = 0
	cfg.WatchWorkers = 0
	cfg.WatchQueueSize = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped watch settings should be warnings: %v", result.Fatals)
	}
	if cfg.WatchIntervalSeconds != 1 {
		t.Fatalf("WatchIntervalSeconds = %d, want 1", cfg.WatchIntervalSeconds)
	}
	if cfg.WatchWorkers != 1 {
		t.Fatalf("WatchWorkers = %d, want 1", cfg.WatchWorkers)
	}
	if cfg.WatchQueueSize != 1 {
		t.Fatalf("WatchQueueSize = %d, want 1", cfg.WatchQueueSize)
	}
}

func TestValidateTieredPipeRateClamping(t *testing.T) {
	cfg := Default()
	cfg.PipeRatePerMin = 999999
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped pipe rate should be warning: %v", result.Fatals)
	}
	if cfg.PipeRatePerMin != 6000 {
		t.Fatalf("PipeRatePerMin = %d, want 6000", cfg.PipeRatePerMin)
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestAllErrorsReturnsBoth(t *testing.T) {
	cfg := Default()
	cfg.PushURL = "ftp://bad" // fatal
	cfg.LogFormat = "xml"     // warning
	result := cfg.ValidateTiered()

	all := result.AllErrors()
	if len(all) < 2 {
		t.Fatalf("AllErrors() returned %d errors, expected at least 2 (fatals + warnings)", len(all))
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	cfg.PushURL = "https://collect.example.com"
	cfg.PushToken = "clean-token"
	cfg.PushProxy = "socks5://127.0.0.1:1080"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid config has warnings: %v", result.Warnings)
	}
}
