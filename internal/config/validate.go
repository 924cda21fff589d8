package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validProviders = map[string]bool{
	"local": true,
	"s3":    true,
	"azure": true,
	"gcs":   true,
	"b2":    true,
}

// ValidationResult splits config problems by severity. Fatals make the
// config unusable (a surface depending on the value would fail at
// runtime); warnings are auto-corrected or safely ignorable.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks the config and classifies every problem.
// Dangerous zero-values that would cause panics are clamped to safe
// defaults and reported as warnings.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if c.PushURL != "" {
		u, err := url.Parse(c.PushURL)
		if err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("push_url %q is not a valid URL: %w", c.PushURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss" {
			r.Fatals = append(r.Fatals, fmt.Errorf("push_url scheme must be http(s) or ws(s), got %q", u.Scheme))
		}
	}

	if c.PushToken != "" {
		for _, ch := range c.PushToken {
			if unicode.IsControl(ch) {
				r.Fatals = append(r.Fatals, fmt.Errorf("push_token contains control characters"))
				break
			}
		}
	}

	if c.PushProxy != "" {
		u, err := url.Parse(c.PushProxy)
		if err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("push_proxy %q is not a valid URL: %w", c.PushProxy, err))
		} else if u.Scheme != "socks5" {
			r.Fatals = append(r.Fatals, fmt.Errorf("push_proxy scheme must be socks5, got %q", u.Scheme))
		}
	}

	if c.UploadProvider != "" && !validProviders[strings.ToLower(c.UploadProvider)] {
		r.Fatals = append(r.Fatals, fmt.Errorf("upload_provider %q is not valid (use local, s3, azure, gcs, b2)", c.UploadProvider))
	}

	// Clamp quality and the watch cadence to safe ranges; a zero
	// interval would spin captures back to back.
	if c.Quality < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("quality %d is below minimum 1, clamping", c.Quality))
		c.Quality = 1
	} else if c.Quality > 100 {
		r.Warnings = append(r.Warnings, fmt.Errorf("quality %d exceeds maximum 100, clamping", c.Quality))
		c.Quality = 100
	}

	if c.WatchIntervalSeconds < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("watch_interval_seconds %d is below minimum 1, clamping", c.WatchIntervalSeconds))
		c.WatchIntervalSeconds = 1
	} else if c.WatchIntervalSeconds > 3600 {
		r.Warnings = append(r.Warnings, fmt.Errorf("watch_interval_seconds %d exceeds maximum 3600, clamping", c.WatchIntervalSeconds))
		c.WatchIntervalSeconds = 3600
	}

	if c.WatchWorkers < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("watch_workers %d is below minimum 1, clamping", c.WatchWorkers))
		c.WatchWorkers = 1
	} else if c.WatchWorkers > 16 {
		r.Warnings = append(r.Warnings, fmt.Errorf("watch_workers %d exceeds maximum 16, clamping", c.WatchWorkers))
		c.WatchWorkers = 16
	}

	if c.WatchQueueSize < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("watch_queue_size %d is below minimum 1, clamping", c.WatchQueueSize))
		c.WatchQueueSize = 1
	} else if c.WatchQueueSize > 1024 {
		r.Warnings = append(r.Warnings, fmt.Errorf("watch_queue_size %d exceeds maximum 1024, clamping", c.WatchQueueSize))
		c.WatchQueueSize = 1024
	}

	if c.PipeRatePerMin < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("pipe_rate_per_min %d is below minimum 1, clamping", c.PipeRatePerMin))
		c.PipeRatePerMin = 1
	} else if c.PipeRatePerMin > 6000 {
		r.Warnings = append(r.Warnings, fmt.Errorf("pipe_rate_per_min %d exceeds maximum 6000, clamping", c.PipeRatePerMin))
		c.PipeRatePerMin = 6000
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	return r
}

// Validate runs ValidateTiered, logs warnings, and returns every
// problem found. Callers that care about severity use ValidateTiered
// directly.
func (c *Config) Validate() []error {
	result := c.ValidateTiered()
	for _, err := range result.Warnings {
		slog.Warn("config validation", "error", err)
	}
	return result.AllErrors()
}
