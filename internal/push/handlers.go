package push

import (
	"context"
	"fmt"
	"time"

	"github.com/breeze-rmm/screengrab/internal/capture"
	"github.com/breeze-rmm/screengrab/internal/config"
	"github.com/breeze-rmm/screengrab/internal/logging"
)

// commandTimeout bounds a single capture command. Duplication setup
// plus the frame wait fits well inside this.
const commandTimeout = 30 * time.Second

type handlerFunc func(ctx context.Context, cfg *config.Config, cmd Command) CommandResult

var handlerRegistry = map[string]handlerFunc{}

func init() {
	handlerRegistry["capture_region"] = handleCaptureRegion
	handlerRegistry["list_displays"] = handleListDisplays
	handlerRegistry["set_log_level"] = handleSetLogLevel
}

// NewHandler returns the CommandHandler that routes server commands to
// capture operations.
func NewHandler(cfg *config.Config) CommandHandler {
	return func(cmd Command) CommandResult {
		h, ok := handlerRegistry[cmd.Type]
		if !ok {
			return CommandResult{
				Status: "failed",
				Error:  fmt.Sprintf("unknown command type: %s", cmd.Type),
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return h(ctx, cfg, cmd)
	}
}

func handleCaptureRegion(ctx context.Context, cfg *config.Config, cmd Command) CommandResult {
	start := time.Now()

	var region capture.Region
	if v, ok := cmd.Payload["x"].(float64); ok {
		region.X = int(v)
	}
	if v, ok := cmd.Payload["y"].(float64); ok {
		region.Y = int(v)
	}
	if v, ok := cmd.Payload["width"].(float64); ok {
		region.Width = int(v)
	}
	if v, ok := cmd.Payload["height"].(float64); ok {
		region.Height = int(v)
	}

	quality := cfg.Quality
	if q, ok := cmd.Payload["quality"].(float64); ok && q >= 1 && q <= 100 {
		quality = int(q)
	}

	res, err := capture.Grab(ctx, capture.Request{Region: region, Quality: quality})
	if err != nil {
		return errorResult(err, start)
	}

	result := successResult(map[string]any{
		"display":   res.Display,
		"width":     res.Width,
		"height":    res.Height,
		"rotation":  res.RotationHint,
		"sizeBytes": len(res.Data),
	}, start)
	result.Frame = res.Data
	return result
}

func handleListDisplays(_ context.Context, _ *config.Config, _ Command) CommandResult {
	start := time.Now()

	displays, err := capture.Displays()
	if err != nil {
		return errorResult(err, start)
	}
	return successResult(map[string]any{"displays": displays}, start)
}

func handleSetLogLevel(_ context.Context, _ *config.Config, cmd Command) CommandResult {
	start := time.Now()

	level, _ := cmd.Payload["level"].(string)
	if level == "" {
		return CommandResult{
			Status: "failed",
			Error:  "missing or invalid level parameter",
		}
	}

	switch level {
	case "debug", "info", "warn", "error":
	default:
		return CommandResult{
			Status: "failed",
			Error:  "invalid level: must be debug, info, warn, or error",
		}
	}

	if !logging.SetShipperLevel(level) {
		return CommandResult{
			Status: "failed",
			Error:  "log shipper not running",
		}
	}

	// Auto-revert after specified duration (default 60 minutes)
	durationMinutes := 60
	if v, ok := cmd.Payload["durationMinutes"].(float64); ok {
		durationMinutes = int(v)
	}
	if durationMinutes > 0 {
		go func() {
			time.Sleep(time.Duration(durationMinutes) * time.Minute)
			logging.SetShipperLevel("warn")
			log.Info("log shipping level auto-reverted to warn",
				"previousLevel", level,
				"afterMinutes", durationMinutes,
			)
		}()
	}

	return successResult(map[string]any{
		"newLevel":        level,
		"durationMinutes": durationMinutes,
	}, start)
}

func successResult(data any, start time.Time) CommandResult {
	return CommandResult{
		Status:     "completed",
		Result:     data,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

func errorResult(err error, start time.Time) CommandResult {
	return CommandResult{
		Status:     "failed",
		Error:      err.Error(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}
