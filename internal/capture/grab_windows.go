//go:build windows

package capture

import (
	"context"
	"image"
	"log/slog"
	"time"
)

// Grab captures one still of the requested region as JPEG.
//
// The call is one-shot: it opens a fresh duplication session, discards
// the warm-up frame, copies the first real frame through the staging
// texture, crops, and encodes. Only the adapter/device pair persists
// across calls, so a duplication failure costs this call alone and the
// next one starts clean. Captures of the same display are serialized;
// different displays proceed in parallel.
func Grab(ctx context.Context, req Request) (*Result, error) {
	if req.Quality == 0 {
		req.Quality = DefaultQuality
	}
	start := time.Now()

	img, plan, disp, err := grabFrame(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := EncodeJPEG(img, req.Quality)
	if err != nil {
		return nil, err
	}

	slog.Debug("region captured",
		"display", disp.DeviceName,
		"rotation", disp.Rotation.String(),
		"width", plan.Crop.Width,
		"height", plan.Crop.Height,
		"bytes", len(data),
		"durationMs", time.Since(start).Milliseconds())

	return &Result{
		Data:         data,
		RotationHint: plan.RotationHint,
		Width:        plan.Crop.Width,
		Height:       plan.Crop.Height,
		Display:      disp.DeviceName,
	}, nil
}

// GrabImage is Grab without the JPEG step: the cropped region as an
// RGBA image plus its rotation hint. Clipboard placement encodes PNG
// and builds a DIB from the one capture.
func GrabImage(ctx context.Context, req Request) (*image.RGBA, int, error) {
	img, plan, _, err := grabFrame(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	return img, plan.RotationHint, nil
}

// grabFrame runs resolve, plan, duplicate, transfer, and crop. The
// returned image owns its pixels; the pooled staging image never
// escapes.
func grabFrame(ctx context.Context, req Request) (*image.RGBA, capturePlan, Display, error) {
	displays, err := Displays()
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}
	disp, err := resolveDisplay(displays, req.Region)
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}
	plan, err := planCapture(disp, req.Region)
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}
	dev, err := acquireDevice(disp)
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}

	unlock := lockDisplay(disp.DeviceName)
	defer unlock()

	src, err := openDuplication(dev, disp, plan)
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}
	sess := newSession(src)
	defer sess.close()

	// A static desktop may never publish a frame; poke it so the
	// duplication source has dirty rectangles to hand over.
	forceDesktopRepaint()

	if err := sess.run(ctx); err != nil {
		return nil, capturePlan{}, Display{}, err
	}

	staged, err := src.readStaging()
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}
	defer stagingImagePool.Put(staged)

	pix, err := cropPixels(staged.Pix, staged.Stride, plan.BufferWidth, plan.BufferHeight, plan.Crop)
	if err != nil {
		return nil, capturePlan{}, Display{}, err
	}
	bgraToRGBA(pix)

	return rgbaImage(pix, plan.Crop.Width, plan.Crop.Height), plan, disp, nil
}
