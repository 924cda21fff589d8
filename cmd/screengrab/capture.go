package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/capture"
	"github.com/breeze-rmm/screengrab/internal/clipboard"
	"github.com/breeze-rmm/screengrab/internal/config"
	"github.com/breeze-rmm/screengrab/internal/upload"
	"github.com/breeze-rmm/screengrab/pkg/client"
)

const captureTimeout = 30 * time.Second

var (
	capX          int
	capY          int
	capWidth      int
	capHeight     int
	capQuality    int
	capOutput     string
	capClipboard  bool
	capUpload     bool
	capViaService bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a desktop region to a JPEG",
	Long: `Captures the given desktop-coordinate rectangle from the display that
contains it. The region must lie entirely on one display; run
'screengrab displays' to see the desktop layout.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCapture()
	},
}

func init() {
	captureCmd.Flags().IntVar(&capX, "x", 0, "region left edge in desktop coordinates")
	captureCmd.Flags().IntVar(&capY, "y", 0, "region top edge in desktop coordinates")
	captureCmd.Flags().IntVar(&capWidth, "width", 0, "region width in pixels")
	captureCmd.Flags().IntVar(&capHeight, "height", 0, "region height in pixels")
	captureCmd.Flags().IntVar(&capQuality, "quality", 0, "JPEG quality 1-100 (default from config)")
	captureCmd.Flags().StringVarP(&capOutput, "output", "o", "", "output file, - for stdout (default capture-<stamp>.jpg)")
	captureCmd.Flags().BoolVar(&capClipboard, "clipboard", false, "place the capture on the clipboard instead of a file")
	captureCmd.Flags().BoolVar(&capUpload, "upload", false, "deliver to the configured upload sink instead of a file")
	captureCmd.Flags().BoolVar(&capViaService, "via-service", false, "request the capture from a running 'screengrab serve' instance")
}

func runCapture() {
	cfg := mustLoadConfig()

	region := capture.Region{X: capX, Y: capY, Width: capWidth, Height: capHeight}
	if region.Empty() {
		fmt.Fprintln(os.Stderr, "--width and --height are required and must be positive")
		os.Exit(1)
	}
	quality := capQuality
	if quality == 0 {
		quality = cfg.Quality
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	if capClipboard {
		if capViaService {
			fmt.Fprintln(os.Stderr, "--clipboard captures directly and cannot combine with --via-service")
			os.Exit(1)
		}
		captureToClipboard(ctx, region, quality)
		return
	}

	var (
		data     []byte
		width    int
		height   int
		rotation int
	)
	if capViaService {
		res := captureViaService(ctx, cfg.PipeName, region, quality)
		data, width, height, rotation = res.JPEG, res.Width, res.Height, res.Rotation
	} else {
		res, err := capture.Grab(ctx, capture.Request{Region: region, Quality: quality})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
			os.Exit(1)
		}
		data, width, height, rotation = res.Data, res.Width, res.Height, res.RotationHint
	}

	if rotation != 0 {
		fmt.Fprintf(os.Stderr, "note: display is rotated; rotate the image %d degrees clockwise for upright presentation\n", rotation)
	}

	if capUpload {
		uploadCapture(ctx, cfg, data, width, height)
		return
	}

	out := capOutput
	if out == "" {
		out = fmt.Sprintf("capture-%s.jpg", time.Now().Format("20060102-150405"))
	}
	if out == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Captured %dx%d to %s (%d bytes)\n", width, height, out, len(data))
}

func captureToClipboard(ctx context.Context, region capture.Region, quality int) {
	img, rotation, err := capture.GrabImage(ctx, capture.Request{Region: region, Quality: quality})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
		os.Exit(1)
	}
	if rotation != 0 {
		fmt.Fprintf(os.Stderr, "note: display is rotated; the clipboard image needs a %d degree clockwise rotation\n", rotation)
	}
	if err := clipboard.WriteImage(img); err != nil {
		fmt.Fprintf(os.Stderr, "Clipboard write failed: %v\n", err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Printf("Captured %dx%d to clipboard\n", b.Dx(), b.Dy())
}

func captureViaService(ctx context.Context, pipeName string, region capture.Region, quality int) *client.CaptureResult {
	c, err := client.Dial(pipeName, 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach the capture service: %v\n", err)
		fmt.Fprintln(os.Stderr, "Is 'screengrab serve' running?")
		os.Exit(1)
	}
	defer c.Close()

	res, err := c.Capture(ctx, client.Region{X: region.X, Y: region.Y, Width: region.Width, Height: region.Height}, quality)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
		os.Exit(1)
	}
	return res
}

func uploadCapture(ctx context.Context, cfg *config.Config, data []byte, width, height int) {
	sink, err := upload.NewSink(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload sink unavailable: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()

	hostname, _ := os.Hostname()
	key := upload.Key(cfg.UploadPrefix, hostname, "capture", time.Now())
	if err := upload.PutBytes(ctx, sink, key, data, "image/jpeg"); err != nil {
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Captured %dx%d to %s:%s (%d bytes)\n", width, height, sink.Name(), key, len(data))
}
