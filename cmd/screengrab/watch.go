package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/config"
	"github.com/breeze-rmm/screengrab/internal/upload"
	"github.com/breeze-rmm/screengrab/internal/watch"
)

var watchJobsFlag string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled capture jobs from a jobs file",
	Long: `Runs the named jobs on their intervals until interrupted. Jobs marked
upload go to the configured sink; the rest land in the local output
directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWatch()
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchJobsFlag, "jobs", "", "jobs file (default from config watch_jobs_file)")
}

func runWatch() {
	cfg := mustLoadConfig()

	jobsFile := watchJobsFlag
	if jobsFile == "" {
		jobsFile = cfg.WatchJobsFile
	}
	if jobsFile == "" {
		fmt.Fprintln(os.Stderr, "No jobs file. Use --jobs or set watch_jobs_file in config.")
		os.Exit(1)
	}

	jobs, err := config.LoadJobs(jobsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load jobs: %v\n", err)
		os.Exit(1)
	}

	sink, err := upload.NewSink(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload sink unavailable: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()

	m := watch.New(cfg, jobs, sink)
	if err := m.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start watch: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Watching %d jobs (sink: %s). Ctrl+C to stop.\n", len(jobs), sink.Name())
	waitForShutdown()
	fmt.Println("\nStopping watch...")
	m.Stop()

	st := m.Stats()
	fmt.Printf("Captured %d, skipped %d, delivered %d, failed %d\n",
		st.Captured, st.Skipped, st.Delivered, st.CaptureFailed+st.DeliveryFailed)
}
