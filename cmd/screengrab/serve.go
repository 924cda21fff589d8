package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/pipeserve"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve capture requests on the local pipe",
	Long: `Listens on the named pipe (unix socket elsewhere) and answers capture,
displays, ping, and status requests from local clients such as
'screengrab capture --via-service'.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func runServe() {
	cfg := mustLoadConfig()

	srv := pipeserve.New(cfg, version)

	stopChan := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		fmt.Println("\nShutting down...")
		close(stopChan)
	}()

	fmt.Printf("screengrab v%s serving on %s\n", version, pipeserve.Endpoint(cfg.PipeName))
	if err := srv.Listen(stopChan); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
