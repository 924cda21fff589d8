package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/logging"
	"github.com/breeze-rmm/screengrab/internal/push"
	"github.com/breeze-rmm/screengrab/internal/secmem"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Connect to the collection server for remote capture commands",
	Long: `Maintains a WebSocket connection to the configured collection server
and answers its capture_region and list_displays commands. Reconnects
with backoff until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPush()
	},
}

func runPush() {
	cfg := mustLoadConfig()

	if cfg.PushURL == "" {
		fmt.Fprintln(os.Stderr, "No collection server configured. Set push_url in config.")
		os.Exit(1)
	}

	hostname, _ := os.Hostname()

	// Validation already vetted the scheme; only the host:port part
	// reaches the dialer.
	proxyAddr := ""
	if cfg.PushProxy != "" {
		u, err := url.Parse(cfg.PushProxy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad push_proxy: %v\n", err)
			os.Exit(1)
		}
		proxyAddr = u.Host
	}

	token := secmem.NewSecureString(cfg.PushToken)
	defer token.Zero()

	c := push.New(&push.Config{
		ServerURL: cfg.PushURL,
		SourceID:  hostname,
		AuthToken: token,
		ProxyAddr: proxyAddr,
	}, push.NewHandler(cfg))

	// The shipper posts to the same server the WebSocket dials, so
	// operators see warnings from this host without shell access. The
	// server can turn the level up with a set_log_level command.
	logging.InitShipper(logging.ShipperConfig{
		ServerURL: cfg.PushURL,
		SourceID:  hostname,
		AuthToken: cfg.PushToken,
		Version:   version,
		MinLevel:  "warn",
	})

	go c.Start()
	fmt.Printf("Push client started (server: %s, source: %s). Ctrl+C to stop.\n", cfg.PushURL, hostname)
	waitForShutdown()
	fmt.Println("\nStopping push client...")
	c.Stop()
	logging.StopShipper()
}
