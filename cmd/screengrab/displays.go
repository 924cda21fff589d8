package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/capture"
)

var displaysJSON bool

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List displays and their desktop coordinates",
	Run: func(cmd *cobra.Command, args []string) {
		runDisplays()
	},
}

func init() {
	displaysCmd.Flags().BoolVar(&displaysJSON, "json", false, "emit JSON")
}

func runDisplays() {
	mustLoadConfig()

	displays, err := capture.Displays()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Display enumeration failed: %v\n", err)
		os.Exit(1)
	}

	if displaysJSON {
		data, err := json.MarshalIndent(displays, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Encode failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	for _, d := range displays {
		primary := ""
		if d.Primary {
			primary = ", primary"
		}
		fmt.Printf("%-16s %dx%d at (%d,%d), rotation %d, adapter %d output %d%s\n",
			d.DeviceName,
			d.Bounds.Width, d.Bounds.Height,
			d.Bounds.X, d.Bounds.Y,
			d.Rotation.Degrees(),
			d.AdapterIndex, d.OutputIndex,
			primary)
	}
}
