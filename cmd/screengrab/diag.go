package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/diag"
)

var diagJSON bool

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Print host, GPU, and display diagnostics",
	Run: func(cmd *cobra.Command, args []string) {
		runDiag()
	},
}

func init() {
	diagCmd.Flags().BoolVar(&diagJSON, "json", false, "emit JSON")
}

func runDiag() {
	mustLoadConfig()

	report := diag.Collect()
	if diagJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Encode failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	diag.Render(os.Stdout, report)
}
