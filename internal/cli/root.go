// Package cli implements the bloom command-line interface using Cobra.
// Commands open the daemon locally and act on the same store the API uses.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/habitbloom/bloom/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "bloom",
	Short: "Bloom: habit tracking with levels, streaks and achievements",
	Long: `Bloom turns habit completions into XP, levels, streaks and achievements.
State is stored locally in $BLOOM_HOME (default ~/.bloom).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDaemon is swapped in tests.
var openDaemon = daemon.New
