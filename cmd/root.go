package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	debugFlag   bool
	verboseFlag bool
	configFlag  string
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "bouf",
	Short: "Build, delta-patch and sign OBS Studio update packages",
	Long: `bouf prepares a raw build output directory into a clean install tree,
diffs it against previously published versions, and packages the result
into installers, full-build zips, delta patches and a signed updater
manifest.`,
	Version: "1.0.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show verbose log output")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to the build config YAML file")
}
