package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set via -ldflags at release build time.
	Version = "dev"

	cfgFile string
	verbose bool

	logger = log.New(os.Stderr)

	rootCmd = &cobra.Command{
		Use:     "pgforge",
		Short:   "Generate typed source artifacts from a database schema",
		Version: Version,
		Long: `pgforge turns an introspected database schema into generated source
artifacts: TypeScript row types, zod validators, HTTP route tables, Go
structs and GraphQL SDL, produced by composable plugins that share one
symbol registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "pgforge.yaml", "project file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(generateCmd)
}
