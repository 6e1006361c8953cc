// Command fabricview serves an interactive InfiniBand fabric topology viewer.
package main

import (
	"embed"
	"os"

	"github.com/spf13/cobra"
)

//go:embed web/*
var webFS embed.FS

var version = "0.3.0"

var (
	configPath string
	envPath    string
)

var rootCmd = &cobra.Command{
	Use:           "fabricview",
	Short:         "InfiniBand fabric topology viewer",
	Long:          brand.Sprint("fabricview") + " draws InfiniBand fabrics as live force-directed graphs\n" + subtle.Sprint("Serve the viewer, validate topology documents, and manage the device catalogue"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(
		serveCmd(),
		validateCmd(),
		catalogCmd(),
		lookupCmd(),
		devicesCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		bad.Fprintf(os.Stderr, "fabricview: %v\n", err)
		os.Exit(1)
	}
}
