package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var configDir string

var rootCmd = &cobra.Command{
	Use:   "villamedia",
	Short: "Media derivative server for the Interior Villa website",
	Long: "villamedia stores uploaded images, renders the responsive variant set\n" +
		"the website uses, and serves the files, sitemap and contact form relay.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
