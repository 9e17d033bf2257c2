package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "yt-digest",
		Short:         "Generate written digests of YouTube videos",
		Long:          "yt-digest turns a YouTube URL into a Markdown digest with tags, and saves it as a note.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server
		RunE: serve.RunE,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file with API keys")

	root.AddCommand(serve, newDigestCmd(), newDriveAuthCmd())
	return root
}
