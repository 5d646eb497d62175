// Command feedserver serves a read-only NuGet V2 package feed.
//
// Configuration is read from a YAML file (--config, PACKAGEFEED_CONFIG,
// ./config.yaml or /etc/packagefeed/config.yaml) and PACKAGEFEED_*
// environment variables. See pkg/config for the full set of options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "feedserver",
		Short: "Read-only NuGet V2 package feed",
		Long: `feedserver serves package metadata over the NuGet V2 feed protocol at
/api/v1 and /api/v2. Package content is addressed by download links and never
streamed through the feed itself.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")

	root.AddCommand(newServeCmd(), newImportCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feedserver %s\n", version)
		},
	}
}
