package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rhuss/packagefeed/pkg/storage"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load package metadata from a JSON file into the repository",
		Long: `import reads a JSON array of packages and stores each one in the configured
repository, recomputing latest-version flags as it goes. It is meant for the
postgres repository; the memory repository is discarded when the command exits.`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}
	cmd.Flags().StringP("file", "f", "", "Path to the JSON package list")
	cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to get file flag: %w", err)
	}

	ctx := cmd.Context()
	repo, err := openRepository(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := importFile(ctx, repo, file)
	if err != nil {
		return err
	}
	logger.Info("packages imported", "file", file, "packages", n)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d packages\n", n)
	return nil
}

func importFile(ctx context.Context, repo storage.PackageRepository, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return storage.Import(ctx, repo, f)
}
