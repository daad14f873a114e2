package main

import (
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Converge the filesystem to the manifest",
	Long: `Apply downloads, verifies, extracts and removes archives until the
filesystem matches the manifest. Archives are reconciled concurrently;
a failure in one archive does not stop the others.`,
	RunE: runApply,
}

var (
	applyDryRun     bool
	applyCreateDirs bool
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "show what would change without changing it")
	applyCmd.Flags().BoolVar(&applyCreateDirs, "create-dirs", false, "create missing parent and extract directories")
}

func runApply(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if cmd.Flags().Changed("create-dirs") {
		s.app.WithCreateDirs(applyCreateDirs)
	}

	descriptors, err := s.app.Load(manifestPath)
	if err != nil {
		return err
	}

	results := s.app.Apply(cmd.Context(), descriptors, applyDryRun)
	s.app.PrintResults(results)
	return failedError(results)
}
