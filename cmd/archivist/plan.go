package main

import (
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what changes archivist would make",
	Long: `Plan loads the manifest and shows what would change, without changing anything.

This command:
1. Loads and validates the manifest
2. Probes every declared archive path
3. Decides one action per archive (create, replace, remove or nothing)
4. Prints the narration of each change`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	descriptors, err := s.app.Load(manifestPath)
	if err != nil {
		return err
	}

	results := s.app.Plan(cmd.Context(), descriptors)
	s.app.PrintPlan(results)
	return failedError(results)
}
