package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the manifest without touching the filesystem",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	descriptors, err := s.app.Load(manifestPath)
	if err != nil {
		return err
	}

	result := s.app.Validate(manifestPath, descriptors)
	out := cmd.OutOrStdout()
	if verbose {
		for _, info := range result.Info {
			_, _ = fmt.Fprintf(out, "  ℹ %s\n", info)
		}
	}
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(out, "  ✗ %s\n", e)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("manifest has %d error(s)", len(result.Errors))
	}
	_, _ = fmt.Fprintf(out, "✓ %s is valid (%d archive(s))\n", manifestPath, len(descriptors))
	return nil
}
