package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
}

// CheckCmd runs what CI runs before a merge.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run linters and unit tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			if err := test.Test(); err != nil {
				return fmt.Errorf("tests failed: %w", err)
			}
			return nil
		},
	}
}

// IntegrationTestCmd runs tests needing real hardware on the bus.
func IntegrationTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "integration-test",
		Short: "Run hardware integration tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Integ(); err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
}
