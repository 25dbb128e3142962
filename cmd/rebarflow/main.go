package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/cli"
	"github.com/example/rebarflow/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rebarflow",
		Short:   "rebarflow - extraction-to-production pipeline for rebar bar lists",
		Version: version.String(),
		Long: `rebarflow turns AI-extracted rebar bar lists into production work.
It manages extraction sessions through mapping, validation and approval,
then builds the production graph and dispatches cutting and bending tasks
onto shop-floor machines.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.SessionCmd())
	rootCmd.AddCommand(cli.MachineCmd())
	rootCmd.AddCommand(cli.TaskCmd())
	rootCmd.AddCommand(cli.RuleCmd())
	rootCmd.AddCommand(cli.DBCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
