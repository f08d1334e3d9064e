package main

import (
	"fmt"
	"os"

	"github.com/callnudge/call-nudge/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "call-nudge-configure",
		Short: "Configuration tool for the Call Nudge API",
		Long:  "CLI tool for inspecting and editing reminders and settings in the document store",
	}

	rootCmd.AddCommand(commands.NewRemindersCmd())
	rootCmd.AddCommand(commands.NewSettingsCmd())
	rootCmd.AddCommand(commands.NewExportCmd())
	rootCmd.AddCommand(commands.NewImportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
