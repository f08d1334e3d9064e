package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/callnudge/call-nudge/internal/models"
)

// exportDocument is the YAML shape written by export and read by import
type exportDocument struct {
	Settings  models.AppSettings `yaml:"settings"`
	Reminders []exportReminder   `yaml:"reminders"`
}

type exportReminder struct {
	ID          string `yaml:"id"`
	Text        string `yaml:"text"`
	Timestamp   int64  `yaml:"timestamp"`
	CreatedAt   int64  `yaml:"createdAt"`
	Status      string `yaml:"status"`
	ContactName string `yaml:"contactName,omitempty"`
}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reminders and settings as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			doc := exportDocument{Settings: controller.Settings()}
			for _, r := range controller.ListReminders(nil) {
				doc.Reminders = append(doc.Reminders, exportReminder{
					ID:          r.ID.String(),
					Text:        r.Text,
					Timestamp:   r.Timestamp,
					CreatedAt:   r.CreatedAt,
					Status:      string(r.Status),
					ContactName: r.ContactName,
				})
			}

			data, err := yaml.Marshal(&doc)
			if err != nil {
				return fmt.Errorf("marshal export: %w", err)
			}
			if output == "" || output == "-" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Printf("Exported %d reminder(s) to %s\n", len(doc.Reminders), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// NewImportCmd creates the import command. Import appends reminders through
// the controller, so the cap and ordering rules still apply; settings are
// replaced whole.
func NewImportCmd() *cobra.Command {
	var input string
	var skipSettings bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import reminders and settings from a YAML export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var doc exportDocument
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}

			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := context.Background()
			imported := 0
			for i := len(doc.Reminders) - 1; i >= 0; i-- {
				// Reverse order keeps the export's newest-first ordering
				// after prepending
				r := doc.Reminders[i]
				reminder, err := controller.AddReminder(ctx, r.Text, r.Timestamp, r.ContactName)
				if err != nil {
					return fmt.Errorf("import reminder %q: %w", r.Text, err)
				}
				if models.ReminderStatus(r.Status) == models.ReminderStatusCompleted {
					if _, err := controller.CompleteReminder(ctx, reminder.ID); err != nil {
						return fmt.Errorf("restore completed status: %w", err)
					}
				}
				imported++
			}

			if !skipSettings {
				if err := controller.UpdateSettings(ctx, doc.Settings); err != nil {
					return fmt.Errorf("import settings: %w", err)
				}
			}
			fmt.Printf("Imported %d reminder(s)\n", imported)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file (required)")
	cmd.Flags().BoolVar(&skipSettings, "skip-settings", false, "Do not overwrite settings")
	return cmd
}
