package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/validation"
)

// NewSettingsCmd creates the settings command with list and set subcommands
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage application settings",
	}
	cmd.AddCommand(newSettingsListCmd())
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			settings := controller.Settings()
			fmt.Println("Settings:")
			fmt.Printf("  Voice enabled:     %t\n", settings.VoiceEnabled)
			fmt.Printf("  Min call duration: %d s\n", settings.MinCallDuration)
			fmt.Printf("  Theme:             %s\n", settings.Theme)
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var voice string
	var minDuration int
	var theme string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update settings fields",
		Long:  "Update one or more settings fields; unspecified fields keep their value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			settings := controller.Settings()

			switch voice {
			case "":
			case "on", "true":
				settings.VoiceEnabled = true
			case "off", "false":
				settings.VoiceEnabled = false
			default:
				return fmt.Errorf("--voice must be on or off")
			}
			if cmd.Flags().Changed("min-call-duration") {
				if minDuration < 0 {
					return fmt.Errorf("--min-call-duration must be >= 0")
				}
				settings.MinCallDuration = minDuration
			}
			if theme != "" {
				if err := validation.ValidateTheme(theme); err != nil {
					return err
				}
				settings.Theme = models.Theme(theme)
			}

			if err := controller.UpdateSettings(context.Background(), settings); err != nil {
				return fmt.Errorf("update settings: %w", err)
			}
			fmt.Println("Settings updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "Voice prompts: on or off")
	cmd.Flags().IntVar(&minDuration, "min-call-duration", 0, "Minimum call duration in seconds to trigger a nudge")
	cmd.Flags().StringVar(&theme, "theme", "", "Theme: light, dark or system")
	return cmd
}
