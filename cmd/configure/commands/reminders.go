package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/validation"
)

// NewRemindersCmd creates the reminders command with its subcommands
func NewRemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage stored reminders",
	}
	cmd.AddCommand(newRemindersListCmd())
	cmd.AddCommand(newRemindersAddCmd())
	cmd.AddCommand(newRemindersCompleteCmd())
	cmd.AddCommand(newRemindersDeleteCmd())
	return cmd
}

func newRemindersListCmd() *cobra.Command {
	var statusFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			var status *models.ReminderStatus
			if statusFlag != "" {
				if err := validation.ValidateReminderStatus(statusFlag); err != nil {
					return err
				}
				s := models.ReminderStatus(statusFlag)
				status = &s
			}

			reminders := controller.ListReminders(status)
			if len(reminders) == 0 {
				fmt.Println("No reminders.")
				return nil
			}
			fmt.Printf("%d reminder(s) (capacity %d):\n", len(reminders), models.MaxReminders)
			for _, r := range reminders {
				fmt.Printf("  %s  [%s]  %s  (%s, contact: %s)\n",
					r.ID, r.Status, r.Text,
					r.ScheduledTime().Format(time.RFC3339), r.ContactName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, completed, snoozed)")
	return cmd
}

func newRemindersAddCmd() *cobra.Command {
	var text, date, timeOfDay, contact string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a pending reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			text = validation.SanitizeText(text)
			if text == "" {
				return fmt.Errorf("--text is required")
			}
			scheduled, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, time.Local)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD and --time must be HH:MM: %w", err)
			}
			if contact == "" {
				contact = models.ManualEntryContact
			}

			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			reminder, err := controller.AddReminder(context.Background(), text, scheduled.UnixMilli(), contact)
			if err != nil {
				return fmt.Errorf("add reminder: %w", err)
			}
			fmt.Printf("Created reminder %s for %s\n", reminder.ID, reminder.ScheduledTime().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Reminder text (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "Time HH:MM (required)")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact name (default: Manual Entry)")
	return cmd
}

func newRemindersCompleteCmd() *cobra.Command {
	var idFlag string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark a reminder completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(idFlag))
			if err != nil {
				return fmt.Errorf("--id must be a valid UUID")
			}

			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			reminder, err := controller.CompleteReminder(context.Background(), id)
			if err != nil {
				return fmt.Errorf("complete reminder: %w", err)
			}
			if reminder == nil {
				return fmt.Errorf("reminder %s not found", id)
			}
			fmt.Printf("Completed reminder %s\n", reminder.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "Reminder id (required)")
	return cmd
}

func newRemindersDeleteCmd() *cobra.Command {
	var idFlag string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(idFlag))
			if err != nil {
				return fmt.Errorf("--id must be a valid UUID")
			}

			controller, closeFn, err := openController(context.Background())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := controller.DeleteReminder(context.Background(), id); err != nil {
				return fmt.Errorf("delete reminder: %w", err)
			}
			fmt.Printf("Deleted reminder %s (if it existed)\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "Reminder id (required)")
	return cmd
}
