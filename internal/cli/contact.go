package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/wire"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Manage the escalation contact ladder",
}

var contactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ladder contacts in position order",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		_, err := wire.ContactAdapter().List(NewContext(primary.Actor{}), !all)
		return err
	},
}

var contactAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a contact to the ladder (admin only)",
	Long: `Add a rung to the escalation ladder. Positions are unique and never edited.

Examples:
  logitrack contact add --user USR-004 --position 4 --type email --timeout 1200 --as USR-001`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		position, _ := cmd.Flags().GetInt("position")
		contactType, _ := cmd.Flags().GetString("type")
		timeout, _ := cmd.Flags().GetInt("timeout")

		if err := validateEntityID(userID, "user"); err != nil {
			return err
		}

		actor, err := currentActor()
		if err != nil {
			return err
		}

		_, err = wire.ContactAdapter().Add(NewContext(actor), primary.CreateContactRequest{
			UserID:         userID,
			Position:       position,
			ContactType:    contactType,
			TimeoutSeconds: timeout,
			Actor:          actor,
		})
		return err
	},
}

func contactSetActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [contact-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contactID := args[0]
			if err := validateEntityID(contactID, "contact"); err != nil {
				return err
			}

			actor, err := currentActor()
			if err != nil {
				return err
			}

			_, err = wire.ContactAdapter().SetActive(NewContext(actor), primary.SetContactActiveRequest{
				ContactID: contactID,
				Active:    active,
				Actor:     actor,
			})
			if err != nil {
				return fmt.Errorf("failed to %s contact: %w", use, err)
			}
			return nil
		},
	}
}

func init() {
	// contact list flags
	contactListCmd.Flags().Bool("all", false, "Include inactive contacts")

	// contact add flags
	contactAddCmd.Flags().String("user", "", "User ID bound to the contact (required)")
	contactAddCmd.Flags().Int("position", 0, "Ladder position, unique (required)")
	contactAddCmd.Flags().String("type", "", "Contact method: email, phone or push (required)")
	contactAddCmd.Flags().Int("timeout", 0, "Seconds before the contact is considered overdue")
	_ = contactAddCmd.MarkFlagRequired("user")
	_ = contactAddCmd.MarkFlagRequired("position")
	_ = contactAddCmd.MarkFlagRequired("type")

	// Register subcommands
	contactCmd.AddCommand(contactListCmd)
	contactCmd.AddCommand(contactAddCmd)
	contactCmd.AddCommand(contactSetActiveCmd("deactivate", "Take a contact off the ladder (admin only)", false))
	contactCmd.AddCommand(contactSetActiveCmd("activate", "Put a contact back on the ladder (admin only)", true))
}

// ContactCmd returns the contact command
func ContactCmd() *cobra.Command {
	return contactCmd
}
