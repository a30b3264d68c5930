package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/wire"
)

var escalationCmd = &cobra.Command{
	Use:   "escalation",
	Short: "Trigger, advance and acknowledge shipment escalations",
}

var escalationTriggerCmd = &cobra.Command{
	Use:   "trigger [shipment-id]",
	Short: "Start an escalation at the first active contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shipmentID := args[0]
		reason, _ := cmd.Flags().GetString("reason")
		issueID, _ := cmd.Flags().GetString("issue")

		if err := validateEntityID(shipmentID, "shipment"); err != nil {
			return err
		}
		if err := validateEntityID(issueID, "issue"); err != nil {
			return err
		}

		actor, err := currentActor()
		if err != nil {
			return err
		}

		_, err = wire.EscalationAdapter().Trigger(NewContext(actor), primary.TriggerEscalationRequest{
			ShipmentID:      shipmentID,
			DeliveryIssueID: issueID,
			Reason:          reason,
			Actor:           actor,
		})
		return err
	},
}

var escalationAdvanceCmd = &cobra.Command{
	Use:   "advance [shipment-id]",
	Short: "Escalate to the next contact on the ladder (manager or admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shipmentID := args[0]
		if err := validateEntityID(shipmentID, "shipment"); err != nil {
			return err
		}

		actor, err := currentActor()
		if err != nil {
			return err
		}

		_, err = wire.EscalationAdapter().Advance(NewContext(actor), primary.AdvanceEscalationRequest{
			ShipmentID: shipmentID,
			Actor:      actor,
		})
		return err
	},
}

var escalationAckCmd = &cobra.Command{
	Use:   "ack [shipment-id]",
	Short: "Acknowledge the escalation addressed to you",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shipmentID := args[0]
		method, _ := cmd.Flags().GetString("method")
		notes, _ := cmd.Flags().GetString("notes")

		if err := validateEntityID(shipmentID, "shipment"); err != nil {
			return err
		}

		actor, err := currentActor()
		if err != nil {
			return err
		}

		_, err = wire.EscalationAdapter().Acknowledge(NewContext(actor), primary.AcknowledgeEscalationRequest{
			ShipmentID: shipmentID,
			Method:     method,
			Notes:      notes,
			Actor:      actor,
		})
		return err
	},
}

var escalationHistoryCmd = &cobra.Command{
	Use:   "history [shipment-id]",
	Short: "Show every escalation step for a shipment, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shipmentID := args[0]
		if err := validateEntityID(shipmentID, "shipment"); err != nil {
			return err
		}

		actor, err := currentActor()
		if err != nil {
			return err
		}

		_, err = wire.EscalationAdapter().History(NewContext(actor), shipmentID, actor)
		return err
	},
}

var escalationActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "List outstanding escalations and whether they are overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := currentActor()
		if err != nil {
			return err
		}

		_, err = wire.EscalationAdapter().Active(NewContext(actor), actor)
		return err
	},
}

func init() {
	// escalation trigger flags
	escalationTriggerCmd.Flags().StringP("reason", "r", "", "Why the shipment needs attention (required)")
	escalationTriggerCmd.Flags().StringP("issue", "i", "", "Delivery issue ID the escalation is about")
	_ = escalationTriggerCmd.MarkFlagRequired("reason")

	// escalation ack flags
	escalationAckCmd.Flags().StringP("method", "m", "cli", "How the escalation was handled (e.g. phone, email)")
	escalationAckCmd.Flags().StringP("notes", "n", "", "Optional notes for the acknowledgment receipt")

	// Register subcommands
	escalationCmd.AddCommand(escalationTriggerCmd)
	escalationCmd.AddCommand(escalationAdvanceCmd)
	escalationCmd.AddCommand(escalationAckCmd)
	escalationCmd.AddCommand(escalationHistoryCmd)
	escalationCmd.AddCommand(escalationActiveCmd)
}

// EscalationCmd returns the escalation command
func EscalationCmd() *cobra.Command {
	return escalationCmd
}
