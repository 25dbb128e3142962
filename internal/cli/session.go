package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/wire"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage extraction sessions",
	Long:  "Create, extract, map, validate, approve and reject drawing extraction sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Register an uploaded drawing submission",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		customer, _ := cmd.Flags().GetString("customer")
		site, _ := cmd.Flags().GetString("site")
		manifest, _ := cmd.Flags().GetString("manifest")
		eta, _ := cmd.Flags().GetString("eta")

		resp, err := wire.PipelineService().CreateSession(serviceContext(), primary.CreateSessionRequest{
			Name:         args[0],
			Customer:     customer,
			SiteAddress:  site,
			ManifestType: manifest,
			TargetETA:    eta,
		})
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		fmt.Printf("✓ Created session %s: %s\n", resp.SessionID, resp.Session.Name)
		if resp.Session.Customer != "" {
			fmt.Printf("  Customer: %s\n", resp.Session.Customer)
		}
		fmt.Printf("  Status: %s\n", resp.Session.Status)
		return nil
	},
}

var sessionExtractCmd = &cobra.Command{
	Use:   "extract [session-id] [file]",
	Short: "Run extraction for a session",
	Long: `Send the drawing file to the extraction service (or read pre-extracted
rows from a local JSON file when no service is configured) and record the
result on the session.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := serviceContext()
		sessionID, source := args[0], args[1]
		hintProject, _ := cmd.Flags().GetString("hint-project")

		if err := wire.PipelineService().BeginExtraction(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to begin extraction: %w", err)
		}

		hints := map[string]string{}
		if hintProject != "" {
			hints["project"] = hintProject
		}

		extracted, err := wire.ExtractionClient().Extract(ctx, source, hints)
		if err != nil {
			return fmt.Errorf("extraction failed, session stays extracting for retry: %w", err)
		}

		rows := make([]primary.RowInput, len(extracted))
		for i, row := range extracted {
			rows[i] = primary.RowInput{
				DrawingRef:  row.DrawingRef,
				Mark:        row.Mark,
				Quantity:    row.Quantity,
				BarSize:     row.BarSize,
				Grade:       row.Grade,
				ShapeCode:   row.ShapeCode,
				TotalLength: row.TotalLength,
				Dimensions:  row.Dimensions,
			}
		}

		if err := wire.PipelineService().RecordExtraction(ctx, sessionID, rows); err != nil {
			return fmt.Errorf("failed to record extraction: %w", err)
		}

		fmt.Printf("✓ Extracted %d row(s) into session %s\n", len(rows), sessionID)
		return nil
	},
}

var sessionMapCmd = &cobra.Command{
	Use:   "map [session-id]",
	Short: "Normalize the session's rows against the canonical vocabulary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := wire.PipelineService().ApplyMapping(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to apply mapping: %w", err)
		}

		fmt.Printf("✓ Mapped session %s\n", args[0])
		fmt.Printf("  Rows with canonical bar size: %d\n", result.MappedCount)
		if result.AutoMappingsCreated > 0 {
			fmt.Printf("  New auto rules learned: %d\n", result.AutoMappingsCreated)
		}
		return nil
	},
}

var sessionValidateCmd = &cobra.Command{
	Use:   "validate [session-id]",
	Short: "Run the validation rule set over the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := wire.PipelineService().Validate(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to validate: %w", err)
		}

		fmt.Printf("✓ Validated session %s (%d rows)\n", args[0], result.TotalRows)
		if result.Blockers > 0 {
			color.New(color.FgRed).Printf("  Blockers: %d\n", result.Blockers)
		}
		if result.Warnings > 0 {
			color.New(color.FgYellow).Printf("  Warnings: %d\n", result.Warnings)
		}
		if result.CanApprove {
			color.New(color.FgGreen).Println("  Ready for approval")
		} else {
			fmt.Println("  Approval blocked until blockers are resolved")
		}
		return nil
	},
}

var sessionApproveCmd = &cobra.Command{
	Use:   "approve [session-id]",
	Short: "Approve the session and create the production graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wire.ApprovalService().Approve(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to approve: %w", err)
		}

		fmt.Printf("✓ Approved session %s\n", args[0])
		fmt.Printf("  Work order:  %s (%s)\n", resp.WorkOrderNumber, resp.WorkOrderID)
		fmt.Printf("  Project:     %s\n", resp.ProjectID)
		fmt.Printf("  Barlist:     %s\n", resp.BarlistID)
		fmt.Printf("  Order:       %s\n", resp.OrderID)
		fmt.Printf("  Cut plan:    %s\n", resp.CutPlanID)
		fmt.Printf("  Items:       %d\n", resp.ItemsApproved)
		fmt.Printf("  Tasks queued: %d", resp.TasksQueued)
		if resp.TasksPending > 0 {
			color.New(color.FgYellow).Printf("  (pending manual routing: %d)", resp.TasksPending)
		}
		fmt.Println()
		return nil
	},
}

var sessionRejectCmd = &cobra.Command{
	Use:   "reject [session-id]",
	Short: "Reject the session without production side effects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")

		resp, err := wire.PipelineService().Reject(serviceContext(), primary.RejectRequest{
			SessionID: args[0],
			Reason:    reason,
		})
		if err != nil {
			return fmt.Errorf("failed to reject: %w", err)
		}

		fmt.Printf("✓ Rejected session %s (was %s)\n", args[0], resp.PreviousStatus)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		sessions, err := wire.PipelineService().ListSessions(serviceContext(), primary.SessionFilters{
			Status: status,
			Limit:  limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Printf("Found %d session(s):\n\n", len(sessions))
		for _, s := range sessions {
			fmt.Printf("  %s  %-10s  %s", s.ID, statusColor(s.Status).Sprint(s.Status), s.Name)
			if s.Customer != "" {
				fmt.Printf("  (%s)", s.Customer)
			}
			fmt.Println()
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session with its rows and issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := wire.PipelineService().GetSessionDetail(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		s := detail.Session
		fmt.Printf("%s: %s\n", s.ID, s.Name)
		fmt.Printf("  Status:   %s\n", statusColor(s.Status).Sprint(s.Status))
		if s.Customer != "" {
			fmt.Printf("  Customer: %s\n", s.Customer)
		}
		if s.BarlistID != "" {
			fmt.Printf("  Barlist:  %s\n", s.BarlistID)
		}

		if len(detail.Rows) > 0 {
			fmt.Printf("\n  Rows (%d):\n", len(detail.Rows))
			for _, row := range detail.Rows {
				mapped := row.BarSizeMapped
				if mapped == "" {
					mapped = "-"
				}
				fmt.Printf("    %s  %-8s qty %-4d raw %q -> %s  %s\n",
					row.ID, row.Mark, row.Quantity, row.BarSizeRaw, mapped, row.Status)
			}
		}

		if len(detail.Issues) > 0 {
			fmt.Printf("\n  Issues (%d):\n", len(detail.Issues))
			for _, issue := range detail.Issues {
				c := color.New(color.FgYellow)
				if issue.Severity == "blocker" {
					c = color.New(color.FgRed)
				}
				fmt.Printf("    %s %s [%s] %s\n", c.Sprint(issue.Severity), issue.RowID, issue.Field, issue.Message)
			}
		}
		return nil
	},
}

var sessionAuditCmd = &cobra.Command{
	Use:   "audit [session-id]",
	Short: "Show the session's audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := wire.AuditLog().ListByEntity(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list audit events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found.")
			return nil
		}

		for _, e := range events {
			fmt.Printf("  %s  %-20s", e.CreatedAt, e.EventType)
			if e.Actor != "" {
				fmt.Printf("  by %s", e.Actor)
			}
			if e.Detail != "" {
				fmt.Printf("  (%s)", e.Detail)
			}
			fmt.Println()
		}
		return nil
	},
}

func statusColor(status string) *color.Color {
	switch status {
	case "approved":
		return color.New(color.FgGreen)
	case "rejected":
		return color.New(color.FgRed)
	case "validated":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}

func init() {
	sessionCreateCmd.Flags().String("customer", "", "Customer name")
	sessionCreateCmd.Flags().String("site", "", "Site address")
	sessionCreateCmd.Flags().String("manifest", "", "Manifest type (delivery|pickup)")
	sessionCreateCmd.Flags().String("eta", "", "Target ETA (YYYY-MM-DD)")
	sessionExtractCmd.Flags().String("hint-project", "", "Project hint passed to the extraction service")
	sessionRejectCmd.Flags().String("reason", "", "Rejection reason for the audit trail")
	sessionListCmd.Flags().String("status", "", "Filter by status")
	sessionListCmd.Flags().Int("limit", 0, "Limit the number of sessions")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionExtractCmd)
	sessionCmd.AddCommand(sessionMapCmd)
	sessionCmd.AddCommand(sessionValidateCmd)
	sessionCmd.AddCommand(sessionApproveCmd)
	sessionCmd.AddCommand(sessionRejectCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionAuditCmd)
}

// SessionCmd returns the session command tree.
func SessionCmd() *cobra.Command {
	return sessionCmd
}
