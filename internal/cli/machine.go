package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/wire"
)

var machineCmd = &cobra.Command{
	Use:   "machine",
	Short: "Manage shop-floor machines",
	Long:  "Register machines, declare capabilities and inspect queues",
}

var machineAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a machine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		machine, err := wire.MachineService().RegisterMachine(serviceContext(), primary.RegisterMachineRequest{
			Name:   args[0],
			Status: status,
		})
		if err != nil {
			return fmt.Errorf("failed to register machine: %w", err)
		}

		fmt.Printf("✓ Registered machine %s: %s (%s)\n", machine.ID, machine.Name, machine.Status)
		return nil
	},
}

var machineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List machines",
	RunE: func(cmd *cobra.Command, args []string) error {
		machines, err := wire.MachineService().ListMachines(serviceContext())
		if err != nil {
			return fmt.Errorf("failed to list machines: %w", err)
		}

		if len(machines) == 0 {
			fmt.Println("No machines registered.")
			return nil
		}

		for _, m := range machines {
			fmt.Printf("  %s  %-10s  %s\n", m.ID, machineStatusColor(m.Status).Sprint(m.Status), m.Name)
		}
		return nil
	},
}

var machineStatusCmd = &cobra.Command{
	Use:   "status [machine-id] [status]",
	Short: "Set a machine's floor status (idle|running|blocked|down)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.MachineService().SetMachineStatus(serviceContext(), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set machine status: %w", err)
		}
		fmt.Printf("✓ Machine %s is now %s\n", args[0], args[1])
		return nil
	},
}

var machineCapabilityCmd = &cobra.Command{
	Use:   "capability [machine-id] [process] [bar-code]",
	Short: "Declare that a machine can run a process for a bar size",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxBars, _ := cmd.Flags().GetInt("max-bars")

		err := wire.MachineService().AddCapability(serviceContext(), primary.AddCapabilityRequest{
			MachineID:     args[0],
			Process:       args[1],
			BarCode:       args[2],
			MaxBarsPerRun: maxBars,
		})
		if err != nil {
			return fmt.Errorf("failed to add capability: %w", err)
		}

		fmt.Printf("✓ %s can now %s %s\n", args[0], args[1], args[2])
		return nil
	},
}

var machineCapabilitiesCmd = &cobra.Command{
	Use:   "capabilities [machine-id]",
	Short: "List a machine's capability table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caps, err := wire.MachineService().ListCapabilities(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list capabilities: %w", err)
		}

		if len(caps) == 0 {
			fmt.Println("No capabilities declared.")
			return nil
		}

		for _, c := range caps {
			fmt.Printf("  %-6s %-6s", c.Process, c.BarCode)
			if c.MaxBarsPerRun > 0 {
				fmt.Printf("  max %d bars/run", c.MaxBarsPerRun)
			}
			fmt.Println()
		}
		return nil
	},
}

var machineQueueCmd = &cobra.Command{
	Use:   "queue [machine-id]",
	Short: "Show a machine's queue in position order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := wire.MachineService().QueueForMachine(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list queue: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		for _, item := range items {
			fmt.Printf("  #%-3d %s  %s\n", item.Position, item.TaskID, item.Status)
		}
		return nil
	},
}

func machineStatusColor(status string) *color.Color {
	switch status {
	case "idle":
		return color.New(color.FgGreen)
	case "running":
		return color.New(color.FgCyan)
	case "blocked":
		return color.New(color.FgYellow)
	case "down":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

func init() {
	machineAddCmd.Flags().String("status", "", "Initial status (defaults to idle)")
	machineCapabilityCmd.Flags().Int("max-bars", 0, "Maximum bars per run")

	machineCmd.AddCommand(machineAddCmd)
	machineCmd.AddCommand(machineListCmd)
	machineCmd.AddCommand(machineStatusCmd)
	machineCmd.AddCommand(machineCapabilityCmd)
	machineCmd.AddCommand(machineCapabilitiesCmd)
	machineCmd.AddCommand(machineQueueCmd)
}

// MachineCmd returns the machine command tree.
func MachineCmd() *cobra.Command {
	return machineCmd
}
