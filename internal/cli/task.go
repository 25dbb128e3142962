package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/wire"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage production tasks",
	Long:  "List and dispatch the machine tasks created by session approval",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List production tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		tasks, err := wire.MachineService().ListTasks(serviceContext(), status)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("Found %d task(s):\n\n", len(tasks))
		for _, t := range tasks {
			fmt.Printf("  %s  %-4s %-5s qty %-4d %-14s %s\n",
				t.ID, t.Type, t.BarSize, t.Quantity, t.SetupKey, t.Status)
		}
		return nil
	},
}

var taskDispatchCmd = &cobra.Command{
	Use:   "dispatch [task-id]",
	Short: "Dispatch a pending task to the best-fit machine",
	Long: `Retry routing for a task that stayed pending, for example after a
machine came back up or gained a capability.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := wire.DispatchService().DispatchTask(serviceContext(), args[0])
		if err != nil {
			return fmt.Errorf("failed to dispatch task: %w", err)
		}

		if result.Skipped {
			fmt.Printf("Task %s not dispatched: %s\n", result.TaskID, result.Reason)
			return nil
		}

		fmt.Printf("✓ Task %s queued on %s at position %d\n", result.TaskID, result.MachineID, result.Position)
		return nil
	},
}

func init() {
	taskListCmd.Flags().String("status", "", "Filter by status (pending|queued|running|complete)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDispatchCmd)
}

// TaskCmd returns the task command tree.
func TaskCmd() *cobra.Command {
	return taskCmd
}
