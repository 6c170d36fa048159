package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task by its ID or an unambiguous ID prefix.

Examples:
  weekplanner delete abc123
  weekplanner rm abc123 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	task, err := lookupTask(sess, args[0])
	if err != nil {
		return err
	}

	if sess.cfg.ConfirmDelete && !deleteForce {
		fmt.Printf("About to delete: \"%s\" (ID: %s)\n", task.Task, task.ID)
		fmt.Print("Are you sure? [y/N]: ")
		var confirm string
		_, _ = fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := sess.store.RemoveTask(cmd.Context(), task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	fmt.Printf("🗑️  Deleted: \"%s\"\n", task.Task)
	return nil
}
