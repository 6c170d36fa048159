package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/model"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Long: `Mark a task as completed. Completed tasks keep their place and still
count towards the day they were planned on.

Examples:
  weekplanner done abc123
  weekplanner done abc123 --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark the task as not completed")
}

func runDone(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	task, err := lookupTask(sess, args[0])
	if err != nil {
		return err
	}

	completed := !doneUndo
	if task.Completed == completed {
		fmt.Printf("Nothing to do: \"%s\" is already %s\n", task.Task, doneState(completed))
		return nil
	}

	if err := sess.store.UpdateTask(cmd.Context(), task.ID, model.TaskPatch{Completed: &completed}); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if completed {
		fmt.Printf("✅ Completed: \"%s\"\n", task.Task)
	} else {
		fmt.Printf("↩️  Reopened: \"%s\"\n", task.Task)
	}
	return nil
}

func doneState(completed bool) string {
	if completed {
		return "completed"
	}
	return "open"
}
