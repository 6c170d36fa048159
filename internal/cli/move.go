package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/model"
)

var moveCmd = &cobra.Command{
	Use:     "move [task-id] [day]",
	Aliases: []string{"mv"},
	Short:   "Place a task on a day or send it back to the inbox",
	Long: `Place a task on a weekday of the viewed week, or move it back to the inbox.

Examples:
  weekplanner move abc123 wo
  weekplanner move abc123 Vrijdag --week +1
  weekplanner mv abc123 inbox`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	day, err := model.ParseDay(args[1])
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	task, err := lookupTask(sess, args[0])
	if err != nil {
		return err
	}

	if err := sess.store.MoveTask(cmd.Context(), task.ID, day); err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}

	if day == model.DayNone {
		fmt.Printf("📥 Moved to inbox: \"%s\"\n", task.Task)
	} else {
		fmt.Printf("✓ Planned on %s (week %d): \"%s\"\n", day, sess.week().Number, task.Task)
	}
	return nil
}

// lookupTask resolves an id or id prefix among the loaded tasks
func lookupTask(sess *session, id string) (model.Task, error) {
	task, err := sess.store.Lookup(id)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w (tasks of other weeks need --week)", err)
	}
	return task, nil
}
