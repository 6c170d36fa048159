package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

var addCmd = &cobra.Command{
	Use:   "add [task]",
	Short: "Add a task",
	Long: `Add a task for a client. Without --day it lands in the inbox.

The text may carry quick-add markers: @client, a number of hours,
!priority and #day.

Examples:
  weekplanner add "Offerte schrijven" -c UAF -u 1.5
  weekplanner add "Offerte schrijven @UAF 1,5 !high #wo"
  weekplanner add "Sprint review @Acme 2u" --week +1 --day vr`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addClient   string
	addHours    float64
	addPriority string
	addDay      string
)

func init() {
	addCmd.Flags().StringVarP(&addClient, "client", "c", "", "Client the task is for")
	addCmd.Flags().Float64VarP(&addHours, "hours", "u", 0, "Estimated hours")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority (high, medium, low)")
	addCmd.Flags().StringVarP(&addDay, "day", "d", "", "Weekday to place the task on (ma, di, wo, do, vr)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	draft, err := planner.ParseQuickAdd(strings.Join(args, " "))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("client") {
		draft.Client = addClient
	}
	if cmd.Flags().Changed("hours") {
		draft.Hours = addHours
	}
	if cmd.Flags().Changed("priority") {
		p, err := parsePriorityFlag(addPriority)
		if err != nil {
			return err
		}
		draft.Priority = p
	}
	if cmd.Flags().Changed("day") {
		d, err := model.ParseDay(addDay)
		if err != nil {
			return err
		}
		draft.Day = d
	}

	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}
	if !knownClient(sess.store.Clients(), draft.Client) {
		if err := sess.store.AddClient(cmd.Context(), draft.Client); err != nil {
			return fmt.Errorf("failed to add client: %w", err)
		}
		fmt.Printf("✓ New client: %s\n", draft.Client)
	}

	task, err := sess.store.AddTask(cmd.Context(), draft)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}

	where := "inbox"
	if task.Placed() {
		where = fmt.Sprintf("%s, week %d", task.Day, sess.week().Number)
	}
	fmt.Printf("✓ Added: \"%s\" for %s, %s (%s) [%s]\n",
		task.Task, task.Client, model.FormatHours(task.Hours), where, shortID(task.ID))
	return nil
}

func parsePriorityFlag(s string) (model.Priority, error) {
	p := model.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority: %s (use high, medium or low)", s)
	}
	return p, nil
}

func knownClient(clients []string, name string) bool {
	for _, c := range clients {
		if c == name {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
