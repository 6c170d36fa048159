package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/model"
	"github.com/existflow/weekplanner/internal/planner"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the tasks of a week",
	Long: `List the inbox and the tasks placed on each day of a week.

Examples:
  weekplanner list
  weekplanner list --week +1
  weekplanner list --day wo
  weekplanner ls --pending`,
	RunE: runList,
}

var (
	listDay     string
	listPending bool
)

func init() {
	listCmd.Flags().StringVarP(&listDay, "day", "d", "", "Only show one day (or 'inbox')")
	listCmd.Flags().BoolVar(&listPending, "pending", false, "Hide completed tasks")
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	days := append([]model.Day{model.DayNone}, model.Weekdays...)
	if cmd.Flags().Changed("day") {
		d, err := model.ParseDay(listDay)
		if err != nil {
			return err
		}
		days = []model.Day{d}
	}

	week := sess.week()
	sum := sess.store.Summary()
	printWeekHeader(week, sum)

	dates := make(map[model.Day]calendar.WeekDay, len(week.Days))
	for _, wd := range week.Days {
		dates[wd.Label] = wd
	}
	loads := make(map[model.Day]planner.DayLoad, len(sum.Days))
	for _, dl := range sum.Days {
		loads[dl.Day] = dl
	}
	today := sess.cal.TodayLabel()

	for _, d := range days {
		tasks := filterPending(sess.store.DayTasks(d), listPending)
		if d == model.DayNone {
			fmt.Printf("\n📥 Inbox (%d)\n", len(tasks))
		} else {
			marker := ""
			if week.Offset == 0 && string(d) == today {
				marker = "  ← vandaag"
			}
			dl := loads[d]
			fmt.Printf("\n%s %s  %s / %s%s%s\n", d, dates[d].Display,
				model.FormatHours(dl.Hours), model.FormatHours(sum.Capacity), overMarker(dl), marker)
		}
		fmt.Println(strings.Repeat("─", 60))
		if len(tasks) == 0 {
			fmt.Println("  (leeg)")
			continue
		}
		for _, t := range tasks {
			printTask(t)
		}
	}
	fmt.Println()
	return nil
}

func printWeekHeader(week calendar.Week, sum planner.Summary) {
	first, last := week.Days[0], week.Days[len(week.Days)-1]
	fmt.Printf("\n📅 Week %d • %s - %s (%s) • %s gepland\n",
		week.Number, first.Display, last.Display, week.Start, model.FormatHours(sum.Total))
}

func overMarker(dl planner.DayLoad) string {
	if dl.Over {
		return fmt.Sprintf("  ⚠️  %s te veel", model.FormatHours(-dl.Remaining))
	}
	return ""
}

func filterPending(tasks []model.Task, pending bool) []model.Task {
	if !pending {
		return tasks
	}
	out := tasks[:0:0]
	for _, t := range tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func printTask(t model.Task) {
	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
	}

	priority := "  "
	switch t.Priority {
	case model.PriorityHigh:
		priority = "▲ "
	case model.PriorityLow:
		priority = "▽ "
	}

	fmt.Printf("  %s %-8s %s%-32s %-12s %6s\n",
		icon, shortID(t.ID), priority, truncate(t.Task, 32), truncate(t.Client, 12), model.FormatHours(t.Hours))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
