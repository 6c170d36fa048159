package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/model"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the workload of a week",
	Long: `Show how full each day of a week is and how the hours split per client.

Examples:
  weekplanner week
  weekplanner week --week -1`,
	RunE: runWeek,
}

const barWidth = 20

func runWeek(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	week := sess.week()
	sum := sess.store.Summary()
	printWeekHeader(week, sum)
	fmt.Println(strings.Repeat("─", 60))

	today := sess.cal.TodayLabel()
	for i, dl := range sum.Days {
		marker := ""
		if week.Offset == 0 && string(dl.Day) == today {
			marker = " ←"
		}
		fmt.Printf("  %-10s %-7s %s %6s / %s%s%s\n",
			dl.Day, week.Days[i].Display, loadBar(dl.Hours, sum.Capacity),
			model.FormatHours(dl.Hours), model.FormatHours(sum.Capacity), overMarker(dl), marker)
	}

	if len(sum.Clients) > 0 {
		fmt.Println("\n  Per klant")
		for _, cl := range sum.Clients {
			fmt.Printf("  %-28s %8s\n", truncate(cl.Client, 28), model.FormatHours(cl.Hours))
		}
	}

	if n := len(sess.store.Unplaced()); n > 0 {
		fmt.Printf("\n  📥 %d tasks wait in the inbox\n", n)
	}
	fmt.Println()
	return nil
}

// loadBar draws hours against capacity, capped at the full width
func loadBar(hours, capacity float64) string {
	filled := 0
	if capacity > 0 {
		filled = int(math.Round(hours / capacity * barWidth))
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
