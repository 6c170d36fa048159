package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/model"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage clients",
	Long:  `Create and list the clients your tasks are planned for.`,
}

var clientAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a client",
	Long: `Add a client. Adding a name that already exists does nothing.

Examples:
  weekplanner client add "UAF"
  weekplanner client add "Gemeente Utrecht"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClientAdd,
}

var clientListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List clients with their hours this week",
	RunE:    runClientList,
}

func init() {
	clientCmd.AddCommand(clientAddCmd)
	clientCmd.AddCommand(clientListCmd)
}

func runClientAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))

	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	if knownClient(sess.store.Clients(), name) {
		fmt.Printf("Client \"%s\" already exists\n", name)
		return nil
	}
	if err := sess.store.AddClient(cmd.Context(), name); err != nil {
		return fmt.Errorf("failed to add client: %w", err)
	}

	fmt.Printf("✓ Added client: %s\n", name)
	return nil
}

func runClientList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), weekFlag, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	clients := sess.store.Clients()
	if len(clients) == 0 {
		fmt.Println("No clients yet. Add one with: weekplanner client add \"Name\"")
		return nil
	}

	hours := make(map[string]float64)
	for _, cl := range sess.store.Summary().Clients {
		hours[cl.Client] = cl.Hours
	}

	fmt.Printf("\n👥 Clients (week %d)\n", sess.week().Number)
	fmt.Println(strings.Repeat("─", 40))
	for _, c := range clients {
		fmt.Printf("  %-28s %8s\n", truncate(c, 28), model.FormatHours(hours[c]))
	}
	fmt.Println()
	return nil
}
