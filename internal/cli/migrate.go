package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/db"
	"github.com/existflow/weekplanner/internal/legacy"
	"github.com/existflow/weekplanner/internal/planner"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move locally stored planner data into your account",
	Long: `Move tasks and clients kept by the local-only planner into your account.

This runs automatically whenever a week is loaded. Use --from to feed
in an export of the browser's local storage first.

Examples:
  weekplanner migrate
  weekplanner migrate --from localstorage.json
  weekplanner migrate --dry-run`,
	RunE: runMigrate,
}

var (
	migrateFrom   string
	migrateDryRun bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "JSON export of the browser's local storage")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Show what would be migrated")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if migrateFrom != "" {
		if err := importExport(cmd, migrateFrom); err != nil {
			return err
		}
	}

	sess, err := openSession(ctx, weekFlag, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	local := legacy.New(sess.local)
	done, err := local.Migrated(ctx)
	if err != nil {
		return err
	}
	if done {
		fmt.Println("✓ Local data was already migrated")
		return nil
	}

	if migrateDryRun {
		snap, err := local.Snapshot(ctx)
		if err != nil {
			return err
		}
		batch := planner.BuildBatch(snap, sess.week().Start)
		fmt.Printf("Would migrate %d tasks and %d clients from %d weeks\n",
			len(batch.Tasks), len(batch.Clients), len(snap.Weeks))
		return nil
	}

	if err := sess.store.Load(ctx, sess.week().Start); err != nil {
		return fmt.Errorf("failed to load week: %w", err)
	}

	fmt.Println("🔄 Migrating local data...")
	res, err := sess.store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migration failed, nothing was changed: %w", err)
	}
	if res.Tasks == 0 && res.Clients == 0 {
		fmt.Println("✓ Nothing to migrate")
		return nil
	}
	fmt.Printf("✅ Migrated %d tasks and %d clients\n", res.Tasks, res.Clients)
	return nil
}

func importExport(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	local, err := db.OpenDefault()
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	defer local.Close()

	n, err := legacy.New(local).ImportExport(cmd.Context(), f)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Read %d records from %s\n", n, path)
	return nil
}
