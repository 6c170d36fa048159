package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/config"
	"github.com/existflow/weekplanner/internal/db"
	"github.com/existflow/weekplanner/internal/legacy"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/planner"
	"github.com/existflow/weekplanner/internal/remote"
)

// appConfig is set by the root command before any subcommand runs
var appConfig *config.Config

func currentConfig() *config.Config {
	if appConfig == nil {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}
		appConfig = cfg
	}
	return appConfig
}

func newRemoteClient() (*remote.Client, error) {
	return remote.NewClient(currentConfig().ServerURL)
}

// session bundles everything a planner command needs
type session struct {
	cfg    *config.Config
	cal    *calendar.Resolver
	client *remote.Client
	local  *db.DB
	store  *planner.Store
	offset int
}

// openSession signs in from the saved session, opens the local legacy
// store and builds the planner for the week named by week. When load is
// set, the week is fetched and any legacy records are migrated.
func openSession(ctx context.Context, week string, load bool) (*session, error) {
	cfg := currentConfig()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cal := calendar.New(calendar.WithLocation(loc))

	offset, err := resolveOffset(cal, week)
	if err != nil {
		return nil, err
	}

	client, err := remote.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	if !client.IsLoggedIn() {
		return nil, fmt.Errorf("not logged in to %s, run 'weekplanner auth login' first", cfg.ServerURL)
	}

	local, err := db.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	store := planner.New(client,
		planner.WithLegacy(legacy.New(local)),
		planner.WithCapacity(cfg.DayCapacity))

	s := &session{
		cfg:    cfg,
		cal:    cal,
		client: client,
		local:  local,
		store:  store,
		offset: offset,
	}

	if load {
		if err := s.load(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// load fetches the viewed week, then drains any legacy records into it
func (s *session) load(ctx context.Context) error {
	if err := s.store.Load(ctx, s.cal.WeekStartKey(s.offset)); err != nil {
		return fmt.Errorf("failed to load week: %w", err)
	}

	res, err := s.store.Migrate(ctx)
	if err != nil {
		fmt.Printf("⚠️  Migration of local data failed: %v\n", err)
		return nil
	}
	if res.Tasks > 0 || res.Clients > 0 {
		fmt.Printf("📦 Moved %d tasks and %d clients from local storage to your account\n", res.Tasks, res.Clients)
	}
	return nil
}

// Close releases the local database
func (s *session) Close() {
	if err := s.local.Close(); err != nil {
		logger.Warn("Failed to close local database", logger.F("error", err.Error()))
	}
}

// week returns the viewed week's calendar facts
func (s *session) week() calendar.Week {
	return s.cal.Week(s.offset)
}

// resolveOffset accepts "", a signed week offset or a Monday date
func resolveOffset(cal *calendar.Resolver, week string) (int, error) {
	week = strings.TrimSpace(week)
	if week == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(week); err == nil {
		return n, nil
	}
	offset, err := cal.OffsetOf(week)
	if err != nil {
		return 0, fmt.Errorf("invalid --week %q: use an offset like -1 or a Monday like 2025-01-06", week)
	}
	return offset, nil
}
