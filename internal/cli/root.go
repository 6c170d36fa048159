package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/existflow/weekplanner/internal/config"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/tui"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	weekFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "weekplanner",
	Short: "Weekplanner - plan client hours across the work week",
	Long: `Weekplanner spreads tasks for your clients over Monday to Friday,
keeps unplanned work in an inbox and shows how full every day is.

Run 'weekplanner' without arguments to open the weekly board.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err.Error()))
			cfg = config.DefaultConfig()
		}

		if applyLogFlags(cmd, cfg) {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err.Error()))
			}
		}

		if err := logger.Init(loggerConfig(cfg)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		appConfig = cfg
		logger.Info("Weekplanner started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context(), weekFlag, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		logger.Info("Launching TUI", logger.F("offset", sess.offset))
		m := tui.NewModel(sess.store, sess.cal, sess.offset)
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err.Error()))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Weekplanner exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// applyLogFlags copies explicitly set log flags into cfg. Set flags are
// persisted, so they stick for later runs.
func applyLogFlags(cmd *cobra.Command, cfg *config.Config) bool {
	flags := cmd.Flags()
	changed := false
	if flags.Changed("log-level") {
		cfg.LogLevel, changed = logLevel, true
	}
	if flags.Changed("log-file") {
		cfg.LogFile, changed = logFile, true
	}
	if flags.Changed("log-console") {
		cfg.LogConsole, changed = logConsole, true
	}
	return changed
}

func loggerConfig(cfg *config.Config) logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(cfg.LogLevel)
	lc.FilePath = cfg.LogFile
	lc.Console = cfg.LogConsole
	return lc
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVarP(&weekFlag, "week", "w", "", "Week to show: offset from this week (-1, +2) or a Monday date")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
}
