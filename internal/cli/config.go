package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/existflow/weekplanner/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings in ~/.weekplanner/config.yaml.

Examples:
  weekplanner config
  weekplanner config set server_url https://planner.example.com
  weekplanner config set day_capacity 6
  weekplanner config set timezone Europe/Amsterdam`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(currentConfig())
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	if err := setConfigValue(cfg, args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("✓ %s = %s\n", args[0], args[1])
	return nil
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "server_url":
		cfg.ServerURL = strings.TrimRight(value, "/")
	case "day_capacity":
		f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("day_capacity must be a positive number of hours")
		}
		cfg.DayCapacity = f
	case "confirm_delete":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("confirm_delete must be true or false")
		}
		cfg.ConfirmDelete = b
	case "timezone":
		prev := cfg.Timezone
		cfg.Timezone = value
		if _, err := cfg.Location(); err != nil {
			cfg.Timezone = prev
			return err
		}
	case "log_level":
		cfg.LogLevel = strings.ToUpper(value)
	case "log_file":
		cfg.LogFile = value
	case "log_console":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log_console must be true or false")
		}
		cfg.LogConsole = b
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}
