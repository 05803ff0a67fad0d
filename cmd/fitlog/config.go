// ABOUTME: CLI commands for viewing and editing the fitlog config file.
// ABOUTME: show prints the effective settings; set writes one key to the file.
package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit configuration",
	Long: `View or edit the fitlog configuration.

The config file lives at $XDG_CONFIG_HOME/fitlog/config.json
(~/.config/fitlog/config.json). Values from a .env file in the working
directory and FITLOG_* environment variables override it.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		effective := map[string]any{
			"config_file":    config.GetConfigPath(),
			"backend":        cfg.GetBackend(),
			"data_dir":       cfg.GetDataDir(),
			"addr":           cfg.GetAddr(),
			"log_level":      cfg.GetLogLevel(),
			"mongo_database": cfg.GetMongoDatabase(),
		}
		if cfg.GetBackend() == "mongo" {
			effective["mongo_uri"] = cfg.GetMongoURI()
		}
		if cfg.CharmHost != "" {
			effective["charm_host"] = cfg.CharmHost
		}
		if len(cfg.AllowedOrigins) > 0 {
			effective["allowed_origins"] = cfg.AllowedOrigins
		}

		data, err := json.MarshalIndent(effective, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config file value",
	Long: `Set one value in the config file.

KEYS:

  backend, data_dir, mongo_uri, mongo_database, charm_host, addr,
  log_level, allowed_origins (comma separated)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := setConfigValue(fileCfg, args[0], args[1]); err != nil {
			return err
		}
		if err := fileCfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Set %s\n", args[0])
		return nil
	},
}

func setConfigValue(c *config.Config, key, value string) error {
	switch key {
	case "backend":
		if !slices.Contains(config.Backends, value) {
			return fmt.Errorf("unknown backend: %q (want one of %s)", value, strings.Join(config.Backends, ", "))
		}
		c.Backend = value
	case "data_dir":
		c.DataDir = value
	case "mongo_uri":
		c.MongoURI = value
	case "mongo_database":
		c.MongoDatabase = value
	case "charm_host":
		c.CharmHost = value
	case "addr":
		c.Addr = value
	case "log_level":
		c.LogLevel = value
	case "allowed_origins":
		c.AllowedOrigins = strings.Split(value, ",")
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
