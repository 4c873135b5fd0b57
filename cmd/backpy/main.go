package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgross03/backpy/internal/app"
	"github.com/tgross03/backpy/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and wires the application. The caller must defer
// a.Close().
func newApp() (*app.App, error) {
	configPath, err := app.DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config (run `backpy config init` first): %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "backpy",
	Short: "Personal backup manager",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := app.DefaultConfigPath()
		if err != nil {
			return err
		}
		baseDir, err := app.DefaultBaseDir()
		if err != nil {
			return err
		}

		cfg := config.NewConfig(baseDir)
		if err := config.Init(configPath, cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", configPath)
		fmt.Printf("Base Dir: %s\n", baseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := app.DefaultConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(configPath)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", configPath)
		fmt.Printf("Base Dir:            %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:             %s\n", cfg.LogDir)
		fmt.Printf("Default Format:      %s (level %d)\n",
			cfg.Defaults.CompressionAlgorithm, cfg.Defaults.CompressionLevel)
		fmt.Printf("Remote Root Dir:     %s\n", cfg.Defaults.RemoteRootDir)
		fmt.Printf("Remote Hash Command: %s\n", cfg.Remote.HashCommand)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit KEY VALUE",
	Short: "Set a configuration value (dotted key, e.g. defaults.compression_level)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := app.DefaultConfigPath()
		if err != nil {
			return err
		}

		updates := map[string]any{}
		node := updates
		parts := strings.Split(args[0], ".")
		for _, part := range parts[:len(parts)-1] {
			child := map[string]any{}
			node[part] = child
			node = child
		}
		node[parts[len(parts)-1]] = parseScalar(args[1])

		if err := config.RewriteTOML(configPath, updates); err != nil {
			return err
		}

		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

// parseScalar keeps numeric and boolean values typed in the rewritten TOML
// instead of stringifying everything.
func parseScalar(value string) any {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Journal.Recent(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if !op.FinishedAt.IsZero() {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-18s  %s  %-8s  %s  %s\n",
				op.ID,
				op.Name,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Detail,
			)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
