package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/splitpierre/yalapm/internal/config"
	"github.com/splitpierre/yalapm/internal/hook"
	"github.com/splitpierre/yalapm/internal/meter"
	"github.com/splitpierre/yalapm/internal/profile"
	"github.com/splitpierre/yalapm/internal/report"
	"github.com/splitpierre/yalapm/internal/tui"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

var rootCmd = &cobra.Command{
	Use:   "yalapm",
	Short: "Live keyboard/mouse actions-per-minute monitor with session reports",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup check for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() {
			if term.IsTerminal(os.Stdin.Fd()) {
				fmt.Println()
				fmt.Println("  Welcome to yalapm! Looks like this is your first time.")
				if err := runSetup(true); err != nil {
					return err
				}
			}
			// Non-interactive (tests, pipes): continue with defaults, no profile required.
		}

		// Load profile (optional — may not exist in non-interactive environments).
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		local, err := config.LoadLocal()
		if err != nil {
			return fmt.Errorf("loading local config: %w", err)
		}
		cfg = config.Merge(global, local)

		// Profile values fill in config gaps.
		if activeProfile != nil {
			if cfg.ReportsDir == "" && activeProfile.ReportsDir != "" {
				cfg.ReportsDir = activeProfile.ReportsDir
			}
			if cfg.DefaultTag == "" || cfg.DefaultTag == "untagged" {
				if activeProfile.DefaultTag != "" {
					cfg.DefaultTag = activeProfile.DefaultTag
				}
			}
			if activeProfile.VeAPMFactor > 0 && activeProfile.VeAPMFactor <= 1 {
				cfg.VeAPMFactor = activeProfile.VeAPMFactor
			}
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor()
	},
}

// runMonitor wires the engine, the global input hook, and the report
// store together, then hands the terminal to the dashboard.
func runMonitor() error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("yalapm needs an interactive terminal (use 'yalapm reports' for scripted access)")
	}

	if err := hook.Check(); err != nil {
		if errors.Is(err, hook.ErrPermission) {
			fmt.Fprintln(os.Stderr, "⚠  cannot attach the global input hook")
			fmt.Fprintln(os.Stderr, "   "+err.Error())
			return err
		}
		return err
	}

	store, err := newReportStore()
	if err != nil {
		return err
	}

	engine := meter.New(meter.WithTrendWindow(cfg.TrendWindow))
	listener := hook.NewListener(engine.Record)
	if err := listener.Start(); err != nil {
		return fmt.Errorf("starting input hook: %w", err)
	}
	defer listener.Stop()

	opts := tui.Options{
		Engine:        engine,
		Store:         store,
		DefaultTag:    cfg.DefaultTag,
		DefaultFactor: cfg.VeAPMFactor,
	}
	if activeProfile != nil {
		opts.Author = activeProfile.Name
		opts.OpenOnStop = activeProfile.OpenOnStop
	}
	return tui.Run(opts)
}

// newReportStore opens the configured reports directory.
func newReportStore() (*report.Store, error) {
	if cfg.ReportsDir != "" {
		return report.NewStoreAt(cfg.ReportsDir)
	}
	return report.NewStore()
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
