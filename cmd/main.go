package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackskhakis/gameyfin/internal/config"
	"github.com/jackskhakis/gameyfin/pkg/logger"
)

// cli carries what setup prepares for the commands that talk to the backend.
type cli struct {
	cfg *config.Config
	log logger.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rt := &cli{}

	cmd := &cobra.Command{
		Use:           "gameyfin",
		Short:         "Gameyfin web front-end and library API tools",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(
		newServeCmd(rt),
		newLibraryCmd(rt),
		newRoutesCmd(),
	)
	return cmd
}

// setup loads configuration (defaults -> optional file -> env) and sets up
// logging on stderr so command output stays clean.
func (rt *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithJSON(cfg.LogFormat == "json"),
	); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	rt.cfg = cfg
	rt.log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		rt.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
