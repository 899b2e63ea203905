package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/config"
	"github.com/boilerwatch/boilerwatch/internal/cooldown"
	"github.com/boilerwatch/boilerwatch/internal/dispatch"
	"github.com/boilerwatch/boilerwatch/internal/server"
	"github.com/boilerwatch/boilerwatch/internal/trigger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trigger proxy HTTP server",
	Long: `Serves the public trigger endpoint. Inbound requests name an action;
the server enforces the action's cooldown window against the shared
store and forwards eligible requests to the repository dispatch API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		store := newStore(cfg)
		defer store.Close()
		if cfg.Redis.Addr == "" {
			logger.Warn("no redis configured, cooldowns are per-process only")
		}

		var dispatcher dispatch.Dispatcher
		if cfg.GitHub.Token != "" {
			if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
				return fmt.Errorf("github.owner and github.repo are required")
			}
			dispatcher = dispatch.NewGitHub(cfg.GitHub.Owner, cfg.GitHub.Repo,
				cfg.GitHub.Token, cfg.GitHub.Timeout)
		} else {
			// The server still starts; each request reports the
			// missing credential.
			logger.Warn("GITHUB_TOKEN not configured, triggers will fail")
		}

		cooldowns := make(map[string]time.Duration, len(cfg.Trigger.Cooldowns))
		for action, secs := range cfg.Trigger.Cooldowns {
			cooldowns[action] = time.Duration(secs) * time.Second
		}
		svc := trigger.New(store, dispatcher, cooldowns, cfg.Trigger.DefaultAction,
			trigger.WithStrict(cfg.Trigger.Strict),
			trigger.WithLogger(logger))

		srv := &http.Server{
			Addr:    cfg.Trigger.Listen,
			Handler: server.NewHandler(svc, logger, server.NewMetrics()),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("trigger server listening",
				"addr", srv.Addr,
				"default_action", cfg.Trigger.DefaultAction,
				"strict", cfg.Trigger.Strict)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("close server: %w", err)
				}
			}
			logger.Info("server stopped")
		}
		return nil
	},
}

// newStore picks the cooldown store backend. Records expire with their
// action's window, so the keyspace stays bounded.
func newStore(cfg *config.Config) cooldown.Store {
	if cfg.Redis.Addr == "" {
		return cooldown.NewMemory()
	}
	return cooldown.NewRedis(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB,
		cooldown.WithTTL(func(action string) time.Duration {
			if window, ok := cfg.Trigger.CooldownFor(action); ok {
				return window
			}
			return 0
		}))
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
