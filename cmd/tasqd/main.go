// Command tasqd runs a single task-dispatch Master (it does not compose
// several under a supervisor.Group) fed by configuration layered from an optional
// YAML file, a .env file / the process environment, and CLI flags, in
// that order of increasing precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasqio/tasq/config"
	"github.com/tasqio/tasq/logger"
	"github.com/tasqio/tasq/master"
	"github.com/tasqio/tasq/router"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
		host       string
		ingress    int
		egress     int
		workers    int
		policy     string
		debug      bool
		timeout    time.Duration
		completion string
	)

	root := &cobra.Command{
		Use:   "tasqd",
		Short: "tasqd dispatches jobs from an ingress socket to a worker pool and streams results back",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "bind the ingress/egress sockets and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()

			if err := config.LoadFile(configPath, &cfg); err != nil {
				return err
			}
			if err := config.LoadEnv(envPath, &cfg); err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Host = host
			}
			if flags.Changed("ingress-port") {
				cfg.IngressPort = ingress
			}
			if flags.Changed("egress-port") {
				cfg.EgressPort = egress
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("policy") {
				cfg.Policy = router.Policy(policy)
			}
			if flags.Changed("debug") {
				cfg.Debug = debug
			}
			if flags.Changed("result-timeout") {
				cfg.ResultTimeout = timeout
			}
			if flags.Changed("completion-mode") {
				switch completion {
				case "deferred":
					cfg.CompletionMode = router.DeferredMode
				case "immediate":
					cfg.CompletionMode = router.ImmediateMode
				default:
					return fmt.Errorf("tasqd: unknown --completion-mode %q", completion)
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.New("tasqd", cfg.Debug, os.Stderr)
			m := master.New(cfg, log)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Infof("serving on %s (ingress=%d egress=%d workers=%d policy=%s)",
				cfg.Host, cfg.IngressPort, cfg.EgressPort, cfg.Workers, cfg.Policy)

			if err := m.ServeForever(ctx); err != nil {
				return fmt.Errorf("tasqd: %w", err)
			}
			return nil
		},
	}

	flags := serve.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&envPath, "env-file", "", "path to a .env file")
	flags.StringVar(&host, "host", "", "bind host")
	flags.IntVar(&ingress, "ingress-port", 0, "ingress (pull) socket port")
	flags.IntVar(&egress, "egress-port", 0, "egress (push) socket port")
	flags.IntVar(&workers, "workers", 0, "worker pool size")
	flags.StringVar(&policy, "policy", "", "routing policy: round-robin, random, smallest-mailbox")
	flags.BoolVar(&debug, "debug", false, "enable debug logging and periodic router stats")
	flags.DurationVar(&timeout, "result-timeout", 0, "per-response result wait timeout")
	flags.StringVar(&completion, "completion-mode", "", "egress completion mode: deferred, immediate")

	root.AddCommand(serve)
	return root
}
