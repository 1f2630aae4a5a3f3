package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"example.com/hostspin/internal/model"
	"example.com/hostspin/internal/runner"
	"example.com/hostspin/internal/scheduler"
	"example.com/hostspin/internal/web"
)

func serveCommand(g *globalFlags) *cobra.Command {
	f := &cycleFlags{}
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run cycles periodically and serve the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			r, fetch, err := runner.FromConfig(cfg, log.Log)
			if err != nil {
				return err
			}
			r.Hosts.DryRun = f.dryRun

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(r.Bind(fetch), cfg.Interval.D(), log.Log)
			sched.OnReport = func(rep *model.CycleReport) {
				if rep != nil && rep.NeedsElevation {
					log.Warn(rep.Hint)
				}
			}
			go sched.Start(ctx)

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           web.NewRouter(sched, cfg.AdminToken, log.Log),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.Infof("admin API listening on %s", cfg.Listen)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				log.Info("shutting down")
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", "", "Admin API listen address")
	return cmd
}
