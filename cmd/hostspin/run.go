package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"example.com/hostspin/internal/runner"
)

func runCommand(g *globalFlags) *cobra.Command {
	f := &cycleFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			r, fetch, err := runner.FromConfig(cfg, log.Log)
			if err != nil {
				return err
			}
			r.Hosts.DryRun = f.dryRun

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep := r.RunCycle(ctx, fetch)
			printReport(cmd.OutOrStdout(), rep)
			return runner.ReportError(rep)
		},
	}
	f.register(cmd)
	return cmd
}
