package runner

import (
	"context"

	"example.com/hostspin/internal/config"
	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/engine"
	"example.com/hostspin/internal/model"
	"example.com/hostspin/internal/source"
)

// FromConfig wires a Runner and the fetch function of its source from a
// validated configuration.
func FromConfig(cfg *config.Config, logger model.Logger) (*Runner, source.FetchFunc, error) {
	logger = model.ValidLoggerOrDefault(logger)
	sel, err := engine.NewSelector(cfg.Engine(), logger)
	if err != nil {
		return nil, nil, err
	}
	filter, err := domain.NewFilter(cfg.Domains)
	if err != nil {
		return nil, nil, err
	}
	r := &Runner{
		Selector:     sel,
		HostsPath:    cfg.HostsPath,
		Hosts:        cfg.HostsOptions(),
		Filter:       filter,
		Source:       cfg.SourceURL,
		CycleTimeout: cfg.CycleTimeout.D(),
		Logger:       logger,
	}
	fetch := source.NewFetcher(cfg.FetchTimeout.D(), cfg.UserAgent, logger).Func(cfg.SourceURL)
	return r, fetch, nil
}

// Bind returns a function running one cycle against fetch, suitable for
// the scheduler.
func (r *Runner) Bind(fetch source.FetchFunc) func(ctx context.Context) *model.CycleReport {
	return func(ctx context.Context) *model.CycleReport {
		return r.RunCycle(ctx, fetch)
	}
}
