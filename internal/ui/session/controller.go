// Package session runs the scheduler behind the desktop window and turns
// its logs and reports into messages for the event loop.
package session

import (
	"context"
	"errors"
	"sync"

	"example.com/hostspin/internal/config"
	"example.com/hostspin/internal/hostsfile"
	"example.com/hostspin/internal/model"
	"example.com/hostspin/internal/runner"
	"example.com/hostspin/internal/scheduler"
)

var (
	ErrRunning    = errors.New("scheduler already running")
	ErrNotRunning = errors.New("scheduler not running")
)

// Options are the settings editable from the window.
type Options struct {
	SourceURL string
	HostsPath string
	Hostname  bool
	Backup    bool
	DryRun    bool
}

type Controller struct {
	base   config.Config
	ch     chan any
	logger *chanLogger
	// newCycle builds the cycle function of a validated configuration.
	newCycle func(cfg *config.Config, dryRun bool) (func(ctx context.Context) *model.CycleReport, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	sched  *scheduler.Scheduler
}

// NewController copies base. notify is called after every message, it
// usually invalidates the window.
func NewController(base *config.Config, notify func()) *Controller {
	ch := make(chan any, 256)
	c := &Controller{
		base:   *base,
		ch:     ch,
		logger: &chanLogger{ch: ch, notify: notify},
	}
	c.newCycle = c.runnerCycle
	return c
}

func (c *Controller) runnerCycle(cfg *config.Config, dryRun bool) (func(ctx context.Context) *model.CycleReport, error) {
	r, fetch, err := runner.FromConfig(cfg, c.logger)
	if err != nil {
		return nil, err
	}
	r.Hosts.DryRun = dryRun
	return r.Bind(fetch), nil
}

func (c *Controller) Messages() <-chan any { return c.ch }

// Defaults returns the Options matching the base configuration.
func (c *Controller) Defaults() Options {
	return Options{
		SourceURL: c.base.SourceURL,
		HostsPath: c.base.HostsPath,
		Hostname:  c.base.Match == string(hostsfile.MatchHostname),
		Backup:    c.base.Backup,
	}
}

// Start runs a cycle now and then one per configured interval until Stop.
// After a Stop the new scheduler waits for the previous one to exit, so
// two cycles never write the hosts file at once.
func (c *Controller) Start(opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return ErrRunning
	}

	cfg := c.base
	cfg.SourceURL = opts.SourceURL
	cfg.HostsPath = opts.HostsPath
	cfg.Backup = opts.Backup
	cfg.Match = string(hostsfile.MatchSubstring)
	if opts.Hostname {
		cfg.Match = string(hostsfile.MatchHostname)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cycle, err := c.newCycle(&cfg, opts.DryRun)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sched := scheduler.New(func(ctx context.Context) *model.CycleReport {
		c.deliver(ctx, MsgCycleStart{})
		return cycle(ctx)
	}, cfg.Interval.D(), c.logger)
	sched.OnReport = func(rep *model.CycleReport) {
		c.deliver(ctx, MsgReport{Report: rep})
	}

	prev, done := c.done, make(chan struct{})
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		sched.Start(ctx)
	}()
	c.cancel, c.done, c.sched = cancel, done, sched
	return nil
}

// deliver does not drop messages unless ctx is done.
func (c *Controller) deliver(ctx context.Context, m any) {
	defer c.logger.notifyLoop()
	select {
	case c.ch <- m:
		return
	default:
	}
	select {
	case c.ch <- m:
	case <-ctx.Done():
	}
}

// RunNow asks the running scheduler for an extra cycle.
func (c *Controller) RunNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sched == nil {
		return ErrNotRunning
	}
	if !c.sched.Trigger() {
		c.logger.Info("a cycle is already pending")
	}
	return nil
}

// Stop cancels the scheduler and any cycle in flight without waiting.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel, c.sched = nil, nil
}

// Close stops the scheduler and waits for its goroutine, which outlives
// every earlier one.
func (c *Controller) Close() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	c.Stop()
	if done != nil {
		<-done
	}
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched != nil
}

// Restore copies backup over hostsPath.
func (c *Controller) Restore(backup, hostsPath string) error {
	if backup == "" {
		return errors.New("no backup taken in this session")
	}
	if err := hostsfile.RestoreBackup(backup, hostsPath); err != nil {
		if hostsfile.IsPermission(err) {
			c.logger.Warn(runner.ElevationHint)
		}
		return err
	}
	c.logger.Infof("restored %s from %s", hostsPath, backup)
	return nil
}
