// Package runner runs one fetch, parse, select and reconcile cycle and
// reports what happened.
//
// A Runner is not safe for concurrent cycles against the same hosts file;
// callers serialise cycles (see the scheduler package).
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/hostsfile"
	"example.com/hostspin/internal/metrics"
	"example.com/hostspin/internal/model"
	"example.com/hostspin/internal/source"
)

// ElevationHint is attached to reports whose hosts write was refused.
const ElevationHint = "writing the hosts file failed; run hostspin with administrator/root privileges"

// Selector is the subset of *engine.Selector used by the Runner.
type Selector interface {
	Select(ctx context.Context, candidates model.CandidateSet) model.Selection
}

// Runner coordinates cycles. The zero value is
// invalid; Selector and HostsPath are MANDATORY.
type Runner struct {
	Selector  Selector
	HostsPath string
	Hosts     hostsfile.Options

	// Filter OPTIONALLY restricts the domains handled by a cycle.
	Filter domain.Filter

	// Source OPTIONALLY names the location fetched, for the report only.
	Source string

	// CycleTimeout OPTIONALLY bounds a whole cycle.
	CycleTimeout time.Duration

	Logger model.Logger
}

// RunCycle never returns nil and never panics on bad input; every
// outcome is described by the report.
func (r *Runner) RunCycle(ctx context.Context, fetch source.FetchFunc) *model.CycleReport {
	if r.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CycleTimeout)
		defer cancel()
	}

	rep := &model.CycleReport{
		ID:        uuid.NewString(),
		Source:    r.Source,
		HostsPath: r.HostsPath,
		StartedAt: time.Now(),
		DryRun:    r.Hosts.DryRun,
	}
	lg := &reportLogger{report: rep, logger: model.ValidLoggerOrDefault(r.Logger)}
	defer func() {
		rep.FinishedAt = time.Now()
		metrics.ObserveCycle(string(rep.Status), len(rep.Winners), rep.FinishedAt)
	}()

	lg.Infof("cycle %s: fetching candidates", rep.ID)
	raw, err := fetch(ctx)
	if err != nil {
		return r.fail(rep, lg, model.StatusFetchError, err, "cannot download the candidate list")
	}

	candidates, err := source.Parse(raw)
	if err != nil {
		return r.fail(rep, lg, model.StatusParseError, err, "malformed candidate list")
	}
	if !r.Filter.Empty() {
		before := len(candidates)
		candidates = r.Filter.Apply(candidates)
		lg.Debugf("domain filter kept %d of %d domains", len(candidates), before)
	}
	lg.Infof("probing %d domains", len(candidates))

	sel := r.Selector.Select(ctx, candidates)
	rep.Domains = sel
	for _, o := range sel {
		for _, p := range o.Probes {
			if p.Reachable {
				lg.Infof("[%s] IP %s latency: %dms", o.Domain, p.IP, p.LatencyMs())
			} else {
				lg.Infof("[%s] IP %s unreachable", o.Domain, p.IP)
			}
		}
		if !o.Reachable() {
			lg.Warnf("[%s] no reachable IP", o.Domain)
		}
	}

	if err := ctx.Err(); err != nil {
		return r.fail(rep, lg, model.StatusCanceled, err, "cycle interrupted")
	}

	winners := sel.Winners()
	if len(winners) == 0 {
		rep.Status = model.StatusNoUpdates
		lg.Warn("no domain has a reachable IP, hosts file left untouched")
		return rep
	}

	res, err := hostsfile.Apply(r.HostsPath, winners, r.Hosts)
	if err != nil {
		rep.NeedsElevation = hostsfile.IsPermission(err)
		if rep.NeedsElevation {
			rep.Hint = ElevationHint
		}
		return r.fail(rep, lg, model.StatusIOError, err, "cannot update the hosts file")
	}

	rep.Status = model.StatusSuccess
	rep.Winners = winners
	rep.Backup = res.Backup
	rep.Diff = hostsfile.Diff(r.HostsPath, res.Before, res.After)
	switch {
	case r.Hosts.DryRun:
		lg.Infof("dry run: %s not written", r.HostsPath)
	case !res.Changed:
		lg.Infof("%s already up to date", r.HostsPath)
	default:
		lg.Infof("updated %s", r.HostsPath)
	}
	if res.Backup != "" {
		lg.Infof("backup saved to %s", res.Backup)
	}
	for _, m := range rep.SortedWinners() {
		lg.Infof("%s => %s", m.Domain, m.IP)
	}
	return rep
}

func (r *Runner) fail(rep *model.CycleReport, lg *reportLogger, status model.CycleStatus, err error, what string) *model.CycleReport {
	rep.Status = status
	rep.Err = err.Error()
	lg.Warnf("%s: %s", what, err.Error())
	if rep.Hint != "" {
		lg.Warn(rep.Hint)
	}
	return rep
}

// reportLogger copies every line it logs into the report.
type reportLogger struct {
	mu     sync.Mutex
	report *model.CycleReport
	logger model.Logger
}

func (l *reportLogger) record(msg string) {
	l.mu.Lock()
	l.report.Log = append(l.report.Log, msg)
	l.mu.Unlock()
}

func (l *reportLogger) Debug(msg string) { l.logger.Debug(msg) }

func (l *reportLogger) Debugf(format string, v ...interface{}) { l.logger.Debugf(format, v...) }

func (l *reportLogger) Info(msg string) {
	l.record(msg)
	l.logger.Info(msg)
}

func (l *reportLogger) Infof(format string, v ...interface{}) { l.Info(fmt.Sprintf(format, v...)) }

func (l *reportLogger) Warn(msg string) {
	l.record(msg)
	l.logger.Warn(msg)
}

func (l *reportLogger) Warnf(format string, v ...interface{}) { l.Warn(fmt.Sprintf(format, v...)) }

var _ model.Logger = (*reportLogger)(nil)

// ReportError returns the error of a report that aborted, nil otherwise.
func ReportError(rep *model.CycleReport) error {
	if rep == nil || !rep.Status.Failed() {
		return nil
	}
	return errors.New(rep.Err)
}
