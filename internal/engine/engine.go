package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"example.com/hostspin/internal/model"
)

type Config struct {
	Port        int
	Timeout     time.Duration
	Concurrency int
}

func DefaultConfig() Config {
	return Config{Port: DefaultPort, Timeout: DefaultTimeout, Concurrency: 16}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("invalid port")
	}
	if c.Timeout <= 0 {
		return errors.New("invalid timeout")
	}
	if c.Concurrency <= 0 {
		return errors.New("invalid concurrency")
	}
	return nil
}

// Selector probes every candidate of a CandidateSet and picks, for each
// domain, the reachable candidate with the lowest latency.
type Selector struct {
	Prober      Prober
	Concurrency int
	Logger      model.Logger
}

// NewSelector returns a Selector using a TCPProber built from cfg.
func NewSelector(cfg Config, logger model.Logger) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Selector{
		Prober:      NewTCPProber(cfg.Port, cfg.Timeout),
		Concurrency: cfg.Concurrency,
		Logger:      model.ValidLoggerOrDefault(logger),
	}, nil
}

type job struct {
	domain, cand int
	ip           string
}

// Select never fails. Domains whose candidates are all unreachable come
// back with an empty Winner. When ctx is done, jobs not yet started are
// recorded as unreachable with the context error.
func (s *Selector) Select(ctx context.Context, candidates model.CandidateSet) model.Selection {
	logger := model.ValidLoggerOrDefault(s.Logger)
	domains := candidates.Domains()

	results := make([][]model.ProbeResult, len(domains))
	var jobs []job
	for i, d := range domains {
		ips := candidates[d]
		results[i] = make([]model.ProbeResult, len(ips))
		for j, ip := range ips {
			jobs = append(jobs, job{domain: i, cand: j, ip: ip})
		}
	}

	workers := s.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	logger.Debugf("engine: probing %d candidates of %d domains with %d workers", len(jobs), len(domains), workers)

	workCh := make(chan job)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for jb := range workCh {
			res := s.Prober.Probe(ctx, jb.ip)
			res.IP = jb.ip
			results[jb.domain][jb.cand] = res
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

	next := 0
feed:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case workCh <- jobs[next]:
		}
	}
	close(workCh)
	wg.Wait()

	for _, jb := range jobs[next:] {
		results[jb.domain][jb.cand] = model.ProbeResult{IP: jb.ip, Err: ctx.Err().Error()}
	}

	out := make(model.Selection, 0, len(domains))
	for i, d := range domains {
		out = append(out, model.DomainOutcome{
			Domain: d,
			Winner: pickWinner(results[i]),
			Probes: results[i],
		})
	}
	return out
}

// pickWinner orders the reachable results by latency in milliseconds.
// Equal latencies keep the candidate order, so the earlier one wins.
func pickWinner(results []model.ProbeResult) string {
	type ranked struct {
		idx     int
		latency int64
	}
	var reachable []ranked
	for i, r := range results {
		if r.Reachable {
			reachable = append(reachable, ranked{idx: i, latency: r.LatencyMs()})
		}
	}
	if len(reachable) == 0 {
		return ""
	}
	sort.SliceStable(reachable, func(i, j int) bool { return reachable[i].latency < reachable[j].latency })
	return results[reachable[0].idx].IP
}
