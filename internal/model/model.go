package model

import (
	"sort"
	"time"
)

// CandidateSet maps a domain to its candidate IPs in source order.
type CandidateSet map[string][]string

// Domains returns the domains of the set in sorted order.
func (s CandidateSet) Domains() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

type ProbeResult struct {
	IP        string
	Reachable bool
	Latency   time.Duration
	Err       string
}

// LatencyMs is the latency truncated to whole milliseconds. It is only
// meaningful when the probe was reachable.
func (r ProbeResult) LatencyMs() int64 {
	if !r.Reachable || r.Latency < 0 {
		return 0
	}
	return r.Latency.Milliseconds()
}

// DomainOutcome is the selection result for one domain. An empty Winner
// means that no candidate was reachable.
type DomainOutcome struct {
	Domain string        `json:"domain"`
	Winner string        `json:"winner,omitempty"`
	Probes []ProbeResult `json:"probes"`
}

func (o DomainOutcome) Reachable() bool { return o.Winner != "" }

// Selection holds one outcome per domain, sorted by domain.
type Selection []DomainOutcome

// Winners returns the domains that resolved to an IP.
func (s Selection) Winners() map[string]string {
	out := make(map[string]string)
	for _, o := range s {
		if o.Reachable() {
			out[o.Domain] = o.Winner
		}
	}
	return out
}
