package model

import (
	"sort"
	"time"
)

// CycleStatus is the whole-cycle outcome of a run.
type CycleStatus string

const (
	StatusSuccess    CycleStatus = "success"
	StatusNoUpdates  CycleStatus = "no_updates"
	StatusFetchError CycleStatus = "fetch_error"
	StatusParseError CycleStatus = "parse_error"
	StatusIOError    CycleStatus = "io_error"
	StatusCanceled   CycleStatus = "canceled"
)

// Failed reports whether the status aborted the cycle.
func (s CycleStatus) Failed() bool {
	switch s {
	case StatusFetchError, StatusParseError, StatusIOError, StatusCanceled:
		return true
	}
	return false
}

// CycleReport is the value returned by one fetch/parse/select/reconcile run.
type CycleReport struct {
	ID         string            `json:"id"`
	Source     string            `json:"source,omitempty"`
	HostsPath  string            `json:"hosts_path"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Status     CycleStatus       `json:"status"`
	Err        string            `json:"error,omitempty"`
	Hint       string            `json:"hint,omitempty"`
	Log        []string          `json:"log"`
	Domains    []DomainOutcome   `json:"domains,omitempty"`
	Winners    map[string]string `json:"winners,omitempty"`
	Backup     string            `json:"backup,omitempty"`
	Diff       string            `json:"diff,omitempty"`
	DryRun     bool              `json:"dry_run,omitempty"`

	// NeedsElevation is set when the hosts file could not be written
	// because of missing privileges.
	NeedsElevation bool `json:"needs_elevation,omitempty"`
}

func (r *CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Mapping is one written "<ip> <domain>" pair.
type Mapping struct {
	Domain string
	IP     string
}

// SortedWinners returns the winners ordered by domain.
func (r *CycleReport) SortedWinners() []Mapping {
	out := make([]Mapping, 0, len(r.Winners))
	for d, ip := range r.Winners {
		out = append(out, Mapping{Domain: d, IP: ip})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}
