package session

import (
	"fmt"
	"strings"
	"time"

	"example.com/hostspin/internal/model"
)

const MaxLogLines = 500

// Row is one line of the results table.
type Row struct {
	Domain  string
	IP      string
	Latency int64
	Tried   int
	Message string
}

type MsgLog struct{ Line string }
type MsgCycleStart struct{}
type MsgReport struct{ Report *model.CycleReport }

// State is everything the window shows. It is only touched from the
// event loop goroutine.
type State struct {
	Rows     []Row
	LogLines []string

	Diff       string
	Banner     string
	Status     model.CycleStatus
	LastBackup string
	LastRun    time.Time

	Busy   bool
	Cycles int
}

func (s *State) AppendLog(line string, now time.Time) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s.LogLines = append(s.LogLines, fmt.Sprintf("[%s] %s", now.Format("15:04:05"), line))
	if len(s.LogLines) > MaxLogLines {
		s.LogLines = s.LogLines[len(s.LogLines)-MaxLogLines:]
	}
}

func (s *State) LogText() string { return strings.Join(s.LogLines, "\n") }

func (s *State) ApplyReport(rep *model.CycleReport) {
	s.Busy = false
	if rep == nil {
		return
	}
	s.Cycles++
	s.Status = rep.Status
	s.LastRun = rep.FinishedAt

	s.Banner = ""
	if rep.NeedsElevation {
		s.Banner = rep.Hint
	}
	if rep.Backup != "" {
		s.LastBackup = rep.Backup
	}
	if rep.Status.Failed() {
		// keep the previous table, the cycle changed nothing
		return
	}

	s.Diff = rep.Diff
	s.Rows = s.Rows[:0]
	for _, o := range rep.Domains {
		r := Row{Domain: o.Domain, IP: o.Winner, Tried: len(o.Probes)}
		if !o.Reachable() {
			r.Message = "no reachable IP"
		}
		for _, p := range o.Probes {
			if p.IP == o.Winner && p.Reachable {
				r.Latency = p.LatencyMs()
				break
			}
		}
		s.Rows = append(s.Rows, r)
	}
}

// Handle applies one message received from a Controller.
func (s *State) Handle(m any, now time.Time) {
	switch m := m.(type) {
	case MsgLog:
		s.AppendLog(m.Line, now)
	case MsgCycleStart:
		s.Busy = true
	case MsgReport:
		s.ApplyReport(m.Report)
	}
}

func (s *State) Summary() string {
	if s.Cycles == 0 {
		if s.Busy {
			return "first cycle running"
		}
		return "no cycle yet"
	}
	sum := fmt.Sprintf("last cycle %s at %s", s.Status, s.LastRun.Format("15:04:05"))
	if s.Busy {
		sum += ", cycle running"
	}
	return sum
}
