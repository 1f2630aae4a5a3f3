package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/engine"
	"example.com/hostspin/internal/hostsfile"
	"example.com/hostspin/internal/model"
	"example.com/hostspin/internal/source"
)

type tableProber map[string]time.Duration

func (p tableProber) Probe(ctx context.Context, ip string) model.ProbeResult {
	d, ok := p[ip]
	if !ok {
		return model.ProbeResult{IP: ip, Err: "i/o timeout"}
	}
	return model.ProbeResult{IP: ip, Reachable: true, Latency: d}
}

// countingSelector records whether selection happened.
type countingSelector struct {
	inner *engine.Selector
	calls int32
}

func (s *countingSelector) Select(ctx context.Context, c model.CandidateSet) model.Selection {
	atomic.AddInt32(&s.calls, 1)
	return s.inner.Select(ctx, c)
}

func newRunner(t *testing.T, hostsPath string, p tableProber) (*Runner, *countingSelector) {
	t.Helper()
	sel := &countingSelector{inner: &engine.Selector{Prober: p, Concurrency: 4}}
	return &Runner{Selector: sel, HostsPath: hostsPath}, sel
}

func staticFetch(body string) source.FetchFunc {
	return func(ctx context.Context) ([]byte, error) { return []byte(body), nil }
}

func writeHosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRunCycleSuccess(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n")
	r, _ := newRunner(t, path, tableProber{"1.2.3.4": 120 * time.Millisecond})

	rep := r.RunCycle(context.Background(), staticFetch(`{"github.com": ["1.2.3.4", "5.6.7.8"]}`))

	if rep.Status != model.StatusSuccess {
		t.Fatalf("status: got %s (%s)", rep.Status, rep.Err)
	}
	if diff := cmp.Diff(map[string]string{"github.com": "1.2.3.4"}, rep.Winners); diff != "" {
		t.Fatal(diff)
	}
	if got := readFile(t, path); got != "127.0.0.1 localhost\n1.2.3.4 github.com\n" {
		t.Fatalf("hosts: got %q", got)
	}
	if rep.ID == "" || rep.FinishedAt.Before(rep.StartedAt) {
		t.Fatalf("bad report metadata: %+v", rep)
	}
	if !strings.Contains(rep.Diff, "+1.2.3.4 github.com") {
		t.Fatalf("diff: %s", rep.Diff)
	}

	log := strings.Join(rep.Log, "\n")
	for _, want := range []string{
		"[github.com] IP 1.2.3.4 latency: 120ms",
		"[github.com] IP 5.6.7.8 unreachable",
		"github.com => 1.2.3.4",
	} {
		if !strings.Contains(log, want) {
			t.Errorf("log misses %q:\n%s", want, log)
		}
	}
}

func TestRunCycleFetchError(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n")
	r, sel := newRunner(t, path, tableProber{})

	fetchErr := &source.FetchError{Location: "https://example.invalid", Err: errors.New("no such host")}
	rep := r.RunCycle(context.Background(), func(ctx context.Context) ([]byte, error) {
		return nil, fetchErr
	})

	if rep.Status != model.StatusFetchError {
		t.Fatalf("status: got %s", rep.Status)
	}
	if !strings.Contains(rep.Err, "no such host") {
		t.Fatalf("err: got %q", rep.Err)
	}
	if atomic.LoadInt32(&sel.calls) != 0 {
		t.Fatal("selector ran after a fetch error")
	}
	if got := readFile(t, path); got != "127.0.0.1 localhost\n" {
		t.Fatalf("hosts modified: %q", got)
	}
	if ReportError(rep) == nil {
		t.Fatal("expected a report error")
	}
}

func TestRunCycleParseErrorDoesNotTouchHosts(t *testing.T) {
	// a missing hosts file would turn any access into an io_error
	missing := filepath.Join(t.TempDir(), "hosts")
	r, sel := newRunner(t, missing, tableProber{})

	rep := r.RunCycle(context.Background(), staticFetch(`"not an array or object"`))
	if rep.Status != model.StatusParseError {
		t.Fatalf("status: got %s", rep.Status)
	}
	if atomic.LoadInt32(&sel.calls) != 0 {
		t.Fatal("selector ran after a parse error")
	}
}

func TestRunCycleNoUpdates(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "hosts")
	r, _ := newRunner(t, missing, tableProber{})

	rep := r.RunCycle(context.Background(), staticFetch(`[["9.9.9.9","example.com"],["8.8.8.8","example.com"]]`))
	if rep.Status != model.StatusNoUpdates {
		t.Fatalf("status: got %s (%s)", rep.Status, rep.Err)
	}
	if len(rep.Winners) != 0 {
		t.Fatalf("unexpected winners %v", rep.Winners)
	}
	if len(rep.Domains) != 1 || rep.Domains[0].Reachable() {
		t.Fatalf("unexpected outcomes %+v", rep.Domains)
	}
	if ReportError(rep) != nil {
		t.Fatal("no_updates is not a failure")
	}
}

func TestRunCyclePartialDomains(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n9.9.9.9 dead.example\n")
	r, _ := newRunner(t, path, tableProber{"1.1.1.1": 10 * time.Millisecond})

	rep := r.RunCycle(context.Background(), staticFetch(`{"alive.example": ["1.1.1.1"], "dead.example": ["2.2.2.2"]}`))
	if rep.Status != model.StatusSuccess {
		t.Fatalf("status: got %s", rep.Status)
	}
	// the unreachable domain keeps its previous entry
	want := "127.0.0.1 localhost\n9.9.9.9 dead.example\n1.1.1.1 alive.example\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("hosts: got %q", got)
	}
}

func TestRunCycleIOError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "hosts")
	r, _ := newRunner(t, missing, tableProber{"1.2.3.4": time.Millisecond})

	rep := r.RunCycle(context.Background(), staticFetch(`{"github.com": ["1.2.3.4"]}`))
	if rep.Status != model.StatusIOError {
		t.Fatalf("status: got %s", rep.Status)
	}
	if rep.NeedsElevation {
		t.Fatal("a missing file does not need elevation")
	}
	if len(rep.Winners) != 0 {
		t.Fatal("winners reported on failure")
	}
}

func TestRunCycleCanceled(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n")
	r, _ := newRunner(t, path, tableProber{"1.2.3.4": time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	rep := r.RunCycle(ctx, func(context.Context) ([]byte, error) {
		cancel()
		return []byte(`{"github.com": ["1.2.3.4"]}`), nil
	})
	if rep.Status != model.StatusCanceled {
		t.Fatalf("status: got %s", rep.Status)
	}
	if got := readFile(t, path); got != "127.0.0.1 localhost\n" {
		t.Fatalf("hosts modified: %q", got)
	}
}

func TestRunCycleDryRun(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n")
	r, _ := newRunner(t, path, tableProber{"1.2.3.4": time.Millisecond})
	r.Hosts = hostsfile.Options{DryRun: true}

	rep := r.RunCycle(context.Background(), staticFetch(`{"github.com": ["1.2.3.4"]}`))
	if rep.Status != model.StatusSuccess || !rep.DryRun {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Diff == "" {
		t.Fatal("expected a diff")
	}
	if got := readFile(t, path); got != "127.0.0.1 localhost\n" {
		t.Fatalf("hosts modified: %q", got)
	}
}

func TestRunCycleFilter(t *testing.T) {
	path := writeHosts(t, "")
	r, _ := newRunner(t, path, tableProber{"1.1.1.1": time.Millisecond, "2.2.2.2": time.Millisecond})
	filter, err := domain.NewFilter([]string{"a.com"})
	if err != nil {
		t.Fatal(err)
	}
	r.Filter = filter

	rep := r.RunCycle(context.Background(), staticFetch(`{"a.com": ["1.1.1.1"], "b.com": ["2.2.2.2"]}`))
	if diff := cmp.Diff(map[string]string{"a.com": "1.1.1.1"}, rep.Winners); diff != "" {
		t.Fatal(diff)
	}
	if got := readFile(t, path); got != "1.1.1.1 a.com\n" {
		t.Fatalf("hosts: got %q", got)
	}
}

func TestRunCycleTimeout(t *testing.T) {
	path := writeHosts(t, "")
	r, _ := newRunner(t, path, tableProber{})
	r.CycleTimeout = 20 * time.Millisecond

	rep := r.RunCycle(context.Background(), func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, &source.FetchError{Location: "slow", Err: ctx.Err()}
	})
	if rep.Status != model.StatusFetchError {
		t.Fatalf("status: got %s", rep.Status)
	}
	if !strings.Contains(rep.Err, context.DeadlineExceeded.Error()) {
		t.Fatalf("err: got %q", rep.Err)
	}
}
