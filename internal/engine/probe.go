package engine

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"example.com/hostspin/internal/metrics"
	"example.com/hostspin/internal/model"
)

const (
	DefaultPort    = 443
	DefaultTimeout = 1000 * time.Millisecond
)

// Prober measures the reachability of one candidate.
type Prober interface {
	Probe(ctx context.Context, ip string) model.ProbeResult
}

// TCPProber reports the time taken to establish a TCP connection to
// ip:Port. A single attempt is made; any failure means unreachable.
type TCPProber struct {
	Port    int
	Timeout time.Duration
}

func NewTCPProber(port int, timeout time.Duration) *TCPProber {
	return &TCPProber{Port: port, Timeout: timeout}
}

func (p *TCPProber) Probe(ctx context.Context, ip string) model.ProbeResult {
	res := model.ProbeResult{IP: ip}
	d, err := tcpPing(ctx, ip, p.Port, p.Timeout)
	if err != nil {
		res.Err = err.Error()
		metrics.ObserveProbe(false, 0)
		return res
	}
	res.Reachable = true
	res.Latency = d
	metrics.ObserveProbe(true, d)
	return res
}

func tcpPing(ctx context.Context, ip string, port int, timeout time.Duration) (time.Duration, error) {
	if ip == "" {
		return 0, errors.New("empty address")
	}
	address := net.JoinHostPort(ip, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: timeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start)
	_ = conn.Close()
	return elapsed, nil
}
