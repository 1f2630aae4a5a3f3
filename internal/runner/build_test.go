package runner

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"example.com/hostspin/internal/config"
	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/model"
)

func TestFromConfig(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	_, port, _ := net.SplitHostPort(ln.Addr().String())

	dir := t.TempDir()
	src := filepath.Join(dir, "hosts.json")
	body := `[["127.0.0.1", "github.com"], ["127.0.0.1", "gist.github.com"]]`
	if err := os.WriteFile(src, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	hosts := writeHosts(t, "127.0.0.1 localhost\n")

	cfg := config.Default()
	cfg.SourceURL = src
	cfg.HostsPath = hosts
	cfg.Port, _ = strconv.Atoi(port)
	cfg.Timeout = config.Duration(time.Second)
	cfg.Domains = []string{"github.com"}

	r, fetch, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	rep := r.Bind(fetch)(context.Background())
	if rep.Status != model.StatusSuccess {
		t.Fatalf("status: got %s (%s)", rep.Status, rep.Err)
	}
	got := readFile(t, hosts)
	if !strings.Contains(got, "127.0.0.1 github.com\n") {
		t.Fatalf("missing entry:\n%s", got)
	}
	if strings.Contains(got, "gist.github.com") {
		t.Fatalf("filtered domain was written:\n%s", got)
	}
}

func TestFromConfigInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Concurrency = 0
	if _, _, err := FromConfig(cfg, nil); err == nil {
		t.Fatal("expected an error")
	}

	cfg = config.Default()
	cfg.Domains = []string{"github_com"}
	if _, _, err := FromConfig(cfg, nil); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("got %v, want domain.ErrInvalid", err)
	}
}
