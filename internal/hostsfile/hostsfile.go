package hostsfile

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"example.com/hostspin/internal/domain"
)

// MatchMode decides which existing lines are replaced by a new mapping.
type MatchMode string

const (
	// MatchSubstring drops every line containing the domain anywhere,
	// comments included, compared case-insensitively. A domain that is a
	// substring of an unrelated name (a.com inside data.com) also drops
	// that line.
	MatchSubstring MatchMode = "substring"

	// MatchHostname only drops entries listing the domain as one of their
	// hostnames.
	MatchHostname MatchMode = "hostname"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchHostname:
		return MatchHostname, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

func DefaultHostsPath() string {
	switch runtime.GOOS {
	case "windows":
		winDir := os.Getenv("WINDIR")
		if winDir == "" {
			winDir = `C:\Windows`
		}
		return filepath.Join(winDir, "System32", "drivers", "etc", "hosts")
	default:
		return "/etc/hosts"
	}
}

// Entry is a parsed "<ip> <hostname>..." line.
type Entry struct {
	IP        string
	Hostnames []string
}

// ParseEntry parses a hosts line. Comments, blank lines and lines with
// fewer than two fields are not entries.
func ParseEntry(line string) (Entry, bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, false
	}
	return Entry{IP: fields[0], Hostnames: fields[1:]}, true
}

// SplitLines splits content on "\n". A carriage return before the newline
// stays part of its line, and the empty piece after a final newline is
// dropped.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines is the inverse of SplitLines; the result always ends with a
// newline unless there are no lines.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Reconcile drops the lines that mention a domain of winners and appends
// one "<ip> <domain>" line per winner, sorted by domain. All other lines
// keep their bytes and relative order. Winners whose domain is not a single
// hostname, or whose address is not an IP literal, are ignored.
func Reconcile(lines []string, winners map[string]string, mode MatchMode) []string {
	domains := sortedDomains(winners)
	out := make([]string, 0, len(lines)+len(domains))
	for _, line := range lines {
		if !mentions(line, domains, mode) {
			out = append(out, line)
		}
	}
	for _, d := range domains {
		out = append(out, mappingLine(winners[d], d))
	}
	return out
}

// Render applies Reconcile to a whole file. Appended lines follow the
// file's line endings.
func Render(content string, winners map[string]string, mode MatchMode) string {
	lines := SplitLines(content)
	out := Reconcile(lines, winners, mode)
	if strings.Contains(content, "\r\n") {
		for i := len(out) - len(sortedDomains(winners)); i < len(out); i++ {
			out[i] += "\r"
		}
	}
	return JoinLines(out)
}

func mappingLine(ip, domain string) string {
	return ip + " " + domain
}

func sortedDomains(winners map[string]string) []string {
	out := make([]string, 0, len(winners))
	for d, ip := range winners {
		if !domain.ValidKey(d) {
			continue
		}
		if _, err := netip.ParseAddr(ip); err != nil {
			continue
		}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func mentions(line string, domains []string, mode MatchMode) bool {
	if mode == MatchHostname {
		e, ok := ParseEntry(line)
		if !ok {
			return false
		}
		for _, h := range e.Hostnames {
			for _, d := range domains {
				if strings.EqualFold(strings.TrimSuffix(h, "."), d) {
					return true
				}
			}
		}
		return false
	}
	lower := strings.ToLower(line)
	for _, d := range domains {
		if strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}
