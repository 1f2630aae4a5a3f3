package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalid marks a name that cannot be written as a hosts file hostname.
var ErrInvalid = errors.New("invalid domain name")

// CheckDomain validates an operator-supplied name and returns its
// canonical form: lower case, without the trailing dot.
func CheckDomain(s string) (string, error) {
	name := strings.TrimSuffix(strings.TrimSpace(s), ".")
	if reason := hostnameFault(name); reason != "" {
		return "", fmt.Errorf("%w %q: %s", ErrInvalid, s, reason)
	}
	return strings.ToLower(name), nil
}

// ValidKey reports whether a domain key taken from the data source can be
// written to the hosts file as one hostname. The key is not rewritten, so
// unlike CheckDomain it tolerates no surrounding blanks.
func ValidKey(key string) bool {
	return hostnameFault(strings.TrimSuffix(key, ".")) == ""
}

// hostnameFault describes why name is not a hostname, or returns "".
func hostnameFault(name string) string {
	if name == "" {
		return "empty"
	}
	if len(name) > 253 {
		return "longer than 253 bytes"
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return "empty label"
		}
		if len(label) > 63 {
			return "label longer than 63 bytes"
		}
		for i := 0; i < len(label); i++ {
			if !hostnameByte(label[i]) {
				return fmt.Sprintf("character %q not allowed", label[i])
			}
		}
	}
	return ""
}

func hostnameByte(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '-'
}

// ParseDomains reads a domain list: any mix of blanks, commas and
// semicolons between names, # starts a comment. Names come back in
// canonical form, deduplicated, in the order first seen. Every invalid
// name is reported with its line number.
func ParseDomains(text string) ([]string, error) {
	var (
		out  []string
		errs []error
		seen = map[string]bool{}
	)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for n, line := range strings.Split(text, "\n") {
		line, _, _ = strings.Cut(line, "#")
		for _, tok := range strings.FieldsFunc(line, isListSeparator) {
			d, err := CheckDomain(tok)
			if err != nil {
				errs = append(errs, fmt.Errorf("line %d: %w", n+1, err))
				continue
			}
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out, errors.Join(errs...)
}

func isListSeparator(r rune) bool {
	return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\r'
}

// ReadDomainsFromFile loads a domain list written in the ParseDomains format.
func ReadDomainsFromFile(path string) ([]string, error) {
	abs, err := EnsureReadableFile(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	ds, err := ParseDomains(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return ds, nil
}

// EnsureReadableFile returns the absolute path of an existing regular file.
func EnsureReadableFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", abs)
	}
	return abs, nil
}
