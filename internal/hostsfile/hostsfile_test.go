package hostsfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleHosts = `# Static table lookup for hostnames.
127.0.0.1 localhost
::1 localhost ip6-localhost

# GitHub
140.82.112.3 github.com
185.199.108.133 raw.githubusercontent.com
10.0.0.5 nas.lan
`

func TestReconcileScenario(t *testing.T) {
	lines := SplitLines("127.0.0.1 localhost\n")
	got := Reconcile(lines, map[string]string{"github.com": "1.2.3.4"}, MatchSubstring)
	want := []string{"127.0.0.1 localhost", "1.2.3.4 github.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcileSubstring(t *testing.T) {
	winners := map[string]string{
		"raw.githubusercontent.com": "185.199.110.133",
		"github.com":                "20.205.243.166",
	}
	got := Reconcile(SplitLines(sampleHosts), winners, MatchSubstring)
	want := []string{
		"# Static table lookup for hostnames.",
		"127.0.0.1 localhost",
		"::1 localhost ip6-localhost",
		"",
		"# GitHub",
		"10.0.0.5 nas.lan",
		"20.205.243.166 github.com",
		"185.199.110.133 raw.githubusercontent.com",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcileSubstringIsCaseInsensitive(t *testing.T) {
	lines := []string{"1.1.1.1 GitHub.COM", "# notes about github.com", "2.2.2.2 other"}
	got := Reconcile(lines, map[string]string{"github.com": "3.3.3.3"}, MatchSubstring)
	want := []string{"2.2.2.2 other", "3.3.3.3 github.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcileHostname(t *testing.T) {
	lines := []string{
		"# notes about github.com",
		"1.1.1.1 GitHub.com. www.github.com",
		"2.2.2.2 api.github.com",
		"3.3.3.3 mygithub.com",
		"9.9.9.9 github.com # pinned",
	}
	got := Reconcile(lines, map[string]string{"github.com": "4.4.4.4"}, MatchHostname)
	want := []string{
		"# notes about github.com",
		"2.2.2.2 api.github.com",
		"3.3.3.3 mygithub.com",
		"4.4.4.4 github.com",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	winners := map[string]string{
		"github.com":                "1.2.3.4",
		"raw.githubusercontent.com": "5.6.7.8",
		"gist.github.com":           "9.9.9.9",
	}
	for _, mode := range []MatchMode{MatchSubstring, MatchHostname} {
		t.Run(string(mode), func(t *testing.T) {
			once := Render(sampleHosts, winners, mode)
			twice := Render(once, winners, mode)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestReconcilePreservesUnrelatedLines(t *testing.T) {
	winners := map[string]string{"github.com": "1.2.3.4"}
	lines := SplitLines(sampleHosts)
	got := Reconcile(lines, winners, MatchSubstring)

	var kept []string
	for _, l := range lines {
		if !strings.Contains(l, "github.com") {
			kept = append(kept, l)
		}
	}
	if diff := cmp.Diff(kept, got[:len(kept)]); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcileOneEntryPerDomain(t *testing.T) {
	winners := map[string]string{"a.com": "1.1.1.1", "b.com": "2.2.2.2"}
	lines := []string{"5.5.5.5 a.com", "6.6.6.6 a.com", "7.7.7.7 b.com www.b.com"}
	got := Reconcile(lines, winners, MatchSubstring)
	want := []string{"1.1.1.1 a.com", "2.2.2.2 b.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcileEmptyWinners(t *testing.T) {
	lines := SplitLines(sampleHosts)
	if diff := cmp.Diff(lines, Reconcile(lines, nil, MatchSubstring)); diff != "" {
		t.Fatal(diff)
	}
	// an empty domain would match every line
	got := Reconcile(lines, map[string]string{"": "1.1.1.1"}, MatchSubstring)
	if diff := cmp.Diff(lines, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestRenderKeepsLineEndings(t *testing.T) {
	in := "127.0.0.1 localhost\r\n1.1.1.1 github.com\r\n"
	got := Render(in, map[string]string{"github.com": "2.2.2.2"}, MatchSubstring)
	want := "127.0.0.1 localhost\r\n2.2.2.2 github.com\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = Render("127.0.0.1 localhost", map[string]string{"a.com": "1.1.1.1"}, MatchSubstring)
	if got != "127.0.0.1 localhost\n1.1.1.1 a.com\n" {
		t.Fatalf("got %q", got)
	}
}

func TestParseEntry(t *testing.T) {
	e, ok := ParseEntry("  10.0.0.1\tnas.lan nas # home ")
	if !ok {
		t.Fatal("expected an entry")
	}
	if diff := cmp.Diff(Entry{IP: "10.0.0.1", Hostnames: []string{"nas.lan", "nas"}}, e); diff != "" {
		t.Fatal(diff)
	}
	for _, line := range []string{"", "# 1.1.1.1 a.com", "1.1.1.1"} {
		if _, ok := ParseEntry(line); ok {
			t.Fatalf("%q: unexpected entry", line)
		}
	}
}

func TestParseMatchMode(t *testing.T) {
	for in, want := range map[string]MatchMode{"": MatchSubstring, "Substring": MatchSubstring, " hostname ": MatchHostname} {
		got, err := ParseMatchMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseMatchMode("regex"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDefaultHostsPath(t *testing.T) {
	p := DefaultHostsPath()
	if runtime.GOOS == "windows" {
		if !strings.HasSuffix(strings.ToLower(p), filepath.Join("drivers", "etc", "hosts")) {
			t.Fatalf("unexpected path %s", p)
		}
		return
	}
	if p != "/etc/hosts" {
		t.Fatalf("unexpected path %s", p)
	}
}

func writeHosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApply(t *testing.T) {
	path := writeHosts(t, sampleHosts)
	winners := map[string]string{"github.com": "1.2.3.4"}

	res, err := Apply(path, winners, Options{Mode: MatchSubstring})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || res.Backup != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != res.After {
		t.Fatal("written content mismatch")
	}
	if !strings.HasSuffix(string(b), "10.0.0.5 nas.lan\n1.2.3.4 github.com\n") {
		t.Fatalf("unexpected content:\n%s", b)
	}

	again, err := Apply(path, winners, Options{Mode: MatchSubstring})
	if err != nil {
		t.Fatal(err)
	}
	if again.Changed {
		t.Fatal("second apply should not change the file")
	}
}

func TestApplyIgnoresMultiHostnameKeys(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n")
	winners := map[string]string{
		"evil.com\n6.6.6.6 bank.com": "1.2.3.4",
		"a.com b.com":                "5.5.5.5",
		"github.com":                 "1.2.3.4\n6.6.6.6 bank.com",
		"ok.com":                     "2.2.2.2",
	}
	for i := 0; i < 3; i++ {
		res, err := Apply(path, winners, Options{Mode: MatchSubstring})
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && res.Changed {
			t.Fatalf("apply %d changed the file:\n%s", i+1, res.After)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("127.0.0.1 localhost\n2.2.2.2 ok.com\n", string(b)); diff != "" {
		t.Fatal(diff)
	}
}

func TestApplyDryRun(t *testing.T) {
	path := writeHosts(t, sampleHosts)
	res, err := Apply(path, map[string]string{"github.com": "1.2.3.4"}, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != sampleHosts {
		t.Fatal("dry run modified the file")
	}
	if !res.Changed || !strings.Contains(res.After, "1.2.3.4 github.com") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestApplyBackupAndRestore(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost\n")

	res, err := Apply(path, map[string]string{"example.com": "1.2.3.4"}, Options{Backup: true})
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(res.Backup) == "" {
		t.Fatalf("empty backup path")
	}
	if _, err := os.Stat(res.Backup); err != nil {
		t.Fatalf("backup not created: %v", err)
	}

	if err := RestoreBackup(res.Backup, path); err != nil {
		t.Fatal(err)
	}
	restored, _ := os.ReadFile(path)
	if string(restored) != "127.0.0.1 localhost\n" {
		t.Fatalf("restore mismatch: %q", string(restored))
	}

	if err := RestoreBackup("", path); err == nil {
		t.Fatal("expected an error for an empty backup path")
	}
}

func TestApplyIOErrors(t *testing.T) {
	t.Run("missing file is not created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hosts")
		_, err := Apply(path, map[string]string{"a.com": "1.1.1.1"}, Options{})
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("expected *IOError, got %v", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("expected fs.ErrNotExist, got %v", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			t.Fatal("hosts file was created")
		}
	})

	t.Run("directory", func(t *testing.T) {
		var ioErr *IOError
		if _, err := Apply(t.TempDir(), nil, Options{}); !errors.As(err, &ioErr) {
			t.Fatalf("expected *IOError, got %v", err)
		}
	})

	t.Run("read only file", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("file permissions are not enforced for this user")
		}
		path := writeHosts(t, sampleHosts)
		if err := os.Chmod(path, 0444); err != nil {
			t.Fatal(err)
		}
		_, err := Apply(path, map[string]string{"github.com": "1.2.3.4"}, Options{})
		if !IsPermission(err) {
			t.Fatalf("expected a permission error, got %v", err)
		}
		b, _ := os.ReadFile(path)
		if string(b) != sampleHosts {
			t.Fatal("file modified after a failed write")
		}
	})
}

func TestDiff(t *testing.T) {
	if Diff("hosts", "a\n", "a\n") != "" {
		t.Fatal("expected no diff")
	}
	d := Diff("hosts", "127.0.0.1 localhost\n", "127.0.0.1 localhost\n1.2.3.4 github.com\n")
	if !strings.Contains(d, "+1.2.3.4 github.com") {
		t.Fatalf("unexpected diff:\n%s", d)
	}
}
