package hostsfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// IOError is returned when the hosts file, or its backup, cannot be
// read or written. The hosts file is left as it was.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("hosts %s %s: %s", e.Op, e.Path, e.Err.Error())
}

func (e *IOError) Unwrap() error { return e.Err }

// IsPermission reports whether err was caused by missing privileges.
func IsPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

type Options struct {
	Mode MatchMode

	// Backup writes the previous content next to the hosts file before
	// overwriting it.
	Backup bool

	// DryRun computes the new content without writing anything.
	DryRun bool
}

type Result struct {
	Before  string
	After   string
	Changed bool
	Backup  string
}

// Apply merges winners into the hosts file at path. The whole file is read
// and the new content computed in memory before the first byte is written;
// a failed write is rolled back. The file is never created.
func Apply(path string, winners map[string]string, opts Options) (*Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}
	if st.IsDir() {
		return nil, &IOError{Op: "stat", Path: path, Err: errors.New("is a directory")}
	}

	if opts.DryRun {
		before, err := lockedfile.Read(path)
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		after := Render(string(before), winners, opts.Mode)
		return &Result{Before: string(before), After: after, Changed: after != string(before)}, nil
	}

	res := &Result{}
	err = lockedfile.Transform(path, func(old []byte) ([]byte, error) {
		res.Before = string(old)
		res.After = Render(res.Before, winners, opts.Mode)
		res.Changed = res.After != res.Before
		if opts.Backup && res.Changed {
			backup, err := backupFile(path, old, st.Mode().Perm())
			if err != nil {
				return nil, &IOError{Op: "backup", Path: path, Err: err}
			}
			res.Backup = backup
		}
		return []byte(res.After), nil
	})
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return nil, err
		}
		return nil, &IOError{Op: "update", Path: path, Err: err}
	}
	return res, nil
}

// RestoreBackup copies backupPath over hostsPath.
func RestoreBackup(backupPath, hostsPath string) error {
	if strings.TrimSpace(backupPath) == "" {
		return errors.New("empty backup path")
	}
	b, err := os.ReadFile(backupPath)
	if err != nil {
		return &IOError{Op: "read", Path: backupPath, Err: err}
	}
	mode := os.FileMode(0644)
	if st, statErr := os.Stat(hostsPath); statErr == nil {
		mode = st.Mode().Perm()
	}
	if err := lockedfile.Write(hostsPath, bytes.NewReader(b), mode); err != nil {
		return &IOError{Op: "restore", Path: hostsPath, Err: err}
	}
	return nil
}

// Diff renders a unified diff between two versions of the file at path.
func Diff(path, before, after string) string {
	if before == after {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(path, path, before, edits))
}

func backupFile(path string, content []byte, mode fs.FileMode) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ts := time.Now().Format("20060102_150405")
	backup := filepath.Join(dir, fmt.Sprintf("%s.bak.%s", base, ts))
	if err := os.WriteFile(backup, content, mode); err != nil {
		return "", err
	}
	return backup, nil
}
