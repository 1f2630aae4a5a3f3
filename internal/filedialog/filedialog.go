// Package filedialog opens the native "open file" dialog where one exists.
package filedialog

import "errors"

var (
	ErrCanceled    = errors.New("file dialog canceled")
	ErrUnsupported = errors.New("file dialog not supported on this platform")
)

type Filter struct {
	Name    string
	Pattern string
}

// Request describes one dialog. Current OPTIONALLY names the file the
// dialog starts next to.
type Request struct {
	Title   string
	Current string
	Filters []Filter
}

var (
	HostsFilters = []Filter{
		{Name: "hosts", Pattern: "hosts;hosts.*"},
		{Name: "All files (*.*)", Pattern: "*.*"},
	}
	SourceFilters = []Filter{
		{Name: "JSON (*.json)", Pattern: "*.json"},
		{Name: "All files (*.*)", Pattern: "*.*"},
	}
)
