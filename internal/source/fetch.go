package source

//
// fetch.go - retrieve the candidate document.
//

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/model"
)

// DefaultURL is the community-maintained GitHub hosts list.
const DefaultURL = "https://raw.githubusercontent.com/521xueweihan/GitHub520/main/hosts.json"

// maxBodySize bounds how much of a response body we are willing to read.
const maxBodySize = 16 << 20

// FetchFunc returns the raw candidate document.
type FetchFunc func(ctx context.Context) ([]byte, error)

// FetchError wraps any failure to retrieve the document.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Location, e.Err.Error())
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrRequestFailed indicates that the server returned a non-2xx status.
type ErrRequestFailed struct {
	StatusCode int
}

func (e *ErrRequestFailed) Error() string {
	return fmt.Sprintf("request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher retrieves documents over HTTP(S) or from the local file system.
//
// The zero value is usable: it falls back to a client with a 30s timeout.
type Fetcher struct {
	// Client is the OPTIONAL HTTP client.
	Client *http.Client

	// UserAgent is the OPTIONAL User-Agent header value.
	UserAgent string

	// Logger is the OPTIONAL logger.
	Logger model.Logger
}

// NewFetcher returns a Fetcher whose client gives up after timeout.
func NewFetcher(timeout time.Duration, userAgent string, logger model.Logger) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Logger:    logger,
	}
}

// Func binds location, producing the FetchFunc consumed by a cycle.
func (f *Fetcher) Func(location string) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		return f.Fetch(ctx, location)
	}
}

// Fetch returns the body found at location. Locations starting with
// http:// or https:// are fetched with GET, file:// URLs and bare paths
// are read from disk. Every error is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	logger := model.ValidLoggerOrDefault(f.Logger)
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, &FetchError{Location: location, Err: fmt.Errorf("empty location")}
	}

	var (
		body []byte
		err  error
	)
	start := time.Now()
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		body, err = f.get(ctx, location)
	case strings.HasPrefix(location, "file://"):
		var u *url.URL
		if u, err = url.Parse(location); err == nil {
			body, err = readLocal(u.Path)
		}
	default:
		body, err = readLocal(location)
	}
	if err != nil {
		logger.Warnf("source: fetch %s: %s", location, err.Error())
		return nil, &FetchError{Location: location, Err: err}
	}
	logger.Debugf("source: fetched %d bytes from %s in %s", len(body), location, time.Since(start))
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ErrRequestFailed{StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func readLocal(path string) ([]byte, error) {
	abs, err := domain.EnsureReadableFile(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}
