package readiness

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TCPProbe passes once a TCP connection to Addr succeeds.
type TCPProbe struct {
	Process string
	Addr    string
}

func (p TCPProbe) Name() string { return p.Process + " tcp " + p.Addr }

func (p TCPProbe) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// HTTPProbe passes once a GET to URL returns a 2xx status.
type HTTPProbe struct {
	Process string
	URL     string
	Client  *http.Client
}

func (p HTTPProbe) Name() string { return p.Process + " http " + p.URL }

func (p HTTPProbe) Check(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogProbe passes once Pattern matches the contents of the log at Path.
type LogProbe struct {
	Process string
	Path    string
	Pattern *regexp.Regexp
}

// NewLogProbe compiles pattern into a LogProbe.
func NewLogProbe(process, path, pattern string) (*LogProbe, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid log pattern %q for %s: %w", pattern, process, err)
	}
	return &LogProbe{Process: process, Path: path, Pattern: re}, nil
}

func (p *LogProbe) Name() string { return p.Process + " log /" + p.Pattern.String() + "/" }

func (p *LogProbe) Check(_ context.Context) error {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return err
	}
	if !p.Pattern.Match(data) {
		return fmt.Errorf("pattern not found in %s", p.Path)
	}
	return nil
}

// Watch blocks until the pattern appears, re-checking the log whenever its
// directory reports a change to it.
func (p *LogProbe) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.Path)); err != nil {
		return err
	}

	// Check after the watch is in place so no write is missed.
	last := p.Check(ctx)
	if last == nil {
		return nil
	}

	target := filepath.Clean(p.Path)
	for {
		select {
		case <-ctx.Done():
			return last
		case event, ok := <-watcher.Events:
			if !ok {
				return last
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if last = p.Check(ctx); last == nil {
				return nil
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return last
			}
			return werr
		}
	}
}
