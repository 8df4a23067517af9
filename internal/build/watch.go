package build

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/luacat/lcat/events"
)

// fingerprint is the change signature of one content file. Size and
// modification time together are cheap to poll and good enough to catch
// editor saves.
type fingerprint struct {
	size  int64
	mtime time.Time
}

// Watch runs an initial build, then polls the content tree and rebuilds
// whenever a file is added, changed or removed. It blocks until ctx is
// done (returning ctx.Err()) or a build hard-fails.
func (b *Builder) Watch(ctx context.Context) error {
	if _, err := b.Build(); err != nil {
		return err
	}
	last := b.scan()

	ticker := time.NewTicker(b.conf.Watch.Poll.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next := b.scan()
			if p, changed := diff(last, next); changed {
				b.handler(events.WatchTrigger{Path: p})
				if _, err := b.Build(); err != nil {
					return err
				}
			}
			last = next
		}
	}
}

// scan fingerprints every visible file under the content directory. Walk
// problems are reported as events and the affected entries dropped; a
// transient error then looks like a change and triggers a rebuild, which
// is the safe direction.
func (b *Builder) scan() map[string]fingerprint {
	prints := make(map[string]fingerprint)
	filepath.WalkDir(b.conf.ContentDir,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				b.handler(events.Trace{ID: "watch", Message: err.Error()})
				return nil
			}
			if d.IsDir() {
				if p != b.conf.ContentDir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				b.handler(events.Trace{ID: "watch", Message: err.Error()})
				return nil
			}
			prints[p] = fingerprint{size: info.Size(), mtime: info.ModTime()}
			return nil
		})
	return prints
}

// diff reports the first difference between two scans and the path it was
// seen at.
func diff(last, next map[string]fingerprint) (string, bool) {
	for p, print := range next {
		if old, ok := last[p]; !ok || old != print {
			return p, true
		}
	}
	for p := range last {
		if _, ok := next[p]; !ok {
			return p, true
		}
	}
	return "", false
}
