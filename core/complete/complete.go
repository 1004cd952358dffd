// Package complete maintains the candidate database for command completion:
// a per-iteration snapshot of the working directory plus the executables
// reachable through $PATH and any extra configured directories.
package complete

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
)

// ErrDirectoryRead marks a failed working-directory scan. Non-fatal: callers
// keep the previous listing and continue.
var ErrDirectoryRead = errors.New("directory unreadable")

// rescanInterval caps how often the filesystem is walked when no change
// notification is available. The loop calls Refresh every few milliseconds;
// walking the directory that often is wasteful.
const rescanInterval = 500 * time.Millisecond

// forcedRescanInterval bounds how stale a quiet watcher can leave the
// listing: fsnotify drops events when its queue overflows, so a walk is
// forced at this cadence even without a change notification.
const forcedRescanInterval = 5 * time.Second

// Cache is the completion candidate database.
type Cache struct {
	fs     afero.Fs
	getenv func(string) string

	bucket   *ratelimit.Bucket
	watcher  *fsnotify.Watcher
	watched  string // directory currently registered with the watcher
	dirty    bool
	lastScan time.Time

	dir      string
	listing  []string // working directory entries, sorted
	commands []string // $PATH executables, sorted
	extra    []string // extra search directories (~/.rshenv)
}

// New builds a cache over fs. getenv supplies $PATH; pass os.Getenv outside
// tests.
func New(fs afero.Fs, getenv func(string) string) *Cache {
	return &Cache{
		fs:     fs,
		getenv: getenv,
		bucket: ratelimit.NewBucket(rescanInterval, 1),
		dirty:  true,
	}
}

// SetExtraPaths adds directories searched for executables beyond $PATH.
func (c *Cache) SetExtraPaths(paths []string) {
	c.extra = paths
	c.dirty = true
}

// Watch registers a filesystem watcher on dir so Refresh can skip rescans
// until something changes. Failure to watch is not an error; the cache falls
// back to time-based rescans.
func (c *Cache) Watch(dir string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return
	}
	c.watcher = watcher
	c.watched = dir
}

// Close releases the watcher, if any.
func (c *Cache) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// Refresh snapshots dir. Called exactly once per loop iteration; internally
// it serves the cached listing unless the directory changed or the rescan
// budget allows another walk. On failure the stale listing is kept and an
// error wrapping ErrDirectoryRead is returned.
func (c *Cache) Refresh(dir string) error {
	c.drainEvents()

	if dir != c.dir {
		c.dir = dir
		c.dirty = true
		if c.watcher != nil {
			// The watch moves with the working directory so stale events
			// from the old one stop arriving. Both calls are best effort; a
			// vanished old dir is fine.
			if c.watched != "" {
				c.watcher.Remove(c.watched)
				c.watched = ""
			}
			if err := c.watcher.Add(dir); err == nil {
				c.watched = dir
			}
		}
	}

	// A quiet watcher lets rescans be skipped, but only until the forced
	// deadline passes; fsnotify drops events under load.
	if !c.dirty && c.watcher != nil && time.Since(c.lastScan) < forcedRescanInterval {
		return nil
	}
	if c.bucket.TakeAvailable(1) == 0 {
		// Throttled; serve the current snapshot and retry shortly.
		return nil
	}

	infos, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryRead, err)
	}

	listing := make([]string, 0, len(infos))
	for _, info := range infos {
		listing = append(listing, info.Name())
	}
	sort.Strings(listing)

	c.listing = listing
	c.dirty = false
	c.lastScan = time.Now()
	return nil
}

// drainEvents consumes pending watcher notifications without blocking.
func (c *Cache) drainEvents() {
	if c.watcher == nil {
		return
	}
	for {
		select {
		case _, ok := <-c.watcher.Events:
			if !ok {
				c.watcher = nil
				return
			}
			c.dirty = true
		case _, ok := <-c.watcher.Errors:
			if !ok {
				c.watcher = nil
				return
			}
			// Watch trouble just degrades to time-based rescans.
			c.dirty = true
		default:
			return
		}
	}
}

// Listing returns the current working-directory snapshot.
func (c *Cache) Listing() []string {
	return c.listing
}

// RefreshCommands rebuilds the executable database from $PATH and the extra
// directories. Heavier than Refresh; called when entering Input mode and on
// Tab, matching when completion can actually be used.
func (c *Cache) RefreshCommands() {
	var names []string

	dirs := filepath.SplitList(c.getenv("PATH"))
	dirs = append(dirs, c.extra...)

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		infos, err := afero.ReadDir(c.fs, dir)
		if err != nil {
			continue // Unreadable $PATH entries are normal.
		}
		for _, info := range infos {
			if info.IsDir() {
				continue
			}
			names = append(names, info.Name())
		}
	}

	sort.Strings(names)
	c.commands = dedupe(names)
}

// Candidates returns completion matches for prefix: history entries first
// (most recent first), then directory entries, then $PATH commands.
func (c *Cache) Candidates(prefix string, historyCommands []string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(s string) {
		if !seen[s] && strings.HasPrefix(s, prefix) {
			seen[s] = true
			out = append(out, s)
		}
	}

	for i := len(historyCommands) - 1; i >= 0; i-- {
		add(historyCommands[i])
	}
	for _, name := range c.listing {
		add(name)
	}
	for _, name := range c.commands {
		add(name)
	}
	return out
}

// Cycle returns the n-th candidate for prefix, wrapping around. Used by Tab
// to walk the candidate list; ok is false when nothing matches.
func (c *Cache) Cycle(prefix string, historyCommands []string, n int) (string, bool) {
	candidates := c.Candidates(prefix, historyCommands)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[n%len(candidates)], true
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var last string
	for i, s := range sorted {
		if i == 0 || s != last {
			out = append(out, s)
		}
		last = s
	}
	return out
}
