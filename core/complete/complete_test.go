package complete

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache returns a cache whose rescan budget never runs out, so tests
// aren't timing sensitive.
func newTestCache(fs afero.Fs, getenv func(string) string) *Cache {
	c := New(fs, getenv)
	c.bucket = ratelimit.NewBucket(time.Nanosecond, 1<<30)
	return c
}

func noEnv(string) string { return "" }

func TestRefreshListsDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	for _, name := range []string{"zeta.txt", "alpha.txt", "mid.go"} {
		require.NoError(t, afero.WriteFile(fs, "/work/"+name, nil, 0644))
	}

	c := newTestCache(fs, noEnv)
	require.NoError(t, c.Refresh("/work"))

	assert.Equal(t, []string{"alpha.txt", "mid.go", "zeta.txt"}, c.Listing())
}

func TestRefreshKeepsStaleListingOnError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	require.NoError(t, afero.WriteFile(fs, "/work/a", nil, 0644))

	c := newTestCache(fs, noEnv)
	require.NoError(t, c.Refresh("/work"))
	require.Equal(t, []string{"a"}, c.Listing())

	err := c.Refresh("/gone")
	assert.ErrorIs(t, err, ErrDirectoryRead)
	// The previous snapshot survives so completion keeps working.
	assert.Equal(t, []string{"a"}, c.Listing())
}

func TestRefreshPicksUpDirectoryChange(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/one", 0755))
	require.NoError(t, fs.MkdirAll("/two", 0755))
	require.NoError(t, afero.WriteFile(fs, "/one/a", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/two/b", nil, 0644))

	c := newTestCache(fs, noEnv)
	require.NoError(t, c.Refresh("/one"))
	require.NoError(t, c.Refresh("/two"))

	assert.Equal(t, []string{"b"}, c.Listing())
}

func TestRefreshIsThrottled(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	require.NoError(t, afero.WriteFile(fs, "/work/a", nil, 0644))

	c := New(fs, noEnv)
	c.bucket = ratelimit.NewBucket(time.Hour, 1)
	require.NoError(t, c.Refresh("/work"))

	// A new file appears, but the budget is spent: the snapshot stays stale
	// until the next token.
	require.NoError(t, afero.WriteFile(fs, "/work/b", nil, 0644))
	require.NoError(t, c.Refresh("/work"))
	assert.Equal(t, []string{"a"}, c.Listing())
}

func TestWatchFollowsDirectoryChange(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	c := newTestCache(afero.NewOsFs(), noEnv)
	c.Watch(dirA)
	require.NotNil(t, c.watcher, "inotify unavailable")
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Refresh(dirA))
	require.NoError(t, c.Refresh(dirB))
	assert.Equal(t, dirB, c.watched)

	// A change in the new directory marks the snapshot dirty.
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "new"), nil, 0644))
	require.Eventually(t, func() bool {
		c.drainEvents()
		return c.dirty
	}, time.Second, 10*time.Millisecond)

	// Let any trailing events from the create settle before moving on.
	time.Sleep(50 * time.Millisecond)
	c.drainEvents()

	// The old directory is no longer watched, so changes there must not
	// invalidate the snapshot.
	c.dirty = false
	require.NoError(t, os.WriteFile(filepath.Join(dirA, "stale"), nil, 0644))
	time.Sleep(50 * time.Millisecond)
	c.drainEvents()
	assert.False(t, c.dirty)
}

func TestQuietWatcherStillRescansEventually(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	require.NoError(t, afero.WriteFile(fs, "/work/a", nil, 0644))

	c := newTestCache(fs, noEnv)
	// The watcher observes the real OS and can't see the memfs, standing in
	// for change events fsnotify dropped.
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	c.watcher = watcher
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Refresh("/work"))
	require.Equal(t, []string{"a"}, c.Listing())

	// The watcher saw nothing, so the new file goes unnoticed at first.
	require.NoError(t, afero.WriteFile(fs, "/work/b", nil, 0644))
	require.NoError(t, c.Refresh("/work"))
	assert.Equal(t, []string{"a"}, c.Listing())

	// Past the forced deadline the next refresh walks the directory again.
	c.lastScan = time.Now().Add(-2 * forcedRescanInterval)
	require.NoError(t, c.Refresh("/work"))
	assert.Equal(t, []string{"a", "b"}, c.Listing())
}

func TestRefreshCommands(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/bin", 0755))
	require.NoError(t, fs.MkdirAll("/opt/tools", 0755))
	require.NoError(t, afero.WriteFile(fs, "/bin/ls", nil, 0755))
	require.NoError(t, afero.WriteFile(fs, "/bin/cat", nil, 0755))
	require.NoError(t, afero.WriteFile(fs, "/opt/tools/fmt", nil, 0755))
	// Directories under $PATH entries are not commands.
	require.NoError(t, fs.MkdirAll("/bin/subdir", 0755))

	getenv := func(key string) string {
		if key == "PATH" {
			return "/bin:/missing"
		}
		return ""
	}

	c := newTestCache(fs, getenv)
	c.SetExtraPaths([]string{"/opt/tools"})
	c.RefreshCommands()

	candidates := c.Candidates("", nil)
	assert.Equal(t, []string{"cat", "fmt", "ls"}, candidates)
}

func TestCandidatesPrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	require.NoError(t, afero.WriteFile(fs, "/work/lsdir", nil, 0644))
	require.NoError(t, fs.MkdirAll("/bin", 0755))
	require.NoError(t, afero.WriteFile(fs, "/bin/ls", nil, 0755))

	getenv := func(key string) string {
		if key == "PATH" {
			return "/bin"
		}
		return ""
	}

	c := newTestCache(fs, getenv)
	require.NoError(t, c.Refresh("/work"))
	c.RefreshCommands()

	history := []string{"ls -la", "cd /tmp", "ls -la"}
	got := c.Candidates("ls", history)

	// History first (newest first, deduped), then directory, then $PATH.
	assert.Equal(t, []string{"ls -la", "lsdir", "ls"}, got)
}

func TestCycleWrapsAround(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	require.NoError(t, afero.WriteFile(fs, "/work/aa", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/ab", nil, 0644))

	c := newTestCache(fs, noEnv)
	require.NoError(t, c.Refresh("/work"))

	first, ok := c.Cycle("a", nil, 0)
	require.True(t, ok)
	second, ok := c.Cycle("a", nil, 1)
	require.True(t, ok)
	wrapped, ok := c.Cycle("a", nil, 2)
	require.True(t, ok)

	assert.Equal(t, "aa", first)
	assert.Equal(t, "ab", second)
	assert.Equal(t, first, wrapped)
}

func TestCycleNoMatches(t *testing.T) {
	c := newTestCache(afero.NewMemMapFs(), noEnv)
	_, ok := c.Cycle("nothing", nil, 0)
	assert.False(t, ok)
}
