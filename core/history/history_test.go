package history

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFileIsEmptyHistory(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/home/u/.rsh_history")

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendThenLoad(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/home/u/.rsh_history")
	at := time.Date(2023, 4, 5, 12, 30, 0, 0, time.UTC)

	require.NoError(t, store.Append("ls -la", at))
	require.NoError(t, store.Append("cd /tmp", at.Add(time.Minute)))

	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Command: "ls -la", Time: "2023-04-05 12:30:00"}, entries[0])
	assert.Equal(t, Entry{Command: "cd /tmp", Time: "2023-04-05 12:31:00"}, entries[1])
}

func TestCommandsKeepsSubmissionOrder(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/hist")
	now := time.Now()

	for _, cmd := range []string{"first", "second", "third"} {
		require.NoError(t, store.Append(cmd, now))
	}

	commands, err := store.Commands()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, commands)
}

func TestDamagedRowsAreSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := "ls,2023-04-05 12:30:00\nnot-a-valid-row\npwd,2023-04-05 12:31:00\n"
	require.NoError(t, afero.WriteFile(fs, "/hist", []byte(raw), 0600))

	store := NewStore(fs, "/hist")
	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ls", entries[0].Command)
	assert.Equal(t, "pwd", entries[1].Command)
}

func TestCommandsWithCommasSurviveRoundTrip(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/hist")
	require.NoError(t, store.Append(`echo "a,b,c"`, time.Now()))

	commands, err := store.Commands()
	require.NoError(t, err)
	assert.Equal(t, []string{`echo "a,b,c"`}, commands)
}
