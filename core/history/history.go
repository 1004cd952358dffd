// Package history persists submitted command lines to a CSV file, one
// `command,timestamp` row per submission.
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// TimeFormat is the timestamp layout stored next to each command.
const TimeFormat = "2006-01-02 15:04:05"

// Entry is one recorded command submission.
type Entry struct {
	Command string
	Time    string
}

// Store reads and appends history entries. The zero value is not usable;
// construct with NewStore.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns all recorded entries, oldest first. A missing file is an
// empty history, not an error.
func (s *Store) Load() ([]Entry, error) {
	fd, err := s.fs.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer fd.Close()

	reader := csv.NewReader(fd)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var entries []Entry
	for _, record := range records {
		if len(record) != 2 {
			continue // Skip rows damaged by hand edits.
		}
		entries = append(entries, Entry{Command: record[0], Time: record[1]})
	}
	return entries, nil
}

// Commands returns just the command strings, oldest first.
func (s *Store) Commands() ([]string, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Command)
	}
	return out, nil
}

// Append records a submitted command with the given timestamp.
func (s *Store) Append(command string, at time.Time) error {
	fd, err := s.fs.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer fd.Close()

	w := csv.NewWriter(fd)
	if err := w.Write([]string{command, at.Format(TimeFormat)}); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	w.Flush()
	return w.Error()
}
