package schema

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log is the durable record of registry entries.
type Log interface {
	// Rewrite replaces the log with entries.
	Rewrite(entries []Entry) error
	// Append adds a single entry.
	Append(e Entry) error
}

// FormatLine renders an entry as "category,column:name | tip".
func FormatLine(e Entry) string {
	return fmt.Sprintf("%s,%s:%s | %s", e.Category, e.Column, e.Name, e.Tip)
}

// ParseLine is the inverse of FormatLine. The category ends at the first
// comma and the column at the last colon before the tip separator.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	left, tip, ok := strings.Cut(line, " | ")
	if !ok {
		return Entry{}, fmt.Errorf("missing tip separator: %q", line)
	}
	cat, rest, ok := strings.Cut(left, ",")
	if !ok {
		return Entry{}, fmt.Errorf("missing category separator: %q", line)
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return Entry{}, fmt.Errorf("missing name separator: %q", line)
	}
	return Entry{
		Key:  Key{Category: cat, Column: rest[:i]},
		Name: rest[i+1:],
		Tip:  tip,
	}, nil
}

// FileLog is a line-oriented schema log on disk.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog returns a log writing to path. Parent directories are created
// on first write.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the log location.
func (l *FileLog) Path() string { return l.path }

// Load reads the entries currently on disk.
func (l *FileLog) Load(_ context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ReadLog(l.path)
}

// Rewrite replaces the file atomically via a temp file and rename.
func (l *FileLog) Rewrite(entries []Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".schema-*.tmp")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		w.WriteString(FormatLine(e))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}

// Append writes one line with a single write call.
func (l *FileLog) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(FormatLine(e) + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadLog parses a schema log. A missing file yields no entries and no error.
// Later lines for the same key win, matching append semantics.
func ReadLog(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		e, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// MultiLog fans writes out to several logs and joins their errors.
type MultiLog []Log

func (m MultiLog) Rewrite(entries []Entry) error {
	var errs []error
	for _, l := range m {
		errs = append(errs, l.Rewrite(entries))
	}
	return errors.Join(errs...)
}

func (m MultiLog) Append(e Entry) error {
	var errs []error
	for _, l := range m {
		errs = append(errs, l.Append(e))
	}
	return errors.Join(errs...)
}
