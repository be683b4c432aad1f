// Package debuglog records raw AI interactions as JSONL files so the
// prompts and responses behind a run can be inspected after the fact.
package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is one logged AI interaction.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
}

// Interaction logs older than this are dropped when a new logger opens.
const retention = 30 * 24 * time.Hour

// Logger appends interaction entries to a per-run JSONL file.
// A nil Logger discards everything, so callers can thread one through
// unconditionally and only open it when debug logging is on.
type Logger struct {
	path      string
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	closeOnce sync.Once
	closed    bool
}

// Open creates the interaction log for one command run, named
// <command>_<timestamp>_ai.jsonl under dir.
func Open(dir, command string, at time.Time) (*Logger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	_ = CleanupOldLogs(dir, retention)

	path := filepath.Join(dir, command+"_"+at.Format("20060102_150405")+"_ai.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &Logger{path: path, file: file, writer: bufio.NewWriter(file)}, nil
}

// Path returns the log file path, or "" for a nil logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log appends one interaction. Failures are swallowed so logging can
// never break a run.
func (l *Logger) Log(operation, provider, model, prompt, response string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	data, err := json.Marshal(Entry{
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Provider:  provider,
		Model:     model,
		Prompt:    prompt,
		Response:  response,
	})
	if err != nil {
		return
	}
	l.writer.Write(data)
	l.writer.WriteString("\n")
	// Interactions are infrequent; flush each one so a crash loses nothing.
	l.writer.Flush()
}

// Close flushes and closes the log file. Safe to call more than once
// and on a nil logger.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var closeErr error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.file == nil {
			return
		}
		if err := l.writer.Flush(); err != nil {
			closeErr = err
		}
		if err := l.file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		l.closed = true
	})
	return closeErr
}

// Read loads the entries from an interaction log. Malformed lines are
// skipped.
func Read(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	// Prompts carry whole page sections, so allow long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// CleanupOldLogs removes interaction logs older than maxAge from dir.
// Files without the _ai.jsonl suffix are left alone.
func CleanupOldLogs(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_ai.jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
