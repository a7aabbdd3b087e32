package tailer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// ErrNoLogFile is returned by Poll when the log directory contains no
// file matching the decoder's naming scheme.
var ErrNoLogFile = errors.New("no log file found")

// datePrefixLen is the length of the date prefix on JTDX log file names
// (e.g. 202504 in 202504_ALL.TXT).
const datePrefixLen = 6

// Tailer owns the read cursor (active file path + byte offset) against a
// JTDX log directory and yields newly appended lines exactly once each.
// It is not safe for concurrent use; each Tailer belongs to the single
// scheduling loop (Poller or Watcher) driving it.
type Tailer struct {
	logDir string
	suffix string
	logger *logrus.Logger

	activeFile string
	offset     int64
}

func New(logDir, suffix string, logger *logrus.Logger) *Tailer {
	return &Tailer{
		logDir: logDir,
		suffix: suffix,
		logger: logger,
	}
}

// ActiveFile returns the path of the file currently being tailed, or ""
// before the first successful discovery.
func (t *Tailer) ActiveFile() string {
	return t.activeFile
}

// Offset returns the current byte offset into the active file.
func (t *Tailer) Offset() int64 {
	return t.offset
}

// Poll returns the lines appended to the active log since the previous
// call.
//
// Discovery picks the greatest-sorting matching file name, which is the
// most recent date. A newly discovered file is adopted with its offset
// set to the file's current size and no content read on this poll; the
// decoder may still be writing its header, so reads are deferred to the
// next call. If the active file shrank below the stored offset it was
// truncated by a decoder restart and the cursor resets to zero.
func (t *Tailer) Poll() ([]string, error) {
	latest, err := t.findLatestLog()
	if err != nil {
		return nil, err
	}

	if latest != t.activeFile {
		info, err := os.Stat(latest)
		if err != nil {
			return nil, fmt.Errorf("stat discovered log: %w", err)
		}
		if t.activeFile == "" {
			t.logger.WithField("file", filepath.Base(latest)).Info("Started monitoring log file")
		} else {
			t.logger.WithField("file", filepath.Base(latest)).Info("Switched to new log file")
		}
		t.activeFile = latest
		t.offset = info.Size()
		return nil, nil
	}

	info, err := os.Stat(t.activeFile)
	if err != nil {
		return nil, fmt.Errorf("stat active log: %w", err)
	}
	size := info.Size()

	if size < t.offset {
		t.logger.WithField("file", filepath.Base(t.activeFile)).Warn("Log file truncated, restarting from the beginning")
		t.offset = 0
	}

	if size == t.offset {
		return nil, nil
	}

	// Read exactly up to the size observed above. The file may keep
	// growing while we read; anything past the captured size belongs to
	// the next poll.
	f, err := os.Open(t.activeFile)
	if err != nil {
		return nil, fmt.Errorf("open active log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek active log: %w", err)
	}

	buf := make([]byte, size-t.offset)
	if _, err := io.ReadFull(f, buf); err != nil {
		// The file shrank again mid-read; leave the cursor alone and let
		// the next poll handle it as a truncation.
		return nil, fmt.Errorf("read active log: %w", err)
	}

	t.offset = size

	var lines []string
	for _, raw := range bytes.Split(buf, []byte("\n")) {
		if !utf8.Valid(raw) {
			t.logger.Warn("Skipping undecodable log line (invalid UTF-8)")
			continue
		}
		line := strings.TrimRight(string(raw), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// findLatestLog returns the path of the greatest-sorting file in the log
// directory whose name is a 6-digit date prefix followed by the suffix.
func (t *Tailer) findLatestLog() (string, error) {
	entries, err := os.ReadDir(t.logDir)
	if err != nil {
		return "", fmt.Errorf("list log directory: %w", err)
	}

	var latest string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !t.matchesNaming(name) {
			continue
		}
		if name > latest {
			latest = name
		}
	}

	if latest == "" {
		return "", ErrNoLogFile
	}
	return filepath.Join(t.logDir, latest), nil
}

func (t *Tailer) matchesNaming(name string) bool {
	if len(name) != datePrefixLen+len(t.suffix) {
		return false
	}
	if !strings.HasSuffix(name, t.suffix) {
		return false
	}
	for _, r := range name[:datePrefixLen] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
