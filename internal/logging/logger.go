// Package logging provides leveled logging and tick tracing for spiknet.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A TickLogger for structured JSONL per-tick traces (<out>/ticks.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for full content logging.
// At this level per-tick progress is logged on stderr as well.
const LevelTrace = slog.LevelDebug - 4

// TickFile is the name of the JSONL trace written by TickLogger.
const TickFile = "ticks.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// TickEvent is one line of the tick trace.
type TickEvent struct {
	Tick          int     `json:"tick"`
	FiringSet     int     `json:"firing_set"`
	Pending       int     `json:"pending"`
	MeanPotential float64 `json:"mean_potential"`
}

// TickLogger writes TickEvents to a JSONL file.
// It is safe for concurrent use. A nil TickLogger is safe to use;
// all methods are no-ops on nil receiver.
type TickLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewTickLogger creates a tick logger writing to dir/ticks.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" or "trace" level, the file is truncated and opened.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewTickLogger(dir string, level string) *TickLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, TickFile)
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &TickLogger{file: f}
}

// Log writes a tick event as a single JSONL line with a "time" field.
// Safe to call on nil receiver.
func (tl *TickLogger) Log(ev TickEvent) {
	if tl == nil {
		return
	}

	entry := struct {
		TickEvent
		Time string `json:"time"`
	}{ev, time.Now().UTC().Format(time.RFC3339Nano)}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return
	}
	_, _ = tl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (tl *TickLogger) Close() {
	if tl == nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return
	}
	tl.file.Close()
	tl.file = nil
}
