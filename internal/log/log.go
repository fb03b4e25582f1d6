package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// LevelTrace sits below slog's debug level.
const LevelTrace = slog.LevelDebug - 4

type Options struct {
	Level  string // trace, debug, info, warn, error, none
	File   string // empty logs to stderr
	Format string // json (default) or text
}

// ParseLevel maps a level name to a slog level. ok is false for "none" and
// unknown names, which disable logging.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelError, false
	}
}

// New builds a logger from opts. The returned closer releases the log file,
// if one was opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, enabled := ParseLevel(opts.Level)
	if !enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}, nil
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		fw, err := openFileWriter(opts.File)
		if err != nil {
			return nil, nil, err
		}
		fw.reopenOnHangup()
		out = fw
		closer = fw
	}

	handlerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}
	if strings.EqualFold(opts.Format, "text") {
		return slog.New(slog.NewTextHandler(out, handlerOptions)), closer, nil
	}
	return slog.New(slog.NewJSONHandler(out, handlerOptions)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fileWriter appends to a log file that can be reopened after rotation.
type fileWriter struct {
	path string
	mu   sync.Mutex
	fh   *os.File
	sigs chan os.Signal
}

func openFileWriter(path string) (*fileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return &fileWriter{path: path, fh: fh}, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fh.Write(p)
}

func (w *fileWriter) reopen() error {
	fh, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not reopen log file: %w", err)
	}
	w.mu.Lock()
	old := w.fh
	w.fh = fh
	w.mu.Unlock()
	return old.Close()
}

/*
 * when logging to a file listen for SIGHUP on log file rotation
 * mv brewin.log brewin.bak && kill -HUP <pid>
 */
func (w *fileWriter) reopenOnHangup() {
	w.sigs = make(chan os.Signal, 1)
	signal.Notify(w.sigs, syscall.SIGHUP)
	go func() {
		for range w.sigs {
			if err := w.reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
		}
	}()
}

func (w *fileWriter) Close() error {
	if w.sigs != nil {
		signal.Stop(w.sigs)
		close(w.sigs)
		w.sigs = nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fh.Close()
}
