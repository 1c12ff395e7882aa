// Package output provides logging and terminal styling for gitx commands.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures a Splog.
type LogOptions struct {
	// Writer receives user-facing messages. Defaults to stdout.
	Writer io.Writer
	// DebugWriter receives debug records when Debug is set. Defaults to stderr.
	DebugWriter io.Writer
	Debug       bool
	NoColor     bool
	// FilePath enables a rotating log file when non-empty.
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// simpleHandler writes messages without timestamps or level prefixes
type simpleHandler struct {
	writer io.Writer
	quiet  *bool
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *simpleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *simpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *simpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// debugOnlyHandler forwards only debug records to the wrapped handler.
type debugOnlyHandler struct {
	slog.Handler
}

func (h debugOnlyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level < slog.LevelInfo && h.Handler.Enabled(ctx, level)
}

func (h debugOnlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return debugOnlyHandler{h.Handler.WithAttrs(attrs)}
}

func (h debugOnlyHandler) WithGroup(name string) slog.Handler {
	return debugOnlyHandler{h.Handler.WithGroup(name)}
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// Splog provides structured logging and output
type Splog struct {
	logger    *slog.Logger
	writer    io.Writer
	logWriter io.WriteCloser
	quiet     bool
}

// NewSplog creates a console-only splog writing to stdout
func NewSplog() *Splog {
	splog, _ := NewSplogWithOptions(LogOptions{})
	return splog
}

// NewSplogWithOptions creates a splog with optional debug stream and log file
func NewSplogWithOptions(opts LogOptions) (*Splog, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	splog := &Splog{writer: writer}

	handlers := []slog.Handler{&simpleHandler{writer: writer, quiet: &splog.quiet}}

	if opts.Debug {
		debugWriter := opts.DebugWriter
		if debugWriter == nil {
			debugWriter = os.Stderr
		}
		handlers = append(handlers, debugOnlyHandler{tint.NewHandler(debugWriter, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05.000",
			NoColor:    opts.NoColor,
		})})
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotator := newLumberjackLogger(opts)
		splog.logWriter = rotator

		handlers = append(handlers, slog.NewTextHandler(rotator, &slog.HandlerOptions{
			Level: slog.LevelDebug, // Always log everything to file
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		}))
	}

	splog.logger = slog.New(&multiHandler{handlers: handlers})
	return splog, nil
}

func newLumberjackLogger(opts LogOptions) *lumberjack.Logger {
	logger := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
		Compress:   false,
	}
	if opts.MaxSize > 0 {
		logger.MaxSize = opts.MaxSize
	}
	if opts.MaxBackups > 0 {
		logger.MaxBackups = opts.MaxBackups
	}
	if opts.MaxAge > 0 {
		logger.MaxAge = opts.MaxAge
	}
	return logger
}

// Logger exposes the underlying slog logger for structured records.
func (s *Splog) Logger() *slog.Logger {
	return s.logger
}

// SetQuiet suppresses console output while keeping file and debug logging.
func (s *Splog) SetQuiet(quiet bool) {
	s.quiet = quiet
}

func (s *Splog) log(level slog.Level, prefix, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	s.logger.Log(context.Background(), level, prefix+msg)
}

// Info writes an info message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Info(format string, args ...any) {
	s.log(slog.LevelInfo, "", format, args...)
}

// Warn writes a warning message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Warn(format string, args ...any) {
	s.log(slog.LevelWarn, "⚠️  ", format, args...)
}

// Error writes an error message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Error(format string, args ...any) {
	s.log(slog.LevelError, "❌ ", format, args...)
}

// Debug writes a debug message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Debug(format string, args ...any) {
	s.log(slog.LevelDebug, "", format, args...)
}

// Tip writes a tip message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Tip(format string, args ...any) {
	s.log(slog.LevelInfo, "💡 ", format, args...)
}

// Page writes raw output without a trailing newline
func (s *Splog) Page(content string) {
	if s.quiet {
		return
	}
	_, _ = fmt.Fprint(s.writer, content)
}

// Newline writes a newline
func (s *Splog) Newline() {
	if s.quiet {
		return
	}
	_, _ = fmt.Fprintln(s.writer)
}

// Close closes the log file if one was opened
func (s *Splog) Close() error {
	if s.logWriter != nil {
		return s.logWriter.Close()
	}
	return nil
}
