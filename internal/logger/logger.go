// Package logger configures the process-wide slog logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Options selects level, format and destination of diagnostic logs.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
	// SeqURL, when set, also ships records to a Seq server.
	SeqURL string
}

// New builds a logger from opt without installing it. The returned close
// function flushes any remote sink and is never nil.
func New(opt Options) (*slog.Logger, func(), error) {
	level, err := parseLevel(opt.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	w := opt.Output
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			return a
		},
	}
	var h slog.Handler
	switch strings.ToLower(opt.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, hopts)
	case "json":
		h = slog.NewJSONHandler(w, hopts)
	default:
		return nil, nil, fmt.Errorf("invalid log format: %s", opt.Format)
	}

	closeFn := func() {}
	if opt.SeqURL != "" {
		_, seq := slogseq.NewLogger(
			opt.SeqURL,
			slogseq.WithBatchSize(50),
			slogseq.WithFlushInterval(500*time.Millisecond),
			slogseq.WithHandlerOptions(&slog.HandlerOptions{Level: level}),
		)
		if seq != nil {
			h = &multiHandler{handlers: []slog.Handler{h, seq}}
			closeFn = func() { seq.Close() }
		}
	}
	return slog.New(h), closeFn, nil
}

// Setup builds a logger from opt and installs it as slog's default.
func Setup(opt Options) (*slog.Logger, func(), error) {
	l, closeFn, err := New(opt)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(l)
	l.Debug("logger initialized", "level", opt.Level, "format", opt.Format, "seq", opt.SeqURL != "")
	return l, closeFn, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

type contextKey struct{}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
