// Package logging wraps zerolog behind the teacher's own daemonLogger
// shape (Info/Error/Warn/Debug), so call sites read the same as the
// hand-rolled logger they replace, backed by a rotating file via
// lumberjack instead of ad hoc fmt.Fprintf formatting.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the narrow interface every component logs through.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, err error, kv ...interface{})
}

type zlogger struct {
	l zerolog.Logger
}

// Options configures where and how logs are rotated. Stdio is reserved
// for the JSON-RPC wire protocol, so the daemon never logs there.
type Options struct {
	Path       string // empty disables file rotation, logs to stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zerolog.Level
}

// New builds a Logger writing to a rotating file (or stderr, if Path is
// empty), in the teacher's own "daemon must never write to stdout"
// convention carried forward from its Unix-socket daemon.
func New(opts Options) Logger {
	var w io.Writer = os.Stderr
	if opts.Path != "" {
		w = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    firstNonZero(opts.MaxSizeMB, 50),
			MaxBackups: firstNonZero(opts.MaxBackups, 5),
			MaxAge:     firstNonZero(opts.MaxAgeDays, 28),
			Compress:   true,
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	base := zerolog.New(w).With().Timestamp().Logger().Level(opts.Level)
	return &zlogger{l: base}
}

func firstNonZero(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func withKV(ev *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	return ev
}

func (z *zlogger) Debug(msg string, kv ...interface{}) {
	withKV(z.l.Debug(), kv).Msg(msg)
}

func (z *zlogger) Info(msg string, kv ...interface{}) {
	withKV(z.l.Info(), kv).Msg(msg)
}

func (z *zlogger) Warn(msg string, kv ...interface{}) {
	withKV(z.l.Warn(), kv).Msg(msg)
}

func (z *zlogger) Error(msg string, err error, kv ...interface{}) {
	withKV(z.l.Error().Err(err), kv).Msg(msg)
}

// Nop is a Logger that discards everything, used in tests.
var Nop Logger = &zlogger{l: zerolog.Nop()}
