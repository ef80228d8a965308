package logx

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func init() {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorFieldName = "err"
}

// Field adds one key to an event. Later keys win.
type Field func(e *zerolog.Event)

func String(k, v string) Field         { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field        { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field    { return func(e *zerolog.Event) { e.Int64(k, v) } }
func Uint64(k string, v uint64) Field  { return func(e *zerolog.Event) { e.Uint64(k, v) } }
func Bool(k string, v bool) Field      { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Time(k string, v time.Time) Field { return func(e *zerolog.Event) { e.Time(k, v) } }
func Any(k string, v any) Field        { return func(e *zerolog.Event) { e.Interface(k, v) } }
func Strs(k string, v []string) Field  { return func(e *zerolog.Event) { e.Strs(k, v) } }
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Str(k, v.String()) }
}

func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

// Logger is a value type; copies are cheap and safe to share.
//
// A Logger obtained from a Service follows Service.Apply. The zero value
// discards everything.
type Logger struct {
	src    func() zerolog.Logger
	fields []Field
}

// Nop returns a logger that never writes anything.
func Nop() Logger {
	nop := zerolog.Nop()
	return Logger{src: func() zerolog.Logger { return nop }}
}

// NewConsole is a standalone console logger for use before the Service exists.
func NewConsole(level string) Logger {
	return fixed(zerolog.New(consoleWriter(os.Stdout)), level)
}

// NewWriter writes JSON lines to w. Tests pass a buffer.
func NewWriter(w io.Writer, level string) Logger {
	return fixed(zerolog.New(w), level)
}

func fixed(zl zerolog.Logger, level string) Logger {
	zl = zl.Level(ParseLevel(level, zerolog.InfoLevel)).With().Timestamp().Logger()
	return Logger{src: func() zerolog.Logger { return zl }}
}

func (l Logger) IsZero() bool { return l.src == nil && len(l.fields) == 0 }

func (l Logger) zl() zerolog.Logger {
	if l.src == nil {
		return zerolog.Nop()
	}
	return l.src()
}

// Enabled reports whether an event at level would be written.
func (l Logger) Enabled(level Level) bool {
	return l.src != nil && level >= l.zl().GetLevel()
}

func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	l.fields = append(append([]Field(nil), l.fields...), fields...)
	return l
}

func (l Logger) Debug(msg string, fields ...Field) { l.emit(zerolog.DebugLevel, msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.emit(zerolog.InfoLevel, msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.emit(zerolog.WarnLevel, msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.emit(zerolog.ErrorLevel, msg, fields) }

func (l Logger) emit(level zerolog.Level, msg string, fields []Field) {
	if l.src == nil {
		return
	}
	zl := l.zl()
	e := zl.WithLevel(level)
	if e == nil {
		return
	}
	// skip emit and the level method
	if _, file, line, ok := runtime.Caller(2); ok {
		e.Str(zerolog.CallerFieldName, filepath.Base(file)+":"+strconv.Itoa(line))
	}
	for _, f := range l.fields {
		if f != nil {
			f(e)
		}
	}
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}
	e.Msg(msg)
}
