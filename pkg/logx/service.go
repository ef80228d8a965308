package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	kit "antrianbot/internal/transport"
)

type Config struct {
	Level    string
	Console  bool
	File     FileConfig
	Telegram TelegramConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// TelegramConfig forwards events at or above MinLevel to ChatID.
type TelegramConfig struct {
	Enabled    bool
	ChatID     int64
	MinLevel   string
	RatePerSec int
}

const defaultLogFile = "./antrianbot.log"

// Service owns the log sinks. Apply swaps them at runtime; loggers handed out
// earlier pick up the change on their next event.
type Service struct {
	root atomic.Pointer[zerolog.Logger]

	mu   sync.Mutex
	file *os.File
	tg   *telegramSink // nil when sender is nil
}

// New builds the service, applies cfg and returns the root Logger.
// sender may be nil, which disables the Telegram sink.
func New(cfg Config, sender kit.Adapter) (*Service, Logger) {
	s := &Service{}
	if sender != nil {
		s.tg = newTelegramSink(sender)
	}
	s.Apply(cfg)
	return s, s.Logger()
}

func (s *Service) Logger() Logger {
	return Logger{src: func() zerolog.Logger { return *s.root.Load() }}
}

// Apply rebuilds the writer set. A file that cannot be opened is reported on
// stderr and skipped; console output is used when nothing else is enabled.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, consoleWriter(os.Stdout))
	}

	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	if cfg.File.Enabled {
		path := strings.TrimSpace(cfg.File.Path)
		if path == "" {
			path = defaultLogFile
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logx: cannot open log file %q: %v\n", path, err)
		} else {
			s.file = f
			writers = append(writers, zerolog.SyncWriter(f))
		}
	}

	if s.tg != nil {
		s.tg.configure(cfg.Telegram)
		if cfg.Telegram.Enabled {
			if cfg.Telegram.ChatID == 0 {
				fmt.Fprintln(os.Stderr, "logx: telegram logging enabled but admin chat id is not set")
			}
			writers = append(writers, s.tg)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, consoleWriter(os.Stdout))
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level, zerolog.InfoLevel)).
		With().Timestamp().Logger()
	s.root.Store(&zl)
}

// Close flushes the Telegram sink and closes the log file.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tg != nil {
		s.tg.close()
	}
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		FormatCaller: func(i any) string {
			s, _ := i.(string)
			return s
		},
	}
}
