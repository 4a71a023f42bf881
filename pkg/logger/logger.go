package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger é a interface para logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	// With retorna um Logger que inclui os pares chave/valor em toda mensagem
	With(keysAndValues ...interface{}) Logger
}

// Options configura o logger padrão
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// SimpleLogger é a implementação de Logger sobre log/slog
type SimpleLogger struct {
	l *slog.Logger
}

// NewLogger cria uma nova instância de Logger usando LOG_LEVEL e LOG_FORMAT do ambiente
func NewLogger() Logger {
	return New(Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// New cria um Logger com as opções informadas
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return &SimpleLogger{l: slog.New(handler)}
}

// NewNop cria um Logger que descarta todas as mensagens
func NewNop() Logger {
	return &SimpleLogger{l: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// ParseLevel converte o nome do nível; valores desconhecidos viram info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Info registra uma mensagem de informação
func (l *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

// Error registra uma mensagem de erro
func (l *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

// Debug registra uma mensagem de debug
func (l *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

// Warn registra uma mensagem de aviso
func (l *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

// With retorna um novo Logger com campos fixos
func (l *SimpleLogger) With(keysAndValues ...interface{}) Logger {
	return &SimpleLogger{l: l.l.With(keysAndValues...)}
}
