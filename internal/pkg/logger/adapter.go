package logger

import "vault_client/internal/app/port"

// slogAdapter реализует интерфейс port.Logger поверх глобального логгера пакета.
type slogAdapter struct {
	attrs []any
}

// NewSlogAdapter создает новый экземпляр slogAdapter.
func NewSlogAdapter() port.Logger {
	return &slogAdapter{}
}

// With returns an adapter that prepends the given key-value pairs to every record.
func With(l port.Logger, args ...any) port.Logger {
	if a, ok := l.(*slogAdapter); ok {
		return &slogAdapter{attrs: append(append([]any{}, a.attrs...), args...)}
	}
	return l
}

func (a *slogAdapter) merge(args []any) []any {
	if len(a.attrs) == 0 {
		return args
	}
	return append(append([]any{}, a.attrs...), args...)
}

func (a *slogAdapter) Info(msg string, args ...any) {
	Info(msg, a.merge(args)...)
}

func (a *slogAdapter) Debug(msg string, args ...any) {
	Debug(msg, a.merge(args)...)
}

func (a *slogAdapter) Warn(msg string, args ...any) {
	Warn(msg, a.merge(args)...)
}

func (a *slogAdapter) Error(msg string, args ...any) {
	Error(msg, a.merge(args)...)
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() port.Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
