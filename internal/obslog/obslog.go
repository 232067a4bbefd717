// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package obslog is this module's structured logger. The teacher
// imports a bespoke "github.com/probeum/go-probeum/log" package
// (log.Warn("msg", "key", val)) which was not retrieved into this
// pack, so this wraps the standard library's log/slog behind the same
// message-plus-key/value call shape rather than inventing a
// third-party dependency no example actually shows.
package obslog

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the structured logger used by this module's ambient code
// paths (invocation setup and completion in invoke).
type Logger struct {
	inner *slog.Logger
}

// root is the process-wide default, writing text-formatted records to
// stderr at Info level — matching the teacher's default CLI logging
// verbosity.
var root = New(os.Stderr, slog.LevelInfo)

// New builds a Logger writing text-formatted records to w at the
// given minimum level.
func New(w *os.File, level slog.Level) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(h)}
}

// SetLevel adjusts the root logger's minimum level (used by
// cmd/pvmrun when the PVMRUN_DEBUG environment variable is set).
func SetLevel(level slog.Level) {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	root.inner = slog.New(h)
}

func Debug(msg string, kv ...any) { root.inner.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { root.inner.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { root.inner.Warn(msg, kv...) }
func Error(msg string, kv ...any) { root.inner.Error(msg, kv...) }

// With returns a Logger that attaches kv to every subsequent record,
// for per-invocation context (image hash, gas limit).
func With(kv ...any) *Logger {
	return &Logger{inner: root.inner.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.inner.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }

// Ctx attaches the logger to a context, following the slog convention
// for request/invocation-scoped loggers.
func Ctx(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

type ctxKey struct{}

// FromCtx retrieves a logger attached by Ctx, or the package root if
// none was attached.
func FromCtx(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{inner: root.inner}
}
