// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package logx provides the silent slog logger every component falls back
// to when it is given none.
package logx

import (
	"context"
	"log/slog"
)

// nopHandler drops every record. Enabled reports false, so slog never
// builds the record in the first place.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Nop returns a logger that discards everything.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// OrNop returns l, or a Nop logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
