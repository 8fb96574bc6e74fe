// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr. Format "text"
// and "json" force a handler; "auto" (or empty) uses slog.TextHandler
// when stderr is a terminal and slog.JSONHandler when it is piped or
// redirected, so scripts get machine-parseable output.
func NewCommandLogger(level slog.Level, format string) *slog.Logger {
	useText := format == "text"
	if format == "" || format == "auto" {
		useText = term.IsTerminal(int(os.Stderr.Fd()))
	}
	return newLogger(os.Stderr, level, useText)
}

func newLogger(w io.Writer, level slog.Level, text bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
