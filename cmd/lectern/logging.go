// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// parseLevel maps a level name to slog.Level, case-insensitively.
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", name)
	}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level <= slog.LevelInfo:
		return zapcore.InfoLevel
	case level <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// newLogger builds the process logger. The text format writes slog's text
// handler to stderr; the json format routes slog through a zap production core.
// The returned func flushes buffered output.
func newLogger(levelName, format string) (*slog.Logger, func(), error) {
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(format) {
	case "", "text":
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(handler), func() {}, nil
	case "json":
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
		zl, err := cfg.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build zap logger: %w", err)
		}
		handler := zapslog.NewHandler(zl.Core())
		return slog.New(handler), func() { _ = zl.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("invalid log format %q: must be text or json", format)
	}
}
