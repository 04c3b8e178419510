// Package logutil wires the process slog logger. Parsing a large
// backup emits one warning per dropped or skipped record, which at
// scale floods the log; the sampling handler keeps a configurable
// percentage per level.
package logutil

import (
	"context"
	"log/slog"
	"maps"
	"math/rand"
	"os"
)

// SamplingHandler forwards a percentage of records per level to the
// wrapped handler. Levels without an entry always pass.
type SamplingHandler struct {
	handler       slog.Handler
	levelPercents map[slog.Level]float64
	minLevel      slog.Level
}

func NewSamplingHandler(handler slog.Handler, levelPercents map[slog.Level]float64, minLevel slog.Level) *SamplingHandler {
	return &SamplingHandler{
		handler:       handler,
		levelPercents: maps.Clone(levelPercents),
		minLevel:      minLevel,
	}
}

func (h *SamplingHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < h.minLevel {
		return false
	}

	percent, ok := h.levelPercents[level]
	if !ok {
		return true
	}
	return rand.Float64()*100 < percent
}

func (h *SamplingHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{
		handler:       h.handler.WithAttrs(attrs),
		levelPercents: h.levelPercents,
		minLevel:      h.minLevel,
	}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{
		handler:       h.handler.WithGroup(name),
		levelPercents: h.levelPercents,
		minLevel:      h.minLevel,
	}
}

// Setup builds the root logger on stderr and installs it as the slog
// default. jsonLogs switches text output to JSON for log shippers.
func Setup(minLevel slog.Level, levelPercents map[slog.Level]float64, jsonLogs bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: minLevel}

	var inner slog.Handler
	if jsonLogs {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(NewSamplingHandler(inner, levelPercents, minLevel))
	slog.SetDefault(logger)
	return logger
}
