package logutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fireback-io/fireback/pkg/logutil"
)

func newBufLogger(percents map[slog.Level]float64, min slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(logutil.NewSamplingHandler(inner, percents, min)), &buf
}

func TestMinLevelSuppressesBelow(t *testing.T) {
	logger, buf := newBufLogger(nil, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestZeroPercentDropsEverything(t *testing.T) {
	logger, buf := newBufLogger(map[slog.Level]float64{slog.LevelWarn: 0}, slog.LevelDebug)

	for i := 0; i < 200; i++ {
		logger.Warn("sampled out")
	}

	assert.Empty(t, buf.String())
}

func TestHundredPercentKeepsEverything(t *testing.T) {
	logger, buf := newBufLogger(map[slog.Level]float64{slog.LevelWarn: 100}, slog.LevelDebug)

	for i := 0; i < 50; i++ {
		logger.Warn("sampled in")
	}

	assert.Equal(t, 50, strings.Count(buf.String(), "sampled in"))
}

func TestUnlistedLevelAlwaysPasses(t *testing.T) {
	logger, buf := newBufLogger(map[slog.Level]float64{slog.LevelWarn: 0}, slog.LevelDebug)

	logger.Error("must appear")

	assert.Contains(t, buf.String(), "must appear")
}

func TestWithAttrsPreservesSampling(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := logutil.NewSamplingHandler(inner, map[slog.Level]float64{slog.LevelWarn: 0}, slog.LevelInfo)

	child := h.WithAttrs([]slog.Attr{slog.String("component", "parser")})
	assert.False(t, child.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, child.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, child.Enabled(context.Background(), slog.LevelError))
}
