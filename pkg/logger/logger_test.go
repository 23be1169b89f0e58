package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestFromContextCarriesRequestID(t *testing.T) {
	buf := captureDefault(t)

	ctx := WithRequestID(context.Background(), "mentions/2/41")
	FromContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), `"request_id":"mentions/2/41"`)
}

func TestFromContextWithoutRequestID(t *testing.T) {
	buf := captureDefault(t)

	FromContext(context.Background()).Info("handled")

	assert.NotContains(t, buf.String(), "request_id")
}
