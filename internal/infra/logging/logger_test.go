package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/chirp/internal/domain"
	context_ "github.com/mkrupp/chirp/internal/infra/context"
)

func TestLevelFor(t *testing.T) {
	t.Parallel()

	cfg := LoggerConfig{Filter: "svc:warn, svc.authsvc:debug,broken"}

	tests := []struct {
		name string
		want Level
	}{
		{name: "svc.authsvc", want: LevelDebug},
		{name: "svc.authsvc.http_transport", want: LevelDebug},
		{name: "svc.mediasvc", want: LevelWarn},
		{name: "repo.user", want: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, cfg.levelFor(tt.name, LevelInfo))
		})
	}
}

//nolint:paralleltest
func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer

	Configure(context.Background(), LoggerConfig{
		OutputHandle: &buf,
		Level:        "info",
		Filter:       "test.quiet:error",
	}, "chirp")
	t.Cleanup(func() { configure(LoggerConfig{}, "") })

	ctx := context_.WithTraceID(context.Background(), "trace-1")
	ctx = context_.WithSession(ctx, domain.Session{UserID: 42})

	GetLogger("test.loud").InfoContext(ctx, "hello", "key", "value")
	GetLogger("test.quiet").WarnContext(ctx, "suppressed")
	GetLogger("test.loud").DebugContext(ctx, "below level")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "logger=test.loud")
	assert.Contains(t, out, "app=chirp")
	assert.Contains(t, out, "trace.id=trace-1")
	assert.Contains(t, out, "session.uid=42")
	assert.NotContains(t, out, "suppressed")
	assert.NotContains(t, out, "below level")
}

//nolint:paralleltest
func TestGetLoggerDiscard(t *testing.T) {
	configure(LoggerConfig{Output: "discard"}, "chirp")
	t.Cleanup(func() { configure(LoggerConfig{}, "") })

	assert.False(t, GetLogger("x").Handler().Enabled(context.Background(), LevelError))
}
