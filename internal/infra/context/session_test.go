package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/chirp/internal/domain"
	context_ "github.com/mkrupp/chirp/internal/infra/context"
)

func TestSessionFromContext(t *testing.T) {
	t.Parallel()

	_, ok := context_.SessionFromContext(context.Background())
	assert.False(t, ok)

	want := domain.Session{UserID: 7, Username: "alice"}
	got, ok := context_.SessionFromContext(context_.WithSession(context.Background(), want))
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTraceIDFromContext(t *testing.T) {
	t.Parallel()

	_, ok := context_.TraceIDFromContext(context_.WithTraceID(context.Background(), ""))
	assert.False(t, ok, "empty trace id is treated as absent")

	id, ok := context_.TraceIDFromContext(context_.WithTraceID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
