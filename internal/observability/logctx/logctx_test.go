package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func TestFromOr_FallsBackWhenMissing(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}

	assert.Same(t, fallback, FromOr(context.Background(), fallback))
	assert.NotNil(t, FromOr(context.Background(), nil))
}

func TestEnrich_StoresDerivedLogger(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}

	ctx, logger := Enrich(context.Background(), base, observability.F("request_id", "r-1"))

	stored, ok := From(ctx).(*recordingLogger)
	require.True(t, ok)
	assert.Same(t, logger, stored)
	assert.Equal(t, []observability.Field{{Key: "request_id", Value: "r-1"}}, stored.fields)
}
