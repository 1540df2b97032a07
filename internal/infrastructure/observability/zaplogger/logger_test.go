package zaplogger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

func TestLogger_CarriesFixedAndDerivedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core), observability.F("component", "reserve"))

	l.With(observability.F("product_id", int64(1001))).
		Warn("insufficient", observability.F("err", errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "insufficient", entry.Message)
	assert.Equal(t, "reserve", fields["component"])
	assert.Equal(t, int64(1001), fields["product_id"])
	assert.Equal(t, "boom", fields["err"])
}
