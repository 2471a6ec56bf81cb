package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestLogger struct {
	infos []string
	warns []string
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) { l.infos = append(l.infos, msg) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{}) { l.warns = append(l.warns, msg) }

func TestNew_TracingDisabledWithoutEndpoint(t *testing.T) {
	log := &TestLogger{}
	obs := New(Options{ServiceName: "test-agent"}, log)
	require.NotNil(t, obs)
	defer obs.Shutdown(context.Background())

	assert.Nil(t, obs.tracing.provider)
	assert.Contains(t, log.infos, "tracing disabled (observability.otlp_endpoint not set)")

	ctx := context.Background()
	assert.NotPanics(t, func() {
		obs.RecordStage(ctx, "classify", 120*time.Millisecond, "ok")
		obs.RecordRecords(ctx, "deals", "live", 12)
	})

	_, span := Tracer().Start(ctx, "noop")
	span.End()
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordStage(ctx, "synthesize", time.Second, "error")
		obs.RecordRecords(ctx, "work_orders", "fallback", 3)
		obs.Shutdown(ctx)
	})
}
