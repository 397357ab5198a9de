package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowell/pkg/requestcontext"
)

func TestEmitStampsRequestMetadata(t *testing.T) {
	sink := NewMemorySink()
	p := NewPublisher(sink)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithCaller(ctx, "lead@example.org")
	ctx = requestcontext.WithRequestID(ctx, "req-9")

	p.Emit(ctx, Event{Type: EventSheetAdvanced, SheetID: 7, From: "Printed", To: "Signing"})

	events := sink.Events()
	require.Len(t, events, 1)
	got := events[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "lead@example.org", got.Actor)
	assert.Equal(t, "req-9", got.RequestID)
	assert.Equal(t, "sheet-7", got.Key())
}

func TestEmitFailureIsLoggedAndCounted(t *testing.T) {
	sink := NewMemorySink()
	sink.FailWith(errors.New("broker down"))

	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := NewPublisher(sink,
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithMetrics(metrics),
	)

	p.Emit(context.Background(), Event{Type: EventBatchShipped, BatchID: 3})

	assert.Contains(t, buf.String(), "audit event delivery failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Failures.WithLabelValues(string(EventBatchShipped))))
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.Emit(context.Background(), Event{Type: EventBatchCreated})
	})
}

func TestEventKeyPrefersBatch(t *testing.T) {
	assert.Equal(t, "batch-2", Event{BatchID: 2, SheetID: 9}.Key())
	assert.Equal(t, string(EventLookupRefreshed), Event{Type: EventLookupRefreshed}.Key())
}

func TestLogSinkWrites(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, sink.Write(context.Background(), Event{Type: EventSheetClosed, SheetID: 4}))
	assert.Contains(t, buf.String(), "event=sheet_closed")
	assert.Contains(t, buf.String(), "sheet_id=4")
}
