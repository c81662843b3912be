package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p, err := newProducer(w, "gzip", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "whispers", []byte("job-1"), map[string]string{"symbol": "ACME"}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "whispers", w.msgs[0].Topic)
	assert.Equal(t, []byte("job-1"), w.msgs[0].Key)
	assert.JSONEq(t, `{"symbol":"ACME"}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
}

func TestPublishRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := &fakeWriter{}
	p, err := newProducer(w, "gzip", reg)
	require.NoError(t, err)

	require.NoError(t, p.PublishBatch(context.Background(), "whispers", []Message{{Value: "a"}, {Value: "b"}}))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("whispers", "gzip", "ok")))

	w.err = errors.New("broker down")
	assert.Error(t, p.Publish(context.Background(), "whispers", nil, "c"))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.errs.WithLabelValues("whispers")))
}
