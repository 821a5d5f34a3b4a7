package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	sent []published
	fail error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func record(id, name, aggregate string) appoutbox.EventRecord {
	return appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"BookingID":"b-1"}`),
		OccurredAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  aggregate,
		Headers:    map[string]string{},
	}
}

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "booking.events.v1", w.topicFor("booking.confirmed"))
	assert.Equal(t, "booking.events.v1", w.topicFor("booking"))

	w.TopicPrefix = "staging."
	assert.Equal(t, "staging.booking.events.v1", w.topicFor("booking.cancelled"))
}

func TestProcessOnce(t *testing.T) {
	t.Run("publishes pending records as cloudevents", func(t *testing.T) {
		queue := memory.NewOutbox()
		require.NoError(t, queue.Add(context.Background(), record("e-1", "booking.requested", "b-1")))
		require.NoError(t, queue.Add(context.Background(), record("e-2", "booking.confirmed", "b-1")))

		producer := &fakeProducer{}
		w := &Worker{Queue: queue, Producer: producer}
		w.processOnce(context.Background())

		require.Len(t, producer.sent, 2)
		assert.Equal(t, 0, queue.Len())
		assert.Equal(t, "booking.events.v1", producer.sent[0].topic)
		assert.Equal(t, "b-1", producer.sent[0].key)
		assert.Equal(t, "application/cloudevents+json", producer.sent[0].headers["content-type"])

		var envelope map[string]any
		require.NoError(t, json.Unmarshal(producer.sent[0].payload, &envelope))
		assert.Equal(t, "1.0", envelope["specversion"])
		assert.Equal(t, "booking.requested.v1", envelope["type"])
		assert.Equal(t, "app://staybook", envelope["source"])
		data, ok := envelope["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "b-1", data["BookingID"])
	})

	t.Run("requeues on publish failure", func(t *testing.T) {
		queue := memory.NewOutbox()
		require.NoError(t, queue.Add(context.Background(), record("e-1", "booking.requested", "b-1")))

		producer := &fakeProducer{fail: errors.New("broker down")}
		w := &Worker{Queue: queue, Producer: producer}
		assert.False(t, w.processOnce(context.Background()))
		assert.Equal(t, 1, queue.Len())

		// broker recovers, next tick drains the record
		producer.fail = nil
		assert.True(t, w.processOnce(context.Background()))
		assert.Equal(t, 0, queue.Len())
		assert.Len(t, producer.sent, 1)
	})

	t.Run("drops malformed payloads", func(t *testing.T) {
		queue := memory.NewOutbox()
		rec := record("e-1", "booking.requested", "b-1")
		rec.Payload = []byte("not json")
		require.NoError(t, queue.Add(context.Background(), rec))

		producer := &fakeProducer{}
		w := &Worker{Queue: queue, Producer: producer}
		w.processOnce(context.Background())

		assert.Empty(t, producer.sent)
		assert.Equal(t, 0, queue.Len())
	})
}

func TestBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second}}
	assert.Equal(t, time.Second, w.backoff(0))
	assert.Equal(t, 5*time.Second, w.backoff(1))
	assert.Equal(t, 5*time.Second, w.backoff(7))

	bare := &Worker{}
	assert.Equal(t, bare.interval(), bare.backoff(3))
}

func TestRunRequiresDependencies(t *testing.T) {
	w := &Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerNotConfigured)
}
