package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "staybook/internal/app/outbox"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the draining side of the outbox store.
type Queue interface {
	Next(ctx context.Context) (appoutbox.EventRecord, bool)
	Requeue(record appoutbox.EventRecord)
}

// Worker polls the outbox queue and publishes pending records as
// CloudEvents envelopes. Failed publishes are requeued; consecutive
// failures back off through the Backoff schedule before retrying.
type Worker struct {
	Queue       Queue
	Producer    Producer
	Interval    time.Duration
	Backoff     []time.Duration
	TopicPrefix string
	Source      string
	Logger      *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	failures := 0
	timer := time.NewTimer(w.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if w.processOnce(ctx) {
				failures = 0
				timer.Reset(w.interval())
			} else {
				timer.Reset(w.backoff(failures))
				failures++
			}
		}
	}
}

// processOnce drains the queue and reports whether it got through
// without a publish failure.
func (w *Worker) processOnce(ctx context.Context) bool {
	for {
		rec, ok := w.Queue.Next(ctx)
		if !ok {
			return true
		}
		payload, headers, err := w.formatPayload(rec)
		if err != nil {
			w.log().Warn("outbox record dropped, malformed payload", "event_id", rec.ID, "error", err)
			continue
		}
		if err := w.Producer.Publish(ctx, w.topicFor(rec.Name), rec.Aggregate, payload, headers); err != nil {
			w.log().Warn("outbox publish failed, requeueing", "event_id", rec.ID, "error", err)
			w.Queue.Requeue(rec)
			return false
		}
	}
}

func (w *Worker) backoff(failures int) time.Duration {
	if len(w.Backoff) == 0 {
		return w.interval()
	}
	if failures >= len(w.Backoff) {
		failures = len(w.Backoff) - 1
	}
	return w.Backoff[failures]
}

func (w *Worker) formatPayload(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://staybook"
}

func (w *Worker) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
