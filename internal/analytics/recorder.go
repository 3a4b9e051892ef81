package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/kafka"
	"github.com/coralcms/sitesearch/pkg/metrics"
)

// Recorder accepts search events on a bounded buffer and persists them in
// the background. TrackSearch never blocks and never returns an error:
// when the buffer is full the event is dropped and counted, and a storage
// failure is logged, not propagated to the searcher.
type Recorder struct {
	store    EventStore
	producer *kafka.Producer
	cfg      config.AnalyticsConfig
	metrics  *metrics.Metrics
	eventCh  chan Event
	done     chan struct{}
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecorder creates a Recorder. The Kafka producer is optional; when
// present each event is also fanned out to the analytics topic for
// external consumers.
func NewRecorder(store EventStore, producer *kafka.Producer, cfg config.AnalyticsConfig, m *metrics.Metrics) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	return &Recorder{
		store:    store,
		producer: producer,
		cfg:      cfg,
		metrics:  m,
		eventCh:  make(chan Event, cfg.BufferSize),
		done:     make(chan struct{}),
		logger:   slog.Default().With("component", "analytics-recorder"),
		now:      time.Now,
	}
}

// Start launches the background writer. It drains remaining buffered
// events when ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case event, ok := <-r.eventCh:
				if !ok {
					return
				}
				r.persist(ctx, event)
			case <-ctx.Done():
				r.drainRemaining()
				return
			}
		}
	}()
	r.logger.Info("analytics recorder started", "buffer_size", cap(r.eventCh))
}

// TrackSearch enqueues one executed search for persistence.
func (r *Recorder) TrackSearch(query string, resultCount int, meta RequestMeta) {
	event := Event{
		ID:          uuid.NewString(),
		Query:       query,
		ResultCount: resultCount,
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
		OccurredAt:  r.now().UTC(),
	}
	select {
	case r.eventCh <- event:
		if r.metrics != nil {
			r.metrics.AnalyticsEventsTotal.Inc()
		}
	default:
		if r.metrics != nil {
			r.metrics.AnalyticsDroppedTotal.Inc()
		}
		r.logger.Warn("analytics event dropped (buffer full)", "query", query)
	}
}

// Close stops accepting events and waits for the writer to finish.
func (r *Recorder) Close() {
	close(r.eventCh)
	<-r.done
}

func (r *Recorder) persist(ctx context.Context, event Event) {
	if err := r.store.Insert(ctx, event); err != nil {
		r.logger.Error("failed to persist analytics event",
			"query", event.Query,
			"error", err,
		)
	}
	if r.producer != nil {
		if err := r.producer.Publish(ctx, kafka.Event{Key: event.Query, Value: event}); err != nil {
			r.logger.Error("failed to publish analytics event", "error", err)
		}
	}
}

func (r *Recorder) drainRemaining() {
	ctx := context.Background()
	for {
		select {
		case event, ok := <-r.eventCh:
			if !ok {
				return
			}
			r.persist(ctx, event)
		default:
			return
		}
	}
}
