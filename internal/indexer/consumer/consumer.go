// Package consumer reads content change events from Kafka and drives the
// single-item index operations. A corrupt event is logged and dropped so
// one bad message never wedges the topic.
package consumer

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/internal/indexer"
	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/kafka"
)

// Rebuilder is notified after a qualifying content save so the suggestion
// snapshot can refresh eagerly. May be nil.
type Rebuilder interface {
	RebuildOnSave(ctx context.Context)
}

// ContentConsumer subscribes to the content-changed and content-deleted
// topics and keeps the index in step with the CMS.
type ContentConsumer struct {
	changed *kafka.Consumer
	deleted *kafka.Consumer
	logger  *slog.Logger
}

// New wires both topic consumers against the given indexer.
func New(cfg ConsumerConfig, ix *indexer.Indexer, rebuilder Rebuilder) *ContentConsumer {
	return &ContentConsumer{
		changed: kafka.NewConsumer(cfg.Kafka, cfg.ChangedTopic, handleChanged(ix, rebuilder)),
		deleted: kafka.NewConsumer(cfg.Kafka, cfg.DeletedTopic, handleDeleted(ix)),
		logger:  slog.Default().With("component", "content-consumer"),
	}
}

// ConsumerConfig names the topics the consumer subscribes to.
type ConsumerConfig struct {
	Kafka        config.KafkaConfig
	ChangedTopic string
	DeletedTopic string
}

// Start runs both consume loops until ctx is cancelled.
func (cc *ContentConsumer) Start(ctx context.Context) error {
	cc.logger.Info("content consumer starting")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cc.changed.Start(ctx) })
	g.Go(func() error { return cc.deleted.Start(ctx) })
	return g.Wait()
}

// Close closes both underlying Kafka readers.
func (cc *ContentConsumer) Close() error {
	err := cc.changed.Close()
	if derr := cc.deleted.Close(); err == nil {
		err = derr
	}
	return err
}

// handleChanged returns a MessageHandler that re-indexes the changed item
// and nudges the suggestion rebuilder.
func handleChanged(ix *indexer.Indexer, rebuilder Rebuilder) kafka.MessageHandler {
	logger := slog.Default().With("component", "content-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[content.ChangedEvent](value)
		if err != nil {
			logger.Error("failed to decode content-changed event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if err := ix.IndexOne(ctx, event.ContentID); err != nil {
			return err
		}
		if rebuilder != nil {
			rebuilder.RebuildOnSave(ctx)
		}
		return nil
	}
}

// handleDeleted returns a MessageHandler that removes the deleted item.
func handleDeleted(ix *indexer.Indexer) kafka.MessageHandler {
	logger := slog.Default().With("component", "content-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[content.DeletedEvent](value)
		if err != nil {
			logger.Error("failed to decode content-deleted event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		return ix.RemoveOne(ctx, event.ContentID)
	}
}
