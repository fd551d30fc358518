// Package events publishes scoring notifications on a watermill bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

const (
	TopicRangeCompleted   = "scoring.range_completed"
	TopicSessionCompleted = "scoring.session_completed"

	defaultBuffer = 64
)

// Topics lists every topic the publisher writes to.
var Topics = []string{TopicRangeCompleted, TopicSessionCompleted}

// TopicFor maps a notification kind to its topic.
func TopicFor(kind scoring.EventKind) (string, error) {
	switch kind {
	case scoring.EventRangeCompleted:
		return TopicRangeCompleted, nil
	case scoring.EventSessionCompleted:
		return TopicSessionCompleted, nil
	default:
		return "", fmt.Errorf("unknown notification kind %q", kind)
	}
}

// NewInProcess returns an in-memory pub/sub. Messages published with no
// subscriber are dropped.
func NewInProcess(logger *slog.Logger, buffer int64) *gochannel.GoChannel {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, watermill.NewSlogLogger(logger))
}

// Publisher implements scoring.Notifier. Publish failures are logged and never
// reach the caller.
type Publisher struct {
	pub    message.Publisher
	logger *slog.Logger
}

var _ scoring.Notifier = (*Publisher)(nil)

// NewPublisher wraps a watermill publisher.
func NewPublisher(pub message.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{pub: pub, logger: logger}
}

func (p *Publisher) Notify(ctx context.Context, n scoring.Notification) {
	if p == nil || p.pub == nil {
		return
	}
	topic, err := TopicFor(n.Kind)
	if err != nil {
		logging.Error(ctx, p.logger, "notification not published", err)
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logging.Error(ctx, p.logger, "notification not encoded", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(n.Kind))
	msg.Metadata.Set(logging.FieldRoundID, strconv.Itoa(n.RoundID))
	msg.Metadata.Set(logging.FieldParticipantID, strconv.Itoa(n.ParticipantID))
	msg.SetContext(ctx)

	if err := p.pub.Publish(topic, msg); err != nil {
		logging.Error(ctx, p.logger, "notification publish failed", err, slog.String("topic", topic))
		return
	}
	logging.Info(ctx, p.logger, "notification published",
		slog.String("topic", topic),
		slog.Int(logging.FieldRoundID, n.RoundID),
		slog.Int(logging.FieldParticipantID, n.ParticipantID),
		slog.Int(logging.FieldRangeIndex, n.RangeIndex),
	)
}

// Handler receives decoded notifications from Consume.
type Handler func(ctx context.Context, n scoring.Notification) error

// Consume subscribes to every topic and feeds decoded notifications to handle
// until ctx is done. Malformed payloads are acked and dropped; handler errors nack.
func Consume(ctx context.Context, sub message.Subscriber, logger *slog.Logger, handle Handler) error {
	streams := make([]<-chan *message.Message, 0, len(Topics))
	for _, topic := range Topics {
		ch, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		streams = append(streams, ch)
	}

	done := make(chan struct{}, len(streams))
	for _, ch := range streams {
		go func(ch <-chan *message.Message) {
			defer func() { done <- struct{}{} }()
			for msg := range ch {
				var n scoring.Notification
				if err := json.Unmarshal(msg.Payload, &n); err != nil {
					logging.Warn(ctx, logger, "dropping malformed notification", slog.String("uuid", msg.UUID), slog.Any("error", err))
					msg.Ack()
					continue
				}
				if err := handle(msg.Context(), n); err != nil {
					logging.Warn(ctx, logger, "notification handler failed", slog.String("uuid", msg.UUID), slog.Any("error", err))
					msg.Nack()
					continue
				}
				msg.Ack()
			}
		}(ch)
	}
	for range streams {
		<-done
	}
	return nil
}

// LogHandler logs each notification at info level.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, n scoring.Notification) error {
		logging.Info(ctx, logger, "scoring milestone",
			slog.String("kind", string(n.Kind)),
			slog.Int(logging.FieldRoundID, n.RoundID),
			slog.Int(logging.FieldParticipantID, n.ParticipantID),
			slog.Int(logging.FieldRangeIndex, n.RangeIndex),
			slog.Int("total_score", n.Stats.TotalScore),
		)
		return nil
	}
}
