package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/observability"
)

const (
	progressFeedBufferSize = 16
	redisRetryMin          = 500 * time.Millisecond
	redisRetryMax          = 30 * time.Second
)

// ProgressFeed streams progress changes to connected admin dashboards.
type ProgressFeed interface {
	Publish(ctx context.Context, userID uint) (dto.ProgressEvent, error)
	// PublishRecompute announces a change that moves every user's progress,
	// such as a document or quiz kind being added or removed.
	PublishRecompute(ctx context.Context, reason string) dto.ProgressEvent
	Subscribe() (<-chan dto.ProgressEvent, func())
	Start(ctx context.Context)
}

type progressFeed struct {
	progress    ProgressService
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *progressBroker
	nodeID      string
	now         func() time.Time
	retryMin    time.Duration
	retryMax    time.Duration
}

type progressFeedEnvelope struct {
	Source string            `json:"source"`
	Event  dto.ProgressEvent `json:"event"`
}

type progressBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.ProgressEvent]struct{}
}

// NewProgressFeed constructs the feed. Redis and NATS are optional fan-out
// transports; when both are given only NATS carries feed events.
func NewProgressFeed(progress ProgressService, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ProgressFeed {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":progress"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".progress"
	}
	if natsConn != nil && subject != "" {
		redisClient = nil
	}

	return &progressFeed{
		progress:    progress,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "progress_feed").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/induction-api/internal/service/progress_feed"),
		broker:      &progressBroker{subscribers: make(map[chan dto.ProgressEvent]struct{})},
		nodeID:      uuid.NewString(),
		now:         time.Now,
		retryMin:    redisRetryMin,
		retryMax:    redisRetryMax,
	}
}

func (f *progressFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisStream != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		go f.consumeNATS(ctx)
	}
}

// Publish recomputes the user's progress and fans the result out.
func (f *progressFeed) Publish(ctx context.Context, userID uint) (dto.ProgressEvent, error) {
	ctx, span := f.tracer.Start(ctx, "progress_feed.publish", trace.WithAttributes(attribute.Int("progress.user_id", int(userID))))
	defer span.End()

	report, err := f.progress.Calculate(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.ProgressEvent{}, err
	}

	event := dto.ProgressEvent{
		Type:           dto.ProgressEventUser,
		UserID:         report.UserID,
		Progress:       report.Progress,
		CompletedItems: report.CompletedItems,
		TotalItems:     report.TotalItems,
		At:             f.now().UTC(),
	}

	f.broker.broadcast(event)
	if err := f.publish(ctx, event); err != nil {
		f.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to publish progress event to broker")
	}

	return event, nil
}

func (f *progressFeed) PublishRecompute(ctx context.Context, reason string) dto.ProgressEvent {
	ctx, span := f.tracer.Start(ctx, "progress_feed.publish_recompute", trace.WithAttributes(attribute.String("progress.reason", reason)))
	defer span.End()

	event := dto.ProgressEvent{
		Type:   dto.ProgressEventRecompute,
		Reason: reason,
		At:     f.now().UTC(),
	}

	f.broker.broadcast(event)
	if err := f.publish(ctx, event); err != nil {
		span.RecordError(err)
		f.logger.Warn().Err(err).Str("reason", reason).Msg("failed to publish recompute event to broker")
	}
	return event
}

func (f *progressFeed) Subscribe() (<-chan dto.ProgressEvent, func()) {
	channel := make(chan dto.ProgressEvent, progressFeedBufferSize)

	f.broker.subscribe(channel)
	observability.ProgressFeedClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.broker.unsubscribe(channel)
			observability.ProgressFeedClients().Dec()
		})
	}

	return channel, cleanup
}

func (f *progressFeed) publish(ctx context.Context, event dto.ProgressEvent) error {
	payload, err := json.Marshal(progressFeedEnvelope{Source: f.nodeID, Event: event})
	if err != nil {
		return err
	}

	if f.redis != nil && f.redisStream != "" {
		if err := f.redis.Publish(ctx, f.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

// consumeRedis keeps a subscription open until ctx ends, resubscribing with
// exponential backoff after receive errors.
func (f *progressFeed) consumeRedis(ctx context.Context) {
	delay := f.retryMin
	for {
		received, err := f.receiveRedis(ctx)
		if ctx.Err() != nil {
			return
		}
		if received {
			delay = f.retryMin
		}
		f.logger.Warn().Err(err).Dur("retry_in", delay).Msg("progress redis subscription lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > f.retryMax {
			delay = f.retryMax
		}
	}
}

// receiveRedis handles messages until the subscription fails and reports
// whether any message arrived first.
func (f *progressFeed) receiveRedis(ctx context.Context) (bool, error) {
	pubsub := f.redis.Subscribe(ctx, f.redisStream)
	defer func() { _ = pubsub.Close() }()

	received := false
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return received, nil
			}
			return received, err
		}
		received = true
		f.handleEnvelope([]byte(msg.Payload))
	}
}

func (f *progressFeed) consumeNATS(ctx context.Context) {
	// Plain subscription: every node must see every event to reach its own sockets.
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEnvelope(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats progress subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain progress nats subscription")
		}
	}()
}

func (f *progressFeed) handleEnvelope(payload []byte) {
	var envelope progressFeedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		f.logger.Warn().Err(err).Msg("invalid progress event payload")
		return
	}

	if envelope.Source == f.nodeID {
		return
	}

	f.broker.broadcast(envelope.Event)
}

func (b *progressBroker) subscribe(ch chan dto.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *progressBroker) unsubscribe(ch chan dto.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast drops events for subscribers whose buffer is full.
func (b *progressBroker) broadcast(event dto.ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
