package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/pkg/editor"
	"ai-editor-be/pkg/events"
)

// IExchangePublisher hands out editor observers that put resolved
// exchanges on the in-process bus.
type IExchangePublisher interface {
	ForSession(sessionID string) editor.Observer
}

type exchangePublisher struct {
	pub   message.Publisher
	topic string
	log   logger.ILogger
	now   func() time.Time
}

func NewExchangePublisher(pub message.Publisher, topic string, log logger.ILogger) IExchangePublisher {
	return &exchangePublisher{pub: pub, topic: topic, log: log, now: time.Now}
}

func (p *exchangePublisher) ForSession(sessionID string) editor.Observer {
	return &sessionObserver{publisher: p, sessionID: sessionID}
}

type sessionObserver struct {
	publisher *exchangePublisher
	sessionID string
}

// ExchangeResolved runs on the editor loop. The gochannel publisher does not
// wait for subscribers, so this returns promptly.
func (o *sessionObserver) ExchangeResolved(x editor.Exchange) {
	p := o.publisher
	payload, err := json.Marshal(dto.ExchangeEvent{
		SessionID:      o.sessionID,
		ExchangeID:     x.ID,
		Status:         x.Status,
		Prompt:         x.PromptText,
		Error:          x.Err,
		ResponseLength: len(x.ResponseHTML),
		OccurredAt:     p.now(),
	})
	if err != nil {
		p.log.Error("ExchangePublisher", "Failed to marshal exchange event", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := p.pub.Publish(p.topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		p.log.Error("ExchangePublisher", "Failed to publish exchange event", map[string]interface{}{
			"session_id":  o.sessionID,
			"exchange_id": x.ID,
			"error":       err.Error(),
		})
	}
}

// EventExporter ships domain events off the instance. *nats.Publisher
// implements it.
type EventExporter interface {
	Publish(ctx context.Context, event events.Event) error
}

// SessionNotifier pushes a frame to the clients attached to a session.
type SessionNotifier interface {
	Notify(sessionID string, frame dto.ServerFrame)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	sub      message.Subscriber
	topic    string
	exporter EventExporter
	notifier SessionNotifier
	stats    IActivityService
	log      logger.ILogger
}

// NewConsumerService wires the exchange consumer. exporter and notifier may be
// nil. When exporter is nil the local stats are fed directly, otherwise they
// are fed back from NATS.
func NewConsumerService(
	sub message.Subscriber,
	topic string,
	exporter EventExporter,
	notifier SessionNotifier,
	stats IActivityService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		sub:      sub,
		topic:    topic,
		exporter: exporter,
		notifier: notifier,
		stats:    stats,
		log:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.sub.Subscribe(ctx, cs.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ExchangeEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ConsumerService", "Failed to unmarshal exchange event", map[string]interface{}{"error": err.Error()})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	event := ExchangeDomainEvent(payload)
	cs.log.Info("ConsumerService", "AI exchange resolved", map[string]interface{}{
		"session_id":  payload.SessionID,
		"exchange_id": payload.ExchangeID,
		"status":      payload.Status,
		"error":       payload.Error,
	})

	if cs.notifier != nil {
		cs.notifier.Notify(payload.SessionID, dto.ServerFrame{Type: dto.FrameExchange, Event: &payload})
	}

	if cs.exporter == nil {
		if cs.stats != nil {
			cs.stats.Record(event)
		}
		msg.Ack()
		return
	}

	exportCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cs.exporter.Publish(exportCtx, event); err != nil {
		// NATS being down must not stall the local bus
		cs.log.Warn("ConsumerService", "Failed to export exchange event", map[string]interface{}{
			"exchange_id": payload.ExchangeID,
			"error":       err.Error(),
		})
	}
	msg.Ack()
}

// ExchangeDomainEvent maps a bus message onto the exported event.
func ExchangeDomainEvent(e dto.ExchangeEvent) events.Event {
	eventType := events.TypeExchangeSucceeded
	if e.Status == editor.ExchangeFailed {
		eventType = events.TypeExchangeFailed
	}
	data := map[string]interface{}{
		"session_id":      e.SessionID,
		"exchange_id":     e.ExchangeID,
		"status":          string(e.Status),
		"prompt_length":   len(e.Prompt),
		"response_length": e.ResponseLength,
	}
	if e.Error != "" {
		data["error"] = e.Error
	}
	return events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: e.OccurredAt,
	}
}
