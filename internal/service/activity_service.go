package service

import (
	"context"
	"os"
	"sync"
	"time"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/pkg/events"
	pktNats "ai-editor-be/pkg/nats"
)

const (
	ActivitySourceLocal = "local"
	ActivitySourceNats  = "nats"
)

// IActivityService counts resolved AI exchanges. With NATS the counts cover
// every instance, otherwise only this one.
type IActivityService interface {
	Record(event events.Event)
	Listen(ctx context.Context) error
	Stats() dto.ActivityStatsResponse
}

// EventSource is satisfied by *nats.Subscriber.
type EventSource interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type activityService struct {
	source EventSource
	log    logger.ILogger

	mu     sync.Mutex
	ok     int64
	failed int64
	last   *time.Time
}

func NewActivityService(source EventSource, log logger.ILogger) IActivityService {
	return &activityService{source: source, log: log}
}

func (s *activityService) Listen(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	// one durable per instance so each sees the whole stream
	return s.source.Subscribe(ctx, pktNats.SubjectPrefix+"*", "editor-activity-"+host, func(_ context.Context, e events.Event) error {
		s.Record(e)
		return nil
	})
}

func (s *activityService) Record(event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.EventType() {
	case events.TypeExchangeSucceeded:
		s.ok++
	case events.TypeExchangeFailed:
		s.failed++
	default:
		return
	}
	at := event.Timestamp()
	if s.last == nil || at.After(*s.last) {
		s.last = &at
	}
}

func (s *activityService) Stats() dto.ActivityStatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := ActivitySourceLocal
	if s.source != nil {
		source = ActivitySourceNats
	}
	res := dto.ActivityStatsResponse{
		Source:          source,
		ExchangesOK:     s.ok,
		ExchangesFailed: s.failed,
	}
	if s.last != nil {
		last := *s.last
		res.LastExchangeAt = &last
	}
	return res
}
