package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/flight-auth/internal/events"
)

// AuditService writes security-relevant events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		if eventType == events.EventLoginFailed {
			a.dispatcher.Subscribe(eventType, a.handleLoginFailed)
			continue
		}
		a.dispatcher.Subscribe(eventType, a.handleEvent)
	}
}

func (a *AuditService) handleEvent(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type), fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	out := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("actor_kind", string(event.Actor.Kind)),
		zap.String("actor", event.Actor.Key),
		zap.Time("at", event.Timestamp),
	}
	if event.Payload != nil {
		out = append(out, zap.Any("payload", event.Payload))
	}
	return out
}
