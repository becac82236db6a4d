package events

import (
	"context"
	"log/slog"
)

// LogPublisher is a stub publisher that writes events to the structured
// logger. Used when no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a logging publisher stub.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish writes the event to the logger.
func (p *LogPublisher) Publish(_ context.Context, kind string, event any) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("vault event", "kind", kind, "event", event)
	return nil
}
