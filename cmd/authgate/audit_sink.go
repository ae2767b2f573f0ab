package main

import (
	"context"

	"github.com/kmezhov/authgate"
	"go.uber.org/zap"
)

// zapSink forwards audit events to the service logger as structured entries.
type zapSink struct {
	log *zap.Logger
}

func (s *zapSink) Emit(_ context.Context, event authgate.AuditEvent) {
	fields := []zap.Field{
		zap.Time("at", event.Timestamp),
		zap.String("event", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String("meta_"+k, v))
	}
	s.log.Info("audit", fields...)
}
