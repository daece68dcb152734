package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/studentdesk/internal/pkg/events"
)

// Services defined in this package:
// - AuthService: login, self-registration and the current identity
// - AdminService: CRUD over admin accounts
// - StudentService: CRUD over student records with ownership checks

// publishEvent sends an event after the change it describes is committed.
// A failed publish is logged and never fails the request.
func publishEvent(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn().Err(err).Str("event", string(event.Type)).Str("key", event.Key).Msg("Failed to publish event")
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
