package metering

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tigrisdata/inviter/events"
)

var logger = log.With().Bool("metering", true).Logger()

// RecordInvitationEvent logs every lifecycle event for auditing.
func RecordInvitationEvent(_ context.Context, evt events.Event) error {
	recorderLogger := logger.With().
		Str("action", evt.Name).
		Time("occurred_at", evt.OccurredAt).Logger()
	if inv := evt.Invitation; inv != nil {
		recorderLogger = recorderLogger.With().
			Str("code", inv.Code).
			Str("entity_id", inv.EntityID).
			Int64("referrer_id", inv.ReferrerID).
			Str("status", string(inv.Status)).Logger()
	}
	recorderLogger.Info().Msg("Invitation")
	return nil
}
