package mailer

import (
	"github.com/rs/zerolog/log"
	"github.com/tigrisdata/inviter/models"
)

type noopMailer struct{}

func (m noopMailer) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

func (m *noopMailer) InvitationMail(inv *models.Invitation, invitationURL string) error {
	log.Debug().Str("email", inv.Email).Str("url", invitationURL).Msg("mailer not configured, skipping invitation mail")
	return nil
}
