package mailer

import (
	"context"

	"github.com/customerio/go-customerio"
	"github.com/rs/zerolog/log"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/models"
)

type CustomerIOMailer struct {
	templateId string
	client     *customerio.APIClient
	Config     *conf.Configuration
}

func (m CustomerIOMailer) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

func (m *CustomerIOMailer) InvitationMail(inv *models.Invitation, invitationURL string) error {
	request := customerio.SendEmailRequest{
		To:                     inv.Email,
		TransactionalMessageID: m.templateId,
		MessageData: map[string]interface{}{
			"invitation_url":  invitationURL,
			"invited_email":   inv.Email,
			"message":         inv.Message,
			"entity_id":       inv.EntityID,
			"referrer_id":     inv.ReferrerID,
			"expiration_time": inv.ValidTill.Unix(),
		},
		Identifiers: map[string]string{
			"id": inv.Email,
		},
	}

	body, err := m.client.SendEmail(context.Background(), &request)
	if err != nil {
		log.Err(err).Str("code", inv.Code).Msg("Failed to send invitation email")
		return err
	}

	log.Debug().Str("deliveryId", body.DeliveryID).Msg("Invitation email sent")
	return nil
}
