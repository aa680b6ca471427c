package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/badoux/checkmail"
	"github.com/customerio/go-customerio"
	"github.com/netlify/mailme"
	"github.com/sirupsen/logrus"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/events"
	"github.com/tigrisdata/inviter/models"
)

const (
	CustomerIOMailerType = "customerio"
	TemplateMailerType   = "template"
)

// Mailer defines the interface a mailer must implement.
type Mailer interface {
	InvitationMail(inv *models.Invitation, invitationURL string) error
	ValidateEmail(email string) error
}

// NewMailer returns the mailer selected by config. Without SMTP host or mailer type
// invitations are only logged.
func NewMailer(config *conf.Configuration) Mailer {
	switch config.Mailer.Type {
	case CustomerIOMailerType:
		if config.Mailer.CustomerIO.ApiKey == "" {
			panic("API key is empty for customerio configuration")
		}
		return &CustomerIOMailer{
			templateId: config.Mailer.CustomerIO.UserInvitationTemplateId,
			client:     customerio.NewAPIClient(config.Mailer.CustomerIO.ApiKey),
			Config:     config,
		}
	case TemplateMailerType, "":
		if config.SMTP.Host == "" {
			return &noopMailer{}
		}
		return &TemplateMailer{
			SiteURL: config.SiteURL,
			Config:  config,
			Mailer: &mailme.Mailer{
				Host:    config.SMTP.Host,
				Port:    config.SMTP.Port,
				User:    config.SMTP.User,
				Pass:    config.SMTP.Pass,
				From:    config.SMTP.AdminEmail,
				BaseURL: config.SiteURL,
				Logger:  logrus.New(),
			},
		}
	default:
		panic(fmt.Sprintf("Unsupported mailer type: %s", config.Mailer.Type))
	}
}

// Listener mails the invitation code whenever an invitation is issued or reminded.
func Listener(m Mailer, config *conf.Configuration) events.Listener {
	return func(_ context.Context, evt events.Event) error {
		if evt.Invitation == nil {
			return nil
		}
		link, err := InvitationURL(config, evt.Invitation)
		if err != nil {
			return err
		}
		return m.InvitationMail(evt.Invitation, link)
	}
}

// InvitationURL is the link recipients follow to accept an invitation. It points at
// Invitation.URL, falling back to the site URL.
func InvitationURL(config *conf.Configuration, inv *models.Invitation) (string, error) {
	base := config.Invitation.URL
	if base == "" {
		base = config.SiteURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", inv.Code)
	q.Set("email", inv.Email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ValidateEmail checks the syntax of an email address.
func ValidateEmail(email string) error {
	return checkmail.ValidateFormat(email)
}

func withDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
