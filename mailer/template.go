package mailer

import (
	"github.com/netlify/mailme"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/models"
)

const defaultInvitationMail = `<h2>You have been invited</h2>

<p>{{ .Message }}</p>
<p>Follow this link to accept the invitation before {{ .ValidTill }}:</p>
<p><a href="{{ .InvitationURL }}">Accept the invitation</a></p>
<p>Or use the code: {{ .Code }}</p>`

// TemplateMailer will send mail and use templates from the site for easy mail styling
type TemplateMailer struct {
	SiteURL string
	Config  *conf.Configuration
	Mailer  *mailme.Mailer
}

func (m *TemplateMailer) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

// InvitationMail sends an invitation mail
func (m *TemplateMailer) InvitationMail(inv *models.Invitation, invitationURL string) error {
	data := map[string]interface{}{
		"SiteURL":       m.Config.SiteURL,
		"InvitationURL": invitationURL,
		"Email":         inv.Email,
		"Message":       inv.Message,
		"Code":          inv.Code,
		"ValidTill":     inv.ValidTill.Format("2006-01-02 15:04 MST"),
	}

	return m.Mailer.Mail(
		inv.Email,
		withDefault(m.Config.Mailer.Subject, "You have been invited"),
		m.Config.Mailer.Template,
		defaultInvitationMail,
		data,
	)
}
