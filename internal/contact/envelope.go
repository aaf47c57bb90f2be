package contact

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/aryanraj/portfolio-contact/internal/mailer"
)

// Fields are escaped by the template funcs, not by text/template.
var htmlBody = template.Must(template.New("contact").Funcs(template.FuncMap{
	"escape": EscapeHTML,
	"breaks": func(s string) string { return strings.ReplaceAll(EscapeHTML(s), "\n", "<br>") },
}).Parse(`
<div style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; max-width: 600px; margin: 0 auto; background: #0f172a; color: #e2e8f0; padding: 32px; border-radius: 12px;">
  <h2 style="color: #22d3ee; margin-bottom: 24px; border-bottom: 1px solid #1e293b; padding-bottom: 16px;">New Contact Form Submission</h2>
  <p style="margin: 8px 0;"><strong style="color: #94a3b8;">Name:</strong> {{escape .Name}}</p>
  <p style="margin: 8px 0;"><strong style="color: #94a3b8;">Email:</strong> <a href="mailto:{{escape .Email}}" style="color: #22d3ee;">{{escape .Email}}</a></p>
  <div style="margin-top: 24px; padding: 20px; background: #1e293b; border-radius: 8px; border-left: 4px solid #22d3ee;">
    <p style="margin: 0 0 8px 0;"><strong style="color: #94a3b8;">Message:</strong></p>
    <p style="margin: 0; line-height: 1.6;">{{breaks .Message}}</p>
  </div>
  <p style="margin-top: 24px; font-size: 12px; color: #64748b;">This email was sent from your portfolio contact form.</p>
</div>
`))

// EnvelopeConfig holds the fixed addressing of every outbound message.
type EnvelopeConfig struct {
	From string
	To   string
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildEnvelope(cfg EnvelopeConfig, s Submission) (mailer.Envelope, error) {
	var body strings.Builder
	if err := htmlBody.Execute(&body, s); err != nil {
		return mailer.Envelope{}, fmt.Errorf("render body: %w", err)
	}

	text := fmt.Sprintf("Name: %s\nEmail: %s\n\n%s\n", s.Name, s.Email, s.Message)

	return mailer.Envelope{
		From:    cfg.From,
		To:      []string{cfg.To},
		ReplyTo: s.Email,
		Subject: "New contact form submission from " + headerBreaks.Replace(s.Name),
		HTML:    body.String(),
		Text:    text,
	}, nil
}
