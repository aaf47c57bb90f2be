// Package mailer hands finished envelopes to an email-delivery provider.
package mailer

import "context"

// Envelope is a fully formed outbound email.
type Envelope struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers an envelope and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, env Envelope) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, env Envelope) (string, error)

func (f SenderFunc) Send(ctx context.Context, env Envelope) (string, error) {
	return f(ctx, env)
}
