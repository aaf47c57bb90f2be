package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	// SSL selects implicit TLS (port 465 style); otherwise STARTTLS is used
	// when the server offers it.
	SSL bool
	// Timeout bounds one delivery; zero means no limit beyond ctx.
	Timeout time.Duration
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(e *email.Email) error
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("smtp: host and port are required")
	}
	s := &SMTPSender{cfg: cfg}
	s.send = s.dial
	return s, nil
}

func (s *SMTPSender) Send(ctx context.Context, env Envelope) (string, error) {
	e, id := s.buildEmail(env)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	// net/smtp has no context support; the dial keeps running in the
	// background if ctx ends first.
	errCh := make(chan error, 1)
	go func() { errCh <- s.send(e) }()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("smtp: %w", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return "", fmt.Errorf("smtp: %w", err)
		}
		return id, nil
	}
}

func (s *SMTPSender) buildEmail(env Envelope) (*email.Email, string) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDHost(env.From, s.cfg.Host))

	e := email.NewEmail()
	e.From = env.From
	e.To = env.To
	if env.ReplyTo != "" {
		e.ReplyTo = []string{env.ReplyTo}
	}
	e.Subject = env.Subject
	e.HTML = []byte(env.HTML)
	e.Text = []byte(env.Text)
	e.Headers.Set("Message-Id", id)
	return e, id
}

func (s *SMTPSender) dial(e *email.Email) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	if s.cfg.SSL {
		return e.SendWithTLS(addr, auth, &tls.Config{ServerName: s.cfg.Host})
	}
	return e.Send(addr, auth)
}

// messageIDHost picks the domain of the sender address, falling back to the
// relay host.
func messageIDHost(from, fallback string) string {
	addr := from
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return fallback
}
