// Package contact validates contact form submissions, enforces the
// per-client quota and forwards accepted messages to the site owner.
package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aryanraj/portfolio-contact/internal/ledger"
	"github.com/aryanraj/portfolio-contact/internal/logging"
	"github.com/aryanraj/portfolio-contact/internal/mailer"
	"github.com/aryanraj/portfolio-contact/internal/metrics"
)

// Limiter decides whether a client may submit now and records the attempt
// when it may.
type Limiter interface {
	Allow(ctx context.Context, key string) (ledger.Decision, error)
}

type Options struct {
	Limiter Limiter
	Sender  mailer.Sender
	// Provider labels delivery metrics, e.g. "resend".
	Provider string
	Envelope EnvelopeConfig
	Limits   Limits
	// MaxBodyBytes caps the payload read per submission. Defaults to 64 KiB.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 64 << 10

type Service struct {
	limiter  Limiter
	sender   mailer.Sender
	provider string
	envelope EnvelopeConfig
	fields   *fieldValidator
	maxBody  int64
}

func NewService(opts Options) *Service {
	limits := opts.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	provider := opts.Provider
	if provider == "" {
		provider = "default"
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Service{
		limiter:  opts.Limiter,
		sender:   opts.Sender,
		provider: provider,
		envelope: opts.Envelope,
		fields:   newFieldValidator(limits),
		maxBody:  maxBody,
	}
}

// Accepted is the result of a delivered submission.
type Accepted struct {
	ID string
}

// Submit runs one submission from clientID. The quota is consumed before body
// is read, so oversized or rejected payloads still count against the client.
// Every failure is a *Error.
func (s *Service) Submit(ctx context.Context, clientID string, body io.Reader) (res *Accepted, err error) {
	logger := logging.FromContext(ctx).With("client", clientID)

	defer func() {
		outcome := "accepted"
		if err != nil {
			outcome = kindOf(err).String()
		}
		metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	}()

	decision, err := s.limiter.Allow(ctx, clientID)
	if err != nil {
		logger.Error("rate limit check failed", "err", err)
		return nil, newError(KindUnexpected, msgUnexpected, err)
	}
	if !decision.Allowed {
		logger.Warn("submission rate limited", "count", decision.Count, "retry_after", decision.RetryAfter)
		metrics.RateLimitedTotal.Inc()
		return nil, &Error{Kind: KindRateLimited, Message: msgRateLimited, RetryAfter: decision.RetryAfter}
	}

	payload, err := s.readBody(body)
	if err != nil {
		logger.Info("submission rejected", "reason", kindOf(err).String(), "err", err)
		return nil, err
	}

	sub, err := parseSubmission(payload)
	if err != nil {
		logger.Info("submission rejected", "reason", kindOf(err).String())
		return nil, err
	}
	if err := s.fields.check(&sub); err != nil {
		var ve *Error
		errors.As(err, &ve)
		logger.Info("submission rejected", "reason", ve.Kind.String(), "field", ve.Field)
		return nil, err
	}

	env, err := buildEnvelope(s.envelope, sub)
	if err != nil {
		logger.Error("failed to build envelope", "err", err)
		return nil, newError(KindUnexpected, msgUnexpected, err)
	}

	start := time.Now()
	id, err := s.sender.Send(ctx, env)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.DeliveryDuration.WithLabelValues(s.provider, result).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error("email delivery failed", "provider", s.provider, "err", err)
		return nil, newError(KindDeliveryFailed, msgDeliveryFailed, err)
	}

	logger.Info("email sent", "provider", s.provider, "id", id)
	return &Accepted{ID: id}, nil
}

func (s *Service) readBody(body io.Reader) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(body, s.maxBody+1))
	if err != nil {
		return nil, newError(KindUnexpected, msgUnexpected, fmt.Errorf("read body: %w", err))
	}
	if int64(len(payload)) > s.maxBody {
		return nil, &Error{Kind: KindBodyTooLarge, Message: msgBodyTooLarge}
	}
	return payload, nil
}

func kindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnexpected
}
