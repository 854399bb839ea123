package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/credential-relay/internal/domain"
	"github.com/credential-relay/internal/observability/metrics"
)

// Channel delivers one rendered message. Implementations wrap failures with
// domain.ErrTransient or domain.ErrPermanent; anything else is treated as permanent.
type Channel interface {
	Send(ctx context.Context, msg domain.Message) error
}

// Config controls retry behaviour. Zero values fall back to defaults.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	AttemptTimeout time.Duration
}

const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 2 * time.Second
	DefaultAttemptTimeout = 30 * time.Second
)

// Dispatcher sends messages through a Channel, retrying transient failures with
// exponential backoff. Each Deliver call is independent; there is no shared lock.
type Dispatcher struct {
	channel Channel
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(ch Channel, cfg Config) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Dispatcher{channel: ch, cfg: cfg, sleep: sleepCtx}
}

// Deliver sends msg. Permanent failures return KindDeliveryPermanent at once;
// transient failures are retried up to MaxAttempts, waiting InitialBackoff and
// doubling between attempts, and then return KindDeliveryFailed wrapping the last cause.
func (d *Dispatcher) Deliver(ctx context.Context, msg domain.Message) error {
	const op = "notification.deliver"
	label := channelLabel(msg.To)
	backoff := d.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		err := d.attempt(ctx, msg)
		if err == nil {
			metrics.DeliveryAttemptsTotal.WithLabelValues(label, "ok").Inc()
			if attempt > 1 {
				slog.Info("delivery succeeded after retry", "recipient", msg.To, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrTransient) {
			metrics.DeliveryAttemptsTotal.WithLabelValues(label, "permanent").Inc()
			slog.Error("delivery rejected", "recipient", msg.To, "attempt", attempt, "err", err)
			return domain.E(domain.KindDeliveryPermanent, op, "channel rejected message", err)
		}
		metrics.DeliveryAttemptsTotal.WithLabelValues(label, "transient").Inc()
		if attempt == d.cfg.MaxAttempts {
			break
		}

		slog.Warn("delivery attempt failed, retrying",
			"recipient", msg.To, "attempt", attempt, "backoff", backoff, "err", err)
		if err := d.sleep(ctx, backoff); err != nil {
			return domain.E(domain.KindDeliveryFailed, op, "cancelled while backing off", lastErr)
		}
		backoff *= 2
	}

	slog.Error("delivery failed", "recipient", msg.To, "attempts", d.cfg.MaxAttempts, "err", lastErr)
	return domain.E(domain.KindDeliveryFailed, op,
		fmt.Sprintf("%d attempts exhausted", d.cfg.MaxAttempts), lastErr)
}

// attempt runs one send bounded by AttemptTimeout. Running out of time counts
// as a transient failure.
func (d *Dispatcher) attempt(ctx context.Context, msg domain.Message) error {
	actx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	defer cancel()

	err := d.channel.Send(actx, msg)
	if err == nil || errors.Is(err, domain.ErrTransient) {
		return err
	}
	if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("attempt timed out after %s: %w: %w", d.cfg.AttemptTimeout, domain.ErrTransient, err)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var e164Re = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// IsPhone reports whether recipient is an E.164 phone number.
func IsPhone(recipient string) bool { return e164Re.MatchString(recipient) }

func channelLabel(recipient string) string {
	if IsPhone(recipient) {
		return "sms"
	}
	return "email"
}

// Router sends to SMS for E.164 recipients and to Email for everything else.
type Router struct {
	Email Channel
	SMS   Channel
}

func (r *Router) Send(ctx context.Context, msg domain.Message) error {
	if IsPhone(msg.To) {
		if r.SMS == nil {
			return fmt.Errorf("no sms channel configured: %w", domain.ErrPermanent)
		}
		return r.SMS.Send(ctx, msg)
	}
	if r.Email == nil {
		return fmt.Errorf("no email channel configured: %w", domain.ErrPermanent)
	}
	return r.Email.Send(ctx, msg)
}

// SupportsSMS reports whether phone recipients can be served.
func (r *Router) SupportsSMS() bool { return r.SMS != nil }
