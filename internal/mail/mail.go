package mail

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"academy/internal/config"
)

// Message is one plain-text email to one recipient.
type Message struct {
	ToEmail string `json:"to_email"`
	ToName  string `json:"to_name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Provider is one delivery adapter in the chain.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// ErrAllProvidersFailed is returned when every adapter in the chain failed.
// Callers treat this as a recoverable outcome, not a hard failure.
var ErrAllProvidersFailed = errors.New("all mail providers failed")

var (
	attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_mail_attempts_total",
		Help: "Delivery attempts per provider.",
	}, []string{"provider", "outcome"})
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_mail_delivered_total",
		Help: "Messages delivered, by winning provider.",
	}, []string{"provider"})
)

// Chain tries providers in order and stops at the first success.
type Chain struct {
	providers []Provider
}

// NewChain builds the ordered chain from config. When a dedicated mail server
// is configured the chain is just the SMTP relay; otherwise the configured
// order applies, skipping adapters that lack credentials.
func NewChain(cfg config.App) *Chain {
	available := make(map[string]Provider)
	if p := NewSMTP(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom); p != nil {
		available["smtp"] = p
	}
	if p := NewEndpoint(cfg.MailEndpointURL, cfg.MailTimeout); p != nil {
		available["endpoint"] = p
	}
	if p := NewFormSubmit(cfg.FormSubmitInbox, cfg.MailTimeout); p != nil {
		available["formsubmit"] = p
	}
	if p := NewWeb3Forms(cfg.Web3FormsKey, cfg.MailTimeout); p != nil {
		available["web3forms"] = p
	}
	if p := NewSubmitForm(cfg.SubmitFormID, cfg.MailTimeout); p != nil {
		available["submitform"] = p
	}

	var order []string
	if cfg.MailServerEnabled {
		order = []string{"smtp"}
	} else {
		order = cfg.MailProviderOrder
	}

	var providers []Provider
	for _, name := range order {
		if p, ok := available[name]; ok {
			providers = append(providers, p)
		}
	}
	return &Chain{providers: providers}
}

// NewChainFrom builds a chain from explicit providers, mainly for tests.
func NewChainFrom(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Send walks the chain. The first provider to report success ends the walk.
// On total failure the recipient and intended message are logged and
// ErrAllProvidersFailed is returned; Send never panics. No retries, no
// backoff within a single attempt.
func (c *Chain) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, p := range c.providers {
		err := p.Send(ctx, msg)
		if err == nil {
			attempts.WithLabelValues(p.Name(), "ok").Inc()
			deliveries.WithLabelValues(p.Name()).Inc()
			return nil
		}
		attempts.WithLabelValues(p.Name(), "error").Inc()
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	log.Printf("mail undeliverable to %s <%s> subject %q: %v", msg.ToName, msg.ToEmail, msg.Subject, errors.Join(errs...))
	return fmt.Errorf("%w: %v", ErrAllProvidersFailed, errors.Join(errs...))
}
