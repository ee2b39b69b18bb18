package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"academy/internal/mail"
	"academy/internal/queue"
)

// ErrWrite is returned when the batch insert of notification rows fails.
// There is no partial-success path; callers of best-effort triggers log it
// instead of failing the triggering action.
var ErrWrite = errors.New("notification write failed")

var written = promauto.NewCounter(prometheus.CounterOpts{
	Name: "academy_notifications_written_total",
	Help: "In-app notification rows written.",
})

// rowWriter is what the fan-out needs from storage.
type rowWriter interface {
	InsertBatch(ctx context.Context, rows []Notification) error
}

// Service fans one logical notification out to many recipients across the
// in-app, email, and WhatsApp channels.
type Service struct {
	repo rowWriter
	q    queue.Queue
}

// NewService creates the fan-out service. q may be nil when email delivery is
// not wired (rows are still written).
func NewService(repo rowWriter, q queue.Queue) *Service {
	return &Service{repo: repo, q: q}
}

// Send writes one unread notification row per recipient in a single batch,
// then triggers the optional channels. Rows always come first: a recipient
// gets an in-app notification even if every external channel fails. Email
// jobs are handed to the queue and delivered out of band; enqueue failures
// are logged, never returned. WhatsApp produces pre-filled message links for
// recipients with a phone number on file; the caller opens them manually,
// nothing is sent automatically. Recipients without a phone are skipped.
func (s *Service) Send(ctx context.Context, recipients []Recipient, subject, message string, opts Options) (Result, error) {
	if len(recipients) == 0 {
		return Result{}, errors.New("at least one recipient required")
	}

	now := time.Now().UTC()
	rows := make([]Notification, 0, len(recipients))
	for _, rcpt := range recipients {
		rows = append(rows, Notification{
			ID:          uuid.NewString(),
			UserID:      rcpt.ID,
			RecipientID: rcpt.ID,
			Title:       subject,
			Message:     message,
			Link:        opts.Link,
			CreatedAt:   now,
		})
	}
	if err := s.repo.InsertBatch(ctx, rows); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	written.Add(float64(len(rows)))
	res := Result{Created: len(rows)}

	if opts.Email && s.q != nil {
		for _, rcpt := range recipients {
			if rcpt.Email == "" {
				continue
			}
			msg, err := queue.NewMessage("email", mail.Message{
				ToEmail: rcpt.Email,
				ToName:  rcpt.Name,
				Subject: subject,
				Body:    message,
			})
			if err != nil {
				log.Printf("encode mail job for %s: %v", rcpt.Email, err)
				continue
			}
			if err := s.q.Publish(ctx, msg); err != nil {
				log.Printf("enqueue mail for %s: %v", rcpt.Email, err)
				continue
			}
			res.EmailsQueued++
		}
	}

	if opts.WhatsApp {
		for _, rcpt := range recipients {
			if link := WhatsAppLink(rcpt.Phone, subject, message); link != "" {
				res.WhatsAppLinks = append(res.WhatsAppLinks, link)
			}
		}
	}

	return res, nil
}

// WhatsAppLink builds a wa.me link pre-filled with the notification text.
// Returns "" when the phone number has no digits.
func WhatsAppLink(phone, subject, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	text := subject
	if message != "" {
		text += "\n\n" + message
	}
	return "https://wa.me/" + digits.String() + "?text=" + url.QueryEscape(text)
}
