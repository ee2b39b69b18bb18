package mail

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"academy/internal/queue"
)

// Sender delivers one message. *Chain is the production implementation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher drains email jobs off a queue and delivers each through the
// sender on its own goroutine, capped at a fixed number in flight. Jobs stay
// isolated: one recipient's failure never delays or fails another's.
type Dispatcher struct {
	sender  Sender
	workers int
	timeout time.Duration
}

// NewDispatcher creates a dispatcher. workers values below 1 are raised to 1.
func NewDispatcher(sender Sender, workers int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{sender: sender, workers: workers, timeout: timeout}
}

// Run consumes until jobs closes, then waits for in-flight deliveries.
// Non-email messages and malformed payloads are dropped. A delivery that
// fails every provider was already logged by the chain and is not retried.
func (d *Dispatcher) Run(ctx context.Context, jobs <-chan queue.Message) {
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

	for job := range jobs {
		if job.Type != "email" {
			continue
		}
		var m Message
		if err := json.Unmarshal(job.Body, &m); err != nil {
			log.Printf("malformed email job dropped: %v", err)
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(m Message) {
			defer wg.Done()
			defer func() { <-sem }()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			if err := d.sender.Send(sendCtx, m); err != nil {
				return
			}
			log.Printf("email delivered to %s (%s)", m.ToEmail, m.Subject)
		}(m)
	}
	wg.Wait()
}
