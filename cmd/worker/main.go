package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"academy/internal/config"
	"academy/internal/mail"
	"academy/internal/queue"
	"academy/internal/store"
)

// emailWorkers caps concurrent deliveries so a slow provider cannot pile up
// unbounded goroutines.
const emailWorkers = 4

// Worker drains the queue and delivers notification emails through the
// provider chain, several in flight at once. Delivery is fire-and-forget: a
// message that fails every provider is logged and dropped, never retried.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "academy:queue")
	}

	mailer := mail.NewChain(cfg)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	mail.NewDispatcher(mailer, emailWorkers, cfg.MailTimeout).Run(ctx, messages)
	log.Println("worker stopped")
}
