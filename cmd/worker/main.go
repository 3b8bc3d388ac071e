package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"defqueue/internal/config"
	"defqueue/internal/events"
	"defqueue/internal/participant"
	"defqueue/internal/store"
)

// Worker consumes join events and appends audit rows.
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

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q events.Queue
	if cfg.QueueBackend == "memory" {
		q = events.NewInMemory(64)
	} else {
		q = events.NewRedisQueue(redisClient.Client, "defqueue:joins")
	}

	repo := participant.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for join events...")
	for msg := range messages {
		if msg.Type != events.TypeParticipantJoined {
			continue
		}

		ev, err := events.DecodeJoin(msg)
		if err != nil {
			log.Printf("bad join event payload: %v", err)
			continue
		}

		if err := repo.RecordJoinAudit(ctx, ev.GroupID, ev.UserID, ev.Position); err != nil {
			log.Printf("audit insert failed for user %s in group %s: %v", ev.UserID, ev.GroupID, err)
			continue
		}
		log.Printf("recorded join: user %s group %s position %d", ev.UserID, ev.GroupID, ev.Position)
	}

	log.Println("worker stopped")
}
