package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rvallejo/pinboard/internal/config"
	"github.com/rvallejo/pinboard/internal/notify"
	"github.com/rvallejo/pinboard/internal/store"
	"github.com/rvallejo/pinboard/internal/task"
)

// The reminder daemon polls the task backend and emails the board owner
// about overdue pending tasks, once per task.
func main() {
	configDir := os.Getenv("PINBOARD_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.SendGridAPIKey == "" || cfg.EmailFromAddr == "" || cfg.EmailToAddr == "" {
		log.Fatal("email.api_key, email.from_addr, and email.to_addr are required")
	}

	backend := selectBackend(cfg)
	if backend == nil {
		log.Fatal("a task backend is required: set backend.remote_url or backend.redis_addr")
	}

	every, err := time.ParseDuration(cfg.ReminderEvery)
	if err != nil {
		log.Fatalf("invalid reminder.every %q: %v", cfg.ReminderEvery, err)
	}

	sender := notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFromAddr, cfg.EmailToAddr)
	reminder := notify.NewReminder(&backendBoard{backend: backend}, sender)

	log.Printf("Reminder daemon starting, sweeping every %s", every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sweep(reminder)
	for {
		select {
		case <-ticker.C:
			sweep(reminder)
		case <-sigChan:
			log.Println("Shutting down reminder daemon...")
			return
		}
	}
}

func sweep(r *notify.Reminder) {
	if sent := r.Sweep(); sent > 0 {
		log.Printf("Sent %d overdue reminder(s)", sent)
	}
}

func selectBackend(cfg *config.Config) store.Backend {
	if cfg.RemoteURL != "" {
		return store.NewRemoteBackend(cfg.RemoteURL, cfg.RemoteToken)
	}
	if cfg.RedisAddr != "" {
		backend, err := store.NewRedisBackend(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Redis backend unavailable: %v", err)
		}
		return backend
	}
	return nil
}

// backendBoard reads the live task collection straight from the backend on
// every sweep, so reminders reflect mutations made by the server process.
type backendBoard struct {
	backend store.Backend
}

func (b *backendBoard) Tasks() []task.Task {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tasks, err := b.backend.Load(ctx)
	if err != nil {
		log.Printf("Failed to load tasks: %v", err)
		return nil
	}
	return tasks
}
