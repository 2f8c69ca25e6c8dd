package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rvallejo/pinboard/internal/api"
	"github.com/rvallejo/pinboard/internal/assistant"
	"github.com/rvallejo/pinboard/internal/config"
	"github.com/rvallejo/pinboard/internal/middleware"
	"github.com/rvallejo/pinboard/internal/repository"
	"github.com/rvallejo/pinboard/internal/store"
	"github.com/rvallejo/pinboard/internal/voice"
)

func main() {
	configDir := os.Getenv("PINBOARD_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s := store.New(ctx, selectBackend(cfg))
	if s.Demo() {
		log.Printf("Running in demo mode with seed tasks")
	}

	opts := api.Options{AutoSpeak: cfg.AutoSpeak}

	if cfg.PostgresDSN != "" {
		history, err := repository.NewPostgresHistory(cfg.PostgresDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := history.Close(); err != nil {
				log.Printf("failed to close mutation history: %v", err)
			}
		}()
		opts.History = history
		opts.Browser = history
	}

	if cfg.GeminiAPIKey != "" {
		completer := assistant.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
		opts.Orchestrator = assistant.New(completer, s, opts.History)
		opts.Orchestrator.SetTemperature(cfg.Temperature)
	} else {
		log.Printf("No Gemini API key configured, chat endpoints disabled")
	}

	if cfg.STTEndpoint != "" {
		opts.Recognizer = voice.NewHTTPRecognizer(cfg.STTEndpoint, cfg.STTAPIKey, cfg.STTModel)
	}
	if cfg.TTSEndpoint != "" {
		synth := voice.NewHTTPSynthesizer(cfg.TTSEndpoint, cfg.TTSAPIKey, cfg.TTSVoice)
		opts.Player = voice.NewPlayer(synth, voice.NopSink{}, cfg.SampleRate)
	}

	apiHandler := api.NewAPI(s, opts)

	go startBoardGaugeCollector(s)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", middleware.MetricsMiddleware(apiHandler))

	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatal(err)
	}
}

// selectBackend picks the task backend: a remote task service wins over
// Redis; with neither configured the store falls back to demo mode.
func selectBackend(cfg *config.Config) store.Backend {
	if cfg.RemoteURL != "" {
		log.Printf("Using remote task backend at %s", cfg.RemoteURL)
		return store.NewRemoteBackend(cfg.RemoteURL, cfg.RemoteToken)
	}
	if cfg.RedisAddr != "" {
		backend, err := store.NewRedisBackend(cfg.RedisAddr)
		if err != nil {
			log.Printf("Redis backend unavailable: %v", err)
			return nil
		}
		log.Printf("Using Redis task backend at %s", cfg.RedisAddr)
		return backend
	}
	return nil
}
