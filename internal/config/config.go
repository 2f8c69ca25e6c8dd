// Package config loads server configuration from an optional pinboard.yaml
// plus PINBOARD_* environment variables, with environment taking precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string

	// Backend selection: RemoteURL wins over RedisAddr; with neither set the
	// server runs in demo mode.
	RemoteURL   string
	RemoteToken string
	RedisAddr   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	Temperature   float64

	STTEndpoint string
	STTAPIKey   string
	STTModel    string
	TTSEndpoint string
	TTSAPIKey   string
	TTSVoice    string
	SampleRate  int
	AutoSpeak   bool

	PostgresDSN string

	SendGridAPIKey string
	EmailFromName  string
	EmailFromAddr  string
	EmailToAddr    string
	ReminderEvery  string
}

// Load reads pinboard.yaml from the given directory if present, then applies
// PINBOARD_* environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("pinboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.SetEnvPrefix("PINBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen.addr", ":8080")
	v.SetDefault("gemini.model", "gemini-3-flash-preview")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("voice.stt_model", "whisper-1")
	v.SetDefault("voice.tts_voice", "Zephyr")
	v.SetDefault("voice.sample_rate", 24000)
	v.SetDefault("voice.auto_speak", true)
	v.SetDefault("email.from_name", "AI Pinboard")
	v.SetDefault("reminder.every", "5m")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading pinboard.yaml: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:     v.GetString("listen.addr"),
		RemoteURL:      v.GetString("backend.remote_url"),
		RemoteToken:    v.GetString("backend.remote_token"),
		RedisAddr:      v.GetString("backend.redis_addr"),
		GeminiAPIKey:   v.GetString("gemini.api_key"),
		GeminiModel:    v.GetString("gemini.model"),
		GeminiBaseURL:  v.GetString("gemini.base_url"),
		Temperature:    v.GetFloat64("gemini.temperature"),
		STTEndpoint:    v.GetString("voice.stt_endpoint"),
		STTAPIKey:      v.GetString("voice.stt_api_key"),
		STTModel:       v.GetString("voice.stt_model"),
		TTSEndpoint:    v.GetString("voice.tts_endpoint"),
		TTSAPIKey:      v.GetString("voice.tts_api_key"),
		TTSVoice:       v.GetString("voice.tts_voice"),
		SampleRate:     v.GetInt("voice.sample_rate"),
		AutoSpeak:      v.GetBool("voice.auto_speak"),
		PostgresDSN:    v.GetString("postgres.dsn"),
		SendGridAPIKey: v.GetString("email.api_key"),
		EmailFromName:  v.GetString("email.from_name"),
		EmailFromAddr:  v.GetString("email.from_addr"),
		EmailToAddr:    v.GetString("email.to_addr"),
		ReminderEvery:  v.GetString("reminder.every"),
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("voice.sample_rate must be positive, got %d", cfg.SampleRate)
	}
	return cfg, nil
}
