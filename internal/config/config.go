// Package config provides the configuration schema and loader for the
// Soundwave voice assistant.
package config

import "time"

// LogLevel controls log verbosity for the Soundwave server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Soundwave.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server       ServerConfig    `yaml:"server"`
	MusicService MusicConfig     `yaml:"music_service"`
	Assistant    AssistantConfig `yaml:"assistant"`
	Providers    ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// MusicConfig points the assistant at the Cloudly music service.
type MusicConfig struct {
	// BaseURL is the root of the music service API
	// (e.g., "http://localhost:5000").
	BaseURL string `yaml:"base_url"`

	// CatalogTTLSeconds is how long a fetched song library stays fresh.
	// Zero means the cache never expires on its own.
	CatalogTTLSeconds int `yaml:"catalog_ttl_seconds"`
}

// CatalogTTL returns the catalog freshness window as a duration.
func (m MusicConfig) CatalogTTL() time.Duration {
	return time.Duration(m.CatalogTTLSeconds) * time.Second
}

// AssistantConfig tunes the capture pipeline.
type AssistantConfig struct {
	// CaptureWindowMS is the fixed recording window in milliseconds.
	CaptureWindowMS int `yaml:"capture_window_ms"`

	// SampleRate is the microphone sample rate in Hz used for wake-word
	// streaming recognition.
	SampleRate int `yaml:"sample_rate"`

	// WakePhrases overrides the built-in trigger phrases when non-empty.
	WakePhrases []string `yaml:"wake_phrases"`
}

// CaptureWindow returns the capture window as a duration.
func (a AssistantConfig) CaptureWindow() time.Duration {
	return time.Duration(a.CaptureWindowMS) * time.Millisecond
}

// ProvidersConfig declares which implementation to use for each gateway.
type ProvidersConfig struct {
	STT    ProviderEntry `yaml:"stt"`
	Intent ProviderEntry `yaml:"intent"`
	TTS    ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all gateways.
type ProviderEntry struct {
	// Name selects the implementation (e.g., "openai", "deepgram",
	// "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API. When empty,
	// the conventional environment variable for the provider is consulted at
	// startup.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "whisper-1", "gpt-4o", "nova-2").
	Model string `yaml:"model"`

	// Voice selects a synthesis voice where the provider supports it.
	Voice string `yaml:"voice"`
}

// Default returns a Config with the stock values: listen on :8080, info
// logging, 4 s capture window, 16 kHz wake streaming, OpenAI for both
// gateways and ElevenLabs for speech.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		MusicService: MusicConfig{
			BaseURL:           "http://localhost:5000",
			CatalogTTLSeconds: 300,
		},
		Assistant: AssistantConfig{
			CaptureWindowMS: 4000,
			SampleRate:      16000,
		},
		Providers: ProvidersConfig{
			STT:    ProviderEntry{Name: "openai", Model: "whisper-1"},
			Intent: ProviderEntry{Name: "openai", Model: "gpt-4o"},
			TTS:    ProviderEntry{Name: "elevenlabs"},
		},
	}
}
