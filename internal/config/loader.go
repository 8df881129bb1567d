package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// validProviderNames lists the known implementation names per gateway.
var validProviderNames = map[string][]string{
	"stt":    {"openai", "deepgram"},
	"intent": {"openai"},
	"tts":    {"elevenlabs"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Fields absent from the file keep their [Default] values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and validates
// the result. Useful in tests where configs are string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr must not be empty"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.MusicService.BaseURL == "" {
		errs = append(errs, errors.New("music_service.base_url must not be empty"))
	}
	if cfg.MusicService.CatalogTTLSeconds < 0 {
		errs = append(errs, errors.New("music_service.catalog_ttl_seconds must not be negative"))
	}

	if cfg.Assistant.CaptureWindowMS <= 0 {
		errs = append(errs, errors.New("assistant.capture_window_ms must be positive"))
	}
	if cfg.Assistant.SampleRate <= 0 {
		errs = append(errs, errors.New("assistant.sample_rate must be positive"))
	}

	validateProvider(&errs, "stt", cfg.Providers.STT)
	validateProvider(&errs, "intent", cfg.Providers.Intent)
	validateProvider(&errs, "tts", cfg.Providers.TTS)

	return errors.Join(errs...)
}

func validateProvider(errs *[]error, kind string, entry ProviderEntry) {
	if entry.Name == "" {
		*errs = append(*errs, fmt.Errorf("providers.%s.name must not be empty", kind))
		return
	}
	if !slices.Contains(validProviderNames[kind], entry.Name) {
		*errs = append(*errs, fmt.Errorf("providers.%s.name %q is not recognised; valid values: %v",
			kind, entry.Name, validProviderNames[kind]))
	}
}
