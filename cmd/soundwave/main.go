// Command soundwave is the main entry point for the Soundwave voice assistant
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/assistant"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/assistant/dispatch"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/catalog"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/config"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/health"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/player"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/server"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio/portaudio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent"
	intentoai "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent/openai"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt/deepgram"
	sttoai "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt/openai"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts/elevenlabs"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Optional .env overlay for provider keys; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "soundwave: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "soundwave: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("soundwave starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"music_service", cfg.MusicService.BaseURL,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "soundwave",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	providers, err := buildProviders(cfg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// The capture device and wake stream both need the PortAudio runtime.
	// A host without audio hardware still serves the HTTP endpoint; capture
	// attempts then fail with the device-denied path.
	if err := portaudio.Init(); err != nil {
		slog.Warn("audio subsystem unavailable, local capture disabled", "err", err)
	} else {
		defer func() {
			if err := portaudio.Terminate(); err != nil {
				slog.Warn("audio subsystem shutdown error", "err", err)
			}
		}()
	}

	// Song library: HTTP fetcher against the music service, wrapped in a
	// TTL cache with stale fallback.
	fetcher, err := catalog.NewFetcher(cfg.MusicService.BaseURL)
	if err != nil {
		slog.Error("failed to create catalog fetcher", "err", err)
		return 1
	}
	library := catalog.NewCache(fetcher, catalog.WithTTL(cfg.MusicService.CatalogTTL()))

	// Player and command dispatch.
	deck := player.NewMemory(nil)
	resolver := dispatch.NewSubstringResolver(library)
	dispatcher := dispatch.New(deck, resolver, nil)

	// Assistant pipeline: state machine, spoken feedback, capture session,
	// wake-word listener.
	machine := assistant.NewMachine()
	feedback := assistant.NewFeedback(machine, providers.Speaker, nil)
	device := portaudio.NewDevice()
	session := assistant.NewSession(machine, device, providers.Transcriber, providers.Intent, dispatcher, feedback,
		assistant.WithCaptureWindow(cfg.Assistant.CaptureWindow()))

	var listener *assistant.Listener
	if providers.Streamer != nil {
		wakeSource := assistant.NewStreamSource(providers.Streamer, device, stt.StreamConfig{
			SampleRate: cfg.Assistant.SampleRate,
			Channels:   1,
		})
		listener = assistant.NewListener(machine, wakeSource, session.Start,
			assistant.WithPhrases(cfg.Assistant.WakePhrases))
	} else {
		slog.Warn("no streaming transcription provider configured, wake phrase disabled")
	}

	voice := server.NewVoiceHandler(providers.Transcriber, providers.Intent, "", nil)
	srv := server.New(cfg.Server.ListenAddr, voice, []health.Checker{
		health.CatalogChecker(library),
	})

	slog.Info("server ready — press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if listener != nil {
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		session.Wait()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// providers bundles the gateway implementations selected by configuration.
type providers struct {
	Transcriber stt.Transcriber
	Streamer    stt.StreamProvider
	Intent      intent.Resolver
	Speaker     tts.Speaker
}

// buildProviders instantiates the configured gateway implementations. API
// keys left empty in the config fall back to the provider's conventional
// environment variable.
func buildProviders(cfg *config.Config) (*providers, error) {
	ps := &providers{}

	entry := cfg.Providers.STT
	switch entry.Name {
	case "openai":
		t, err := newOpenAITranscriber(entry)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", entry.Name, err)
		}
		ps.Transcriber = t
	case "deepgram":
		// Deepgram covers both roles: prerecorded transcription for command
		// utterances and the streaming wake-word source.
		d, err := newDeepgram(entry)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", entry.Name, err)
		}
		ps.Transcriber = d
		ps.Streamer = d
	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
	slog.Info("provider created", "kind", "stt", "name", entry.Name)

	// With OpenAI batch transcription the wake stream comes from Deepgram
	// when a key is available; without one the wake phrase stays disabled.
	if ps.Streamer == nil {
		if key := os.Getenv("DEEPGRAM_API_KEY"); key != "" {
			s, err := deepgram.New(key)
			if err != nil {
				return nil, fmt.Errorf("create wake stream provider: %w", err)
			}
			ps.Streamer = s
			slog.Info("provider created", "kind", "stt-stream", "name", "deepgram")
		}
	}

	entry = cfg.Providers.Intent
	switch entry.Name {
	case "openai":
		var opts []intentoai.Option
		if entry.Model != "" {
			opts = append(opts, intentoai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, intentoai.WithBaseURL(entry.BaseURL))
		}
		r, err := intentoai.New(apiKey(entry, "OPENAI_API_KEY"), opts...)
		if err != nil {
			return nil, fmt.Errorf("create intent provider %q: %w", entry.Name, err)
		}
		ps.Intent = r
	default:
		return nil, fmt.Errorf("unknown intent provider %q", entry.Name)
	}
	slog.Info("provider created", "kind", "intent", "name", entry.Name)

	entry = cfg.Providers.TTS
	switch entry.Name {
	case "elevenlabs":
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		voice := entry.Voice
		if voice == "" {
			voice = os.Getenv("ELEVENLABS_VOICE_ID")
		}
		s, err := elevenlabs.New(apiKey(entry, "ELEVENLABS_API_KEY"), voice, opts...)
		if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", entry.Name, err)
		}
		ps.Speaker = s
	default:
		return nil, fmt.Errorf("unknown tts provider %q", entry.Name)
	}
	slog.Info("provider created", "kind", "tts", "name", entry.Name)

	return ps, nil
}

// newOpenAITranscriber builds the batch transcription gateway from an entry,
// with the usual environment fallback for the key.
func newOpenAITranscriber(entry config.ProviderEntry) (*sttoai.Transcriber, error) {
	var opts []sttoai.Option
	if entry.Model != "" {
		opts = append(opts, sttoai.WithModel(entry.Model))
	}
	if entry.BaseURL != "" {
		opts = append(opts, sttoai.WithBaseURL(entry.BaseURL))
	}
	return sttoai.New(apiKey(entry, "OPENAI_API_KEY"), opts...)
}

// newDeepgram builds the Deepgram gateway from an entry.
func newDeepgram(entry config.ProviderEntry) (*deepgram.Provider, error) {
	var opts []deepgram.Option
	if entry.Model != "" {
		opts = append(opts, deepgram.WithModel(entry.Model))
	}
	return deepgram.New(apiKey(entry, "DEEPGRAM_API_KEY"), opts...)
}

// apiKey returns the configured key, falling back to the named environment
// variable.
func apiKey(entry config.ProviderEntry, envVar string) string {
	if entry.APIKey != "" {
		return entry.APIKey
	}
	return os.Getenv(envVar)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
