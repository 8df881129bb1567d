package deepgram

import (
	"net/url"
	"testing"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg := stt.StreamConfig{
		SampleRate: 16000,
		Channels:   1,
		Language:   "en",
	}

	rawURL, err := p.buildURL(cfg)
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "language", "en", q.Get("language"))
	assertEqual(t, "punctuate", "true", q.Get("punctuate"))
	assertEqual(t, "interim_results", "true", q.Get("interim_results"))
	assertEqual(t, "encoding", "linear16", q.Get("encoding"))
	assertEqual(t, "sample_rate", "16000", q.Get("sample_rate"))
	assertEqual(t, "channels", "1", q.Get("channels"))
}

func TestBuildURL_CustomModel(t *testing.T) {
	p, err := New("key", WithModel("base"), WithLanguage("de-DE"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.StreamConfig{})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	q := u.Query()

	assertEqual(t, "model", "base", q.Get("model"))
	assertEqual(t, "language", "de-DE", q.Get("language"))
	assertEqual(t, "sample_rate", "16000", q.Get("sample_rate"))
}

func TestBuildURL_LanguageOverriddenByCfg(t *testing.T) {
	// cfg.Language takes precedence over the provider-level default.
	p, err := New("key", WithLanguage("en"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.StreamConfig{Language: "fr-FR", SampleRate: 16000})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	assertEqual(t, "language", "fr-FR", u.Query().Get("language"))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("want error for empty apiKey, got nil")
	}
}

// ---- response parsing tests ----

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantText string
		wantFin  bool
	}{
		{
			name:     "final result",
			raw:      `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hey cloudly","confidence":0.98}]}}`,
			wantOK:   true,
			wantText: "hey cloudly",
			wantFin:  true,
		},
		{
			name:     "interim result",
			raw:      `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hey clo","confidence":0.4}]}}`,
			wantOK:   true,
			wantText: "hey clo",
			wantFin:  false,
		},
		{
			name:   "metadata message ignored",
			raw:    `{"type":"Metadata","request_id":"abc"}`,
			wantOK: false,
		},
		{
			name:   "no alternatives ignored",
			raw:    `{"type":"Results","channel":{"alternatives":[]}}`,
			wantOK: false,
		},
		{
			name:   "invalid JSON ignored",
			raw:    `{not json`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseResponse([]byte(tt.raw))
			if ok != tt.wantOK {
				t.Fatalf("ok: want %v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if got.Text != tt.wantText {
				t.Errorf("text: want %q, got %q", tt.wantText, got.Text)
			}
			if got.IsFinal != tt.wantFin {
				t.Errorf("is_final: want %v, got %v", tt.wantFin, got.IsFinal)
			}
		})
	}
}

// assertEqual fails the test when want != got for the named query parameter.
func assertEqual(t *testing.T, name, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s: want %q, got %q", name, want, got)
	}
}
