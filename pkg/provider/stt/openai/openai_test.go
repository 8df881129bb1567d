package openai_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt/openai"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *openai.Transcriber) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr, err := openai.New("test-key", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, tr
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := openai.New(""); err == nil {
		t.Fatal("want error for empty apiKey, got nil")
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	var gotPath, gotContentType string
	_, tr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" play bohemian rhapsody "}`))
	})

	got, err := tr.Transcribe(context.Background(), audio.Utterance{
		Data:     []byte("webm-bytes"),
		MIMEType: "audio/webm",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "play bohemian rhapsody" {
		t.Errorf("transcript: want %q, got %q", "play bohemian rhapsody", got)
	}
	if !strings.HasSuffix(gotPath, "/audio/transcriptions") {
		t.Errorf("path: want .../audio/transcriptions, got %q", gotPath)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("content type: want multipart/form-data, got %q", gotContentType)
	}
}

func TestTranscribe_EmptyUtteranceIsSilence(t *testing.T) {
	t.Parallel()

	called := false
	_, tr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	got, err := tr.Transcribe(context.Background(), audio.Utterance{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "" {
		t.Errorf("transcript: want empty, got %q", got)
	}
	if called {
		t.Error("empty utterance must not hit the API")
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()

	_, tr := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := tr.Transcribe(context.Background(), audio.Utterance{
		Data:     []byte("webm-bytes"),
		MIMEType: "audio/webm",
	})
	if !errors.Is(err, stt.ErrTranscription) {
		t.Fatalf("want stt.ErrTranscription, got %v", err)
	}
}
