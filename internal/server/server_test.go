package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/catalog"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/health"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
	intentmock "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent/mock"
	sttmock "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt/mock"
)

func newTestServer(t *testing.T, transcriber *sttmock.Transcriber, resolver *intentmock.Resolver) (*Server, string) {
	t.Helper()
	tmp := t.TempDir()
	voice := NewVoiceHandler(transcriber, resolver, tmp, nil)
	srv := New(":0", voice, nil)
	return srv, tmp
}

func postAudio(t *testing.T, handler http.Handler, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", "clip.webm")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice/command", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestVoiceCommand_Success(t *testing.T) {
	transcriber := &sttmock.Transcriber{Text: "play bohemian rhapsody"}
	resolver := &intentmock.Resolver{Command: command.Command{
		Action: command.ActionPlay,
		Song:   "bohemian rhapsody",
	}}
	srv, tmp := newTestServer(t, transcriber, resolver)

	rec := postAudio(t, srv.Handler(), []byte("fake-webm-bytes"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	var resp commandResponse
	decodeBody(t, rec, &resp)
	if resp.Transcript != "play bohemian rhapsody" {
		t.Errorf("transcript = %q", resp.Transcript)
	}
	if resp.Command.Action != command.ActionPlay || resp.Command.Song != "bohemian rhapsody" {
		t.Errorf("command = %+v", resp.Command)
	}
	if got := resolver.Calls[0]; got != "play bohemian rhapsody" {
		t.Errorf("resolver saw %q", got)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up: %v", entries)
	}
}

func TestVoiceCommand_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t, &sttmock.Transcriber{}, &intentmock.Resolver{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "no audio here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice/command", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != "No audio file provided" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestVoiceCommand_TranscriptionFailure(t *testing.T) {
	transcriber := &sttmock.Transcriber{Err: errors.New("upstream timeout")}
	srv, tmp := newTestServer(t, transcriber, &intentmock.Resolver{})

	rec := postAudio(t, srv.Handler(), []byte("audio"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != "Transcribing audio failed" {
		t.Errorf("message = %q", resp.Message)
	}
	if !strings.Contains(resp.Error, "upstream timeout") {
		t.Errorf("error detail = %q", resp.Error)
	}

	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up after failure: %v", entries)
	}
}

func TestVoiceCommand_NoSpeech(t *testing.T) {
	transcriber := &sttmock.Transcriber{Text: "   "}
	resolver := &intentmock.Resolver{}
	srv, _ := newTestServer(t, transcriber, resolver)

	rec := postAudio(t, srv.Handler(), []byte("audio"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != "No speech detected" {
		t.Errorf("message = %q", resp.Message)
	}
	if resolver.CallCount() != 0 {
		t.Error("resolver called despite empty transcript")
	}
}

func TestVoiceCommand_IntentFailure(t *testing.T) {
	transcriber := &sttmock.Transcriber{Text: "skip this one"}
	resolver := &intentmock.Resolver{Err: errors.New("model unavailable")}
	srv, _ := newTestServer(t, transcriber, resolver)

	rec := postAudio(t, srv.Handler(), []byte("audio"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != "Understanding intent failed" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestVoiceCommand_UploadReachesTranscriber(t *testing.T) {
	transcriber := &sttmock.Transcriber{Text: "pause"}
	resolver := &intentmock.Resolver{Command: command.Command{Action: command.ActionPause}}
	srv, _ := newTestServer(t, transcriber, resolver)

	payload := []byte("pcm pcm pcm")
	rec := postAudio(t, srv.Handler(), payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
	}

	if transcriber.CallCount() != 1 {
		t.Fatalf("transcriber calls = %d, want 1", transcriber.CallCount())
	}
	utt := transcriber.Calls[0]
	if !bytes.Equal(utt.Data, payload) {
		t.Errorf("utterance data = %q, want %q", utt.Data, payload)
	}
	if utt.MIMEType == "" {
		t.Error("utterance MIME type unset")
	}
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	store := stubStore{}
	voice := NewVoiceHandler(&sttmock.Transcriber{}, &intentmock.Resolver{}, t.TempDir(), nil)
	srv := New(":0", voice, []health.Checker{health.CatalogChecker(store)})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestUploadExt(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"clip.webm", "", ".webm"},
		{"clip.wav", "audio/webm", ".wav"},
		{"", "", ".webm"},
	}
	for _, tt := range tests {
		if got := uploadExt(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("uploadExt(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
		}
	}
}

type stubStore struct{}

func (stubStore) Songs(_ context.Context) ([]catalog.Song, error) {
	return []catalog.Song{{ID: "1", Title: "Test", Artist: "Band"}}, nil
}
