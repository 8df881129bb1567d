package deepgram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

func TestTranscribe_Success(t *testing.T) {
	var gotAuth, gotContentType, gotModel string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"results":{"channels":[{"alternatives":[{"transcript":"play something upbeat"}]}]}}`)
	}))
	defer srv.Close()

	p, err := New("test-key", WithBatchEndpoint(srv.URL), WithModel("nova-3"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Transcribe(context.Background(), audio.Utterance{
		Data:     []byte("pcm-bytes"),
		MIMEType: "audio/wav",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "play something upbeat" {
		t.Errorf("transcript = %q", got)
	}
	if gotAuth != "Token test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotContentType != "audio/wav" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotModel != "nova-3" {
		t.Errorf("model = %q", gotModel)
	}
	if string(gotBody) != "pcm-bytes" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestTranscribe_EmptyUtterance(t *testing.T) {
	p, _ := New("test-key")
	got, err := p.Transcribe(context.Background(), audio.Utterance{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
}

func TestTranscribe_NoAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"results":{"channels":[]}}`)
	}))
	defer srv.Close()

	p, _ := New("test-key", WithBatchEndpoint(srv.URL))
	got, err := p.Transcribe(context.Background(), audio.Utterance{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
}

func TestTranscribe_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"err_msg":"rate limited"}`)
	}))
	defer srv.Close()

	p, _ := New("test-key", WithBatchEndpoint(srv.URL))
	_, err := p.Transcribe(context.Background(), audio.Utterance{Data: []byte("x")})
	if !errors.Is(err, stt.ErrTranscription) {
		t.Fatalf("err = %v, want ErrTranscription", err)
	}
}
