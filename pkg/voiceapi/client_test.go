package voiceapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
)

func testUtterance() audio.Utterance {
	return audio.Utterance{
		Data:       []byte("fake-webm-bytes"),
		MIMEType:   "audio/webm",
		CapturedAt: time.Now(),
	}
}

func TestProcess_Success(t *testing.T) {
	var gotPath, gotField string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotField = header.Filename
		gotBody, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"transcript":"play starlight","command":{"action":"play","song":"starlight"}}`)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := client.Process(context.Background(), testUtterance())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if gotPath != "/api/voice/command" {
		t.Errorf("path = %q", gotPath)
	}
	if gotField != "utterance.webm" {
		t.Errorf("filename = %q", gotField)
	}
	if string(gotBody) != "fake-webm-bytes" {
		t.Errorf("uploaded body = %q", gotBody)
	}
	if res.Transcript != "play starlight" {
		t.Errorf("transcript = %q", res.Transcript)
	}
	if res.Command.Action != command.ActionPlay || res.Command.Song != "starlight" {
		t.Errorf("command = %+v", res.Command)
	}
}

func TestProcess_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"No speech detected"}`)
	}))
	defer srv.Close()

	client, _ := New(srv.URL)
	_, err := client.Process(context.Background(), testUtterance())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if !strings.Contains(err.Error(), "No speech detected") {
		t.Errorf("err = %v, missing server message", err)
	}
}

func TestProcess_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"Transcribing audio failed","error":"upstream timeout"}`)
	}))
	defer srv.Close()

	client, _ := New(srv.URL)
	_, err := client.Process(context.Background(), testUtterance())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	if !strings.Contains(err.Error(), "upstream timeout") {
		t.Errorf("err = %v, missing error detail", err)
	}
}

func TestProcess_EmptyUtterance(t *testing.T) {
	client, _ := New("http://localhost:8080")
	_, err := client.Process(context.Background(), audio.Utterance{})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty baseURL")
	}
}

func TestExtFor(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/wav", ".wav"},
		{"audio/mpeg", ".mp3"},
		{"audio/webm", ".webm"},
		{"", ".webm"},
	}
	for _, tt := range tests {
		if got := extFor(tt.mime); got != tt.want {
			t.Errorf("extFor(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
