package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

// maxUploadBytes bounds the multipart form held in memory; a 4 s clip is well
// under this.
const maxUploadBytes = 25 << 20

// VoiceHandler serves POST /api/voice/command: accept one uploaded utterance,
// transcribe it, resolve the command, and return both to the caller. The
// handler performs no player mutation — dispatch stays client-side where the
// player lives.
type VoiceHandler struct {
	transcriber stt.Transcriber
	resolver    intent.Resolver
	metrics     *observe.Metrics
	tmpDir      string
}

// NewVoiceHandler creates a VoiceHandler. tmpDir is where uploads are spooled;
// empty means the system temp directory. metrics may be nil for defaults.
func NewVoiceHandler(transcriber stt.Transcriber, resolver intent.Resolver, tmpDir string, metrics *observe.Metrics) *VoiceHandler {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &VoiceHandler{
		transcriber: transcriber,
		resolver:    resolver,
		metrics:     metrics,
		tmpDir:      tmpDir,
	}
}

// commandResponse is the success body.
type commandResponse struct {
	Transcript string          `json:"transcript"`
	Command    command.Command `json:"command"`
}

// errorResponse is the body for every non-2xx outcome.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ServeHTTP implements the voice command endpoint.
func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx).With(slog.String("component", "voiceapi"))

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "No audio file provided"})
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "No audio file provided"})
		return
	}
	defer file.Close()

	// Spool the upload to disk the way the transcription call expects, and
	// remove it on every exit path.
	path := filepath.Join(h.tmpDir, fmt.Sprintf("voice-%d%s", time.Now().UnixMilli(), uploadExt(header.Filename, header.Header.Get("Content-Type"))))
	if err := spool(file, path); err != nil {
		log.ErrorContext(ctx, "spooling upload failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Voice processing failed", Error: err.Error()})
		return
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.ErrorContext(ctx, "reading spooled upload failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Voice processing failed", Error: err.Error()})
		return
	}
	utt := audio.Utterance{
		Data:       data,
		MIMEType:   mimeTypeFor(header),
		CapturedAt: time.Now(),
	}

	start := time.Now()
	transcript, err := h.transcriber.Transcribe(ctx, utt)
	h.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordGatewayError(ctx, "stt", "transcription")
		h.metrics.RecordPipelineRun(ctx, "error")
		log.ErrorContext(ctx, "transcription failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Transcribing audio failed", Error: err.Error()})
		return
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		h.metrics.RecordPipelineRun(ctx, "silent")
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "No speech detected"})
		return
	}
	log.InfoContext(ctx, "transcribed", slog.String("transcript", transcript))

	start = time.Now()
	cmd, err := h.resolver.Resolve(ctx, transcript)
	h.metrics.IntentDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordGatewayError(ctx, "intent", "intent")
		h.metrics.RecordPipelineRun(ctx, "error")
		log.ErrorContext(ctx, "intent resolution failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Understanding intent failed", Error: err.Error()})
		return
	}

	h.metrics.RecordPipelineRun(ctx, "ok")
	h.metrics.RecordCommand(ctx, string(cmd.Action))
	log.InfoContext(ctx, "resolved command", slog.String("action", string(cmd.Action)))
	writeJSON(w, http.StatusOK, commandResponse{Transcript: transcript, Command: cmd})
}

// spool copies the uploaded file to path.
func spool(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// uploadExt picks a file extension from the uploaded filename, falling back
// to the declared content type.
func uploadExt(filename, contentType string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".webm"
}

// mimeTypeFor returns the utterance content type for an upload.
func mimeTypeFor(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "audio/webm"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"message":"encoding response failed"}`, http.StatusInternalServerError)
	}
}
