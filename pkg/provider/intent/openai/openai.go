// Package openai provides an intent resolver backed by the OpenAI chat
// completions API.
//
// The model is pinned to the closed command vocabulary two ways: a fixed
// system instruction enumerating every action, and a response_format JSON
// schema generated from the command shape so the API rejects responses that
// do not conform. Anything that still arrives outside the vocabulary is
// coerced to "unknown" during decoding.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent"
)

const defaultModel = "gpt-4o"

// systemPrompt is the fixed instruction constraining the model to the closed
// command vocabulary.
const systemPrompt = `You are a music assistant for 'Cloudly'.
Analyze the user's natural language command and map it to a JSON object controlling the player.

Available commands:
- play: { action: "play", song: "optional song name query" }
- pause: { action: "pause" }
- next: { action: "next" }
- prev: { action: "prev" }
- volume: { action: "volume", value: number (0-100) }
- shuffle: { action: "shuffle" }
- unknown: { action: "unknown", message: "I didn't catch that." }

If the user requests a specific song, set action to 'play' and 'song' to the search term.
Return ONLY valid JSON.`

// commandShape is the schema source for response_format. Every field is
// required (no omitempty) because strict schema mode demands it.
type commandShape struct {
	Action  string  `json:"action" jsonschema:"enum=play,enum=pause,enum=next,enum=prev,enum=volume,enum=shuffle,enum=unknown"`
	Song    string  `json:"song"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// commandSchema is reflected once at init; the shape never changes at runtime.
var commandSchema = func() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&commandShape{})
}()

// Compile-time assertion that Resolver implements intent.Resolver.
var _ intent.Resolver = (*Resolver)(nil)

// config holds optional configuration for the resolver.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Resolver.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel overrides the chat model. Default: gpt-4o.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Resolver implements intent.Resolver using the OpenAI API.
type Resolver struct {
	client oai.Client
	model  string
}

// New constructs a new OpenAI Resolver. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Resolver, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Resolver{client: oai.NewClient(reqOpts...), model: cfg.model}, nil
}

// Resolve implements intent.Resolver.
func (r *Resolver) Resolve(ctx context.Context, transcript string) (command.Command, error) {
	resp, err := r.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(transcript),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "player_command",
					Schema: commandSchema,
					Strict: param.NewOpt(true),
				},
			},
		},
	})
	if err != nil {
		return command.Command{}, fmt.Errorf("%w: %v", intent.ErrIntent, err)
	}
	if len(resp.Choices) == 0 {
		return command.Command{}, fmt.Errorf("%w: empty choices in response", intent.ErrIntent)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return command.Command{}, fmt.Errorf("%w: empty message content", intent.ErrIntent)
	}

	var cmd command.Command
	if err := json.Unmarshal([]byte(content), &cmd); err != nil {
		return command.Command{}, fmt.Errorf("%w: unmarshal response: %v (raw: %s)", intent.ErrIntent, err, content)
	}
	return cmd, nil
}
