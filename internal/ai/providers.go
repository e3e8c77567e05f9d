package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"google.golang.org/genai"

	"github.com/khrees2412/mockly/internal/config"
)

// ErrOffline is returned by the offline completer; callers fall back to deterministic behavior
var ErrOffline = errors.New("AI provider is offline")

const maxOutputTokens = 1500

// Completer sends one system+user prompt to a model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewCompleter builds the completer for the configured provider
func NewCompleter(cfg *config.Config) (Completer, error) {
	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not configured. Run: mockly config set --key openai_key --value YOUR_KEY")
		}
		return newOpenAICompleter(cfg.OpenAIKey, "", modelOr(cfg.DefaultModel, "gpt-4o-mini")), nil
	case "lmstudio":
		return newOpenAICompleter("lm-studio", strings.TrimRight(cfg.LMStudioURL, "/")+"/v1", modelOr(cfg.DefaultModel, "local-model")), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("Anthropic API key not configured. Run: mockly config set --key anthropic_key --value YOUR_KEY")
		}
		return newAnthropicCompleter(cfg.AnthropicKey, modelOr(cfg.DefaultModel, "claude-3-5-sonnet-20241022")), nil
	case "ollama":
		return newOllamaCompleter(cfg.OllamaURL, modelOr(cfg.DefaultModel, "llama3.2"))
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key not configured. Run: mockly config set --key gemini_key --value YOUR_KEY")
		}
		return &geminiCompleter{apiKey: cfg.GeminiKey, model: modelOr(cfg.DefaultModel, "gemini-2.0-flash")}, nil
	case "offline", "":
		return Offline{}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.AIProvider)
	}
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

// Offline never reaches a model
type Offline struct{}

func (Offline) Complete(context.Context, string, string) (string, error) {
	return "", ErrOffline
}

// openAICompleter uses the responses API. LM Studio is served through its OpenAI-compatible endpoint.
type openAICompleter struct {
	client openai.Client
	model  string
}

func newOpenAICompleter(apiKey, baseURL, model string) *openAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAICompleter{client: openai.NewClient(opts...), model: model}
}

func (o *openAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(maxOutputTokens),
		Instructions:    openai.String(system),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	return strings.TrimSpace(resp.OutputText()), nil
}

type anthropicCompleter struct {
	client anthropic.Client
	model  anthropic.Model
}

func newAnthropicCompleter(apiKey, model string) *anthropicCompleter {
	return &anthropicCompleter{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (a *anthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxOutputTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		System:    []anthropic.TextBlockParam{{Text: system, Type: "text"}},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var text strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

type ollamaCompleter struct {
	client *api.Client
	model  string
}

func newOllamaCompleter(hostURL, model string) (*ollamaCompleter, error) {
	parsed, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama_url %q: %w", hostURL, err)
	}
	return &ollamaCompleter{client: api.NewClient(parsed, http.DefaultClient), model: model}, nil
}

func (o *ollamaCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var response api.ChatResponse
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}

// geminiCompleter creates its client on first use since construction needs a context
type geminiCompleter struct {
	mu     sync.Mutex
	client *genai.Client
	apiKey string
	model  string
}

func (g *geminiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	if g.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			g.mu.Unlock()
			return "", fmt.Errorf("failed to create Gemini client: %w", err)
		}
		g.client = client
	}
	client := g.client
	g.mu.Unlock()

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	return strings.TrimSpace(result.Text()), nil
}
