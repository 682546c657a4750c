package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/masab-afzaal/mindbuddy/pkg/config"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var ErrEmptyResponse = errors.New("ai: empty response from provider")

// Message is one turn of conversation context passed to the provider.
type Message struct {
	Role    string
	Content string
}

// Request describes a single chat-completion call.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
	JSONMode    bool
}

// TokenUsage mirrors the provider's usage block.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Completion is the provider's answer plus response metadata.
type Completion struct {
	Content      string
	Model        string
	ResponseTime float64 // seconds
	TokenUsage   *TokenUsage
}

// Client is the injected LLM capability. Services depend on this interface
// so tests can substitute a canned implementation.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Model() string
}

// GroqClient talks to Groq's OpenAI-compatible chat-completions endpoint.
type GroqClient struct {
	client  openaiclient.Client
	model   string
	timeout time.Duration
}

func NewGroqClient(cfg config.GroqConfig) (*GroqClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai: groq api key is not configured")
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(cfg.APIKey),
		openaioption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}

	model := cfg.Model
	if model == "" {
		model = "llama3-8b-8192"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GroqClient{
		client:  openaiclient.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *GroqClient) Model() string {
	return c.model
}

func (c *GroqClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openaiclient.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openaiclient.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openaiclient.AssistantMessage(m.Content))
		case RoleSystem:
			messages = append(messages, openaiclient.SystemMessage(m.Content))
		default:
			messages = append(messages, openaiclient.UserMessage(m.Content))
		}
	}

	params := openaiclient.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaiclient.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openaiclient.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openaiclient.Float(req.TopP)
	}
	if req.JSONMode {
		params.ResponseFormat = openaiclient.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	completion := &Completion{
		Content:      resp.Choices[0].Message.Content,
		Model:        c.model,
		ResponseTime: elapsed,
		TokenUsage: &TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	return completion, nil
}
