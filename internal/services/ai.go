package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// LLMService wraps the configured text-generation provider. All prompts in
// this codebase expect a single-turn completion returning plain text or JSON.
type LLMService struct {
	config *config.LLMConfig
}

func NewLLMService(cfg *config.LLMConfig) *LLMService {
	return &LLMService{config: cfg}
}

// llmTimeout bounds a single completion request across all providers.
const llmTimeout = 60 * time.Second

// Configured reports whether an API key is present. Callers degrade
// gracefully when it is not.
func (s *LLMService) Configured() bool {
	return s.config.APIKey != ""
}

// Generate dispatches a prompt to the configured provider and returns the
// raw text response.
func (s *LLMService) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("llm not configured")
	}

	logger.Debug().Str("provider", s.config.Provider).Int("prompt_len", len(prompt)).Msg("llm request")

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	switch s.config.Provider {
	case "openai":
		return s.callOpenAI(ctx, prompt, maxTokens)
	case "gemini":
		return s.callGemini(ctx, prompt)
	default:
		// anthropic is the default provider
		return s.callAnthropic(ctx, prompt, maxTokens)
	}
}

// callAnthropic handles the Anthropic API using the native SDK
func (s *LLMService) callAnthropic(ctx context.Context, prompt string, maxTokens int) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(s.config.APIKey),
	)

	if maxTokens == 0 {
		maxTokens = 4096
	}

	model := s.config.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	logger.Debug().Int("response_len", content.Len()).Msg("anthropic response")
	return content.String(), nil
}

// callOpenAI handles OpenAI and OpenAI-compatible endpoints
func (s *LLMService) callOpenAI(ctx context.Context, prompt string, maxTokens int) (string, error) {
	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	model := s.config.Model
	if model == "" {
		model = openai.GPT4o
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// callGemini handles the Google Gemini API using the native SDK
func (s *LLMService) callGemini(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: s.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("gemini client error: %w", err)
	}

	model := s.config.Model
	if model == "" {
		model = "gemini-3.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	return resp.Text(), nil
}

// ExtractJSON pulls a JSON object out of a model response that may be
// wrapped in markdown fences or prose.
func ExtractJSON(content string) string {
	content = stripCodeFence(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}

	candidate := content[start : end+1]
	if !gjson.Valid(candidate) {
		return ""
	}
	return candidate
}

// ExtractJSONArray pulls a JSON array out of a model response.
func ExtractJSONArray(content string) string {
	content = stripCodeFence(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}

	candidate := content[start : end+1]
	if !gjson.Valid(candidate) {
		return ""
	}
	return candidate
}

func stripCodeFence(content string) string {
	if idx := strings.Index(content, "```json"); idx != -1 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx != -1 {
		content = content[idx+3:]
		if end := strings.Index(content, "```"); end != -1 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}
