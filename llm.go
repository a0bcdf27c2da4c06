package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"
const defaultOpenAIBaseURL = "https://api.openai.com"

const defaultGenerationTimeout = 30 * time.Second
const defaultGenerationAttempts = 3
const defaultRetryBaseDelay = time.Second

type LLMUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *LLMUsage) Add(other LLMUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// GenerationClient sends a full conversation transcript to the configured
// text-generation provider. The transcript is owned by the caller and
// passed in explicitly; the client holds no conversation state.
type GenerationClient struct {
	provider      string
	model         string
	apiKey        string
	openAIBaseURL string // overridable for tests
	timeout       time.Duration
	maxAttempts   int
	retryBase     time.Duration
	sleep         func(time.Duration) // stubbed in tests
}

func NewGenerationClient(cfg Config) *GenerationClient {
	model := cfg.LLMModel
	if model == "" {
		if cfg.LLMProvider == "openai" {
			model = defaultOpenAIModel
		} else {
			model = defaultAnthropicModel
		}
	}
	apiKey := cfg.AnthropicAPIKey
	if cfg.LLMProvider == "openai" {
		apiKey = cfg.OpenAIAPIKey
	}
	timeout := defaultGenerationTimeout
	if cfg.GenerationTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.GenerationTimeoutSeconds) * time.Second
	}
	return &GenerationClient{
		provider:      cfg.LLMProvider,
		model:         model,
		apiKey:        apiKey,
		openAIBaseURL: defaultOpenAIBaseURL,
		timeout:       timeout,
		maxAttempts:   defaultGenerationAttempts,
		retryBase:     defaultRetryBaseDelay,
		sleep:         time.Sleep,
	}
}

// Generate appends userText as a user turn, sends the whole transcript and
// appends the reply as an assistant turn. Failed attempts append nothing;
// a successful call grows the transcript by exactly two messages. When the
// retry budget is exhausted the user turn stays in the transcript and the
// caller decides how to degrade.
func (c *GenerationClient) Generate(ctx context.Context, transcript *Transcript, userText string) (string, LLMUsage, error) {
	transcript.Append("user", userText)

	totalUsage := LLMUsage{}
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, usage, err := c.call(callCtx, transcript.Messages)
		cancel()
		totalUsage.Add(usage)
		if err == nil {
			transcript.Append("assistant", text)
			return text, totalUsage, nil
		}
		lastErr = err
		log.Printf("llm generate attempt=%d/%d provider=%s err=%v", attempt, c.maxAttempts, c.provider, err)
		if attempt < c.maxAttempts {
			c.sleep(c.retryBase << (attempt - 1))
		}
	}
	return "", totalUsage, &GenerationUnavailableError{Attempts: c.maxAttempts, Err: lastErr}
}

func (c *GenerationClient) call(ctx context.Context, messages []ChatMessage) (string, LLMUsage, error) {
	switch c.provider {
	case "openai":
		return c.callOpenAI(ctx, messages)
	default:
		return c.callAnthropic(ctx, messages)
	}
}

// --- Anthropic ---

func (c *GenerationClient) callAnthropic(ctx context.Context, messages []ChatMessage) (string, LLMUsage, error) {
	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 4096,
		System:    system,
		Messages:  turns,
	})
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := LLMUsage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d", len(block.Text), usage.InputTokens, usage.OutputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GenerationClient) callOpenAI(ctx context.Context, messages []ChatMessage) (string, LLMUsage, error) {
	reqMessages := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := openAIRequest{Model: c.model, Messages: reqMessages}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.openAIBaseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return "", LLMUsage{}, fmt.Errorf("OpenAI API status %d", resp.StatusCode)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", LLMUsage{}, fmt.Errorf("parsing OpenAI response: %w", err)
	}

	if openAIResp.Error != nil {
		return "", LLMUsage{}, fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", LLMUsage{}, fmt.Errorf("no choices in OpenAI response")
	}
	usage := LLMUsage{}
	if openAIResp.Usage != nil {
		usage.InputTokens = openAIResp.Usage.PromptTokens
		usage.OutputTokens = openAIResp.Usage.CompletionTokens
	}

	log.Printf("llm openai response size=%d tokens_in=%d tokens_out=%d", len(openAIResp.Choices[0].Message.Content), usage.InputTokens, usage.OutputTokens)
	return openAIResp.Choices[0].Message.Content, usage, nil
}
