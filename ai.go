package quizsystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Provider names an AI backend
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderQwen   Provider = "qwen"
	ProviderErnie  Provider = "ernie"
	ProviderZhipu  Provider = "zhipu"
	ProviderMock   Provider = "mock"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// ProviderInfo is the static description of a provider
type ProviderInfo struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// Providers is the built-in provider table
var Providers = map[Provider]ProviderInfo{
	ProviderOpenAI: {Name: "OpenAI", BaseURL: "https://api.openai.com/v1", Model: "gpt-3.5-turbo"},
	ProviderQwen:   {Name: "Qwen", BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", Model: "qwen-plus"},
	ProviderErnie:  {Name: "ERNIE Bot", BaseURL: "https://aip.baidubce.com/rpc/2.0/ai_custom/v1/wenxinworkshop", Model: "ernie-bot-turbo"},
	ProviderZhipu:  {Name: "Zhipu AI", BaseURL: "https://open.bigmodel.cn/api/paas/v4", Model: "glm-4-flash"},
	ProviderMock:   {Name: "Mock AI", Model: "mock"},
}

// Valid reports whether p is in the provider table
func (p Provider) Valid() bool {
	_, ok := Providers[p]
	return ok
}

// AIConfig is the user-selected provider configuration
type AIConfig struct {
	Provider      Provider `json:"provider" yaml:"provider"`
	APIKey        string   `json:"api_key,omitempty" yaml:"api_key"`
	CustomBaseURL string   `json:"custom_base_url,omitempty" yaml:"base_url"`
	Model         string   `json:"model,omitempty" yaml:"model"`
}

// Merge returns c with every non-empty field of override applied
func (c AIConfig) Merge(override AIConfig) AIConfig {
	if override.Provider != "" {
		c.Provider = override.Provider
	}
	if override.APIKey != "" {
		c.APIKey = override.APIKey
	}
	if override.CustomBaseURL != "" {
		c.CustomBaseURL = override.CustomBaseURL
	}
	if override.Model != "" {
		c.Model = override.Model
	}
	return c
}

// ResolvedProvider is a provider entry with user overrides applied
type ResolvedProvider struct {
	Provider Provider
	Name     string
	BaseURL  string
	Model    string
	APIKey   string
}

// ResolveProvider applies the user's overrides to the provider table entry
func (c AIConfig) ResolveProvider() (ResolvedProvider, error) {
	info, ok := Providers[c.Provider]
	if !ok {
		return ResolvedProvider{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
	}
	rp := ResolvedProvider{
		Provider: c.Provider,
		Name:     info.Name,
		BaseURL:  info.BaseURL,
		Model:    info.Model,
		APIKey:   c.APIKey,
	}
	if c.CustomBaseURL != "" {
		rp.BaseURL = strings.TrimSuffix(c.CustomBaseURL, "/")
	}
	if c.Model != "" {
		rp.Model = c.Model
	}
	return rp, nil
}

// AIClient sends single-turn prompts to the configured provider
type AIClient struct {
	provider   ResolvedProvider
	openai     *openai.Client
	httpClient *http.Client
	transcript *LLMLogger
	log        zerolog.Logger
}

// ClientOption configures an AIClient
type ClientOption func(*AIClient)

// WithHTTPClient replaces the HTTP client used for provider requests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *AIClient) { c.httpClient = hc }
}

// WithTranscript records every prompt and response to the given logger
func WithTranscript(l *LLMLogger) ClientOption {
	return func(c *AIClient) { c.transcript = l }
}

// NewAIClient creates a client for cfg
func NewAIClient(cfg AIConfig, opts ...ClientOption) (*AIClient, error) {
	rp, err := cfg.ResolveProvider()
	if err != nil {
		return nil, err
	}
	c := &AIClient{
		provider:   rp,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		log:        componentLogger("ai").With().Str("provider", string(rp.Provider)).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch rp.Provider {
	case ProviderOpenAI, ProviderZhipu, ProviderQwen:
		oc := openai.DefaultConfig(rp.APIKey)
		oc.BaseURL = rp.BaseURL
		oc.HTTPClient = c.httpClient
		c.openai = openai.NewClientWithConfig(oc)
	}
	return c, nil
}

// Provider returns the resolved provider of the client
func (c *AIClient) Provider() Provider {
	return c.provider.Provider
}

// Complete sends prompt as a single user message and returns the text content
// of the reply. The mock provider never reaches this method's network path;
// callers handle it through MockEvaluation and MockQuestions.
func (c *AIClient) Complete(ctx context.Context, module, prompt string, jsonMode bool) (string, error) {
	if c.transcript != nil {
		c.transcript.LogLLMRequest(module, prompt)
	}

	var (
		content string
		err     error
	)
	start := time.Now()
	switch c.provider.Provider {
	case ProviderOpenAI, ProviderZhipu, ProviderQwen:
		content, err = c.completeOpenAI(ctx, prompt, jsonMode)
	case ProviderErnie:
		content, err = c.completeErnie(ctx, prompt)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.provider.Provider)
	}
	if err != nil {
		c.log.Error().Err(err).Str("module", module).Msg("AI call failed")
		return "", err
	}

	c.log.Debug().
		Str("module", module).
		Dur("elapsed", time.Since(start)).
		Int("response_len", len(content)).
		Msg("AI call complete")
	if c.transcript != nil {
		c.transcript.LogLLMResponse(module, content)
	}
	return content, nil
}

func (c *AIClient) completeOpenAI(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.provider.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	// only OpenAI itself is known to honor response_format
	if jsonMode && c.provider.Provider == ProviderOpenAI {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.openai.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		netErr := &NetworkError{Provider: c.provider.Provider, Err: err}
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			netErr.StatusCode = apiErr.HTTPStatusCode
		case errors.As(err, &reqErr):
			netErr.StatusCode = reqErr.HTTPStatusCode
		}
		return "", netErr
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no content in %s response", ErrResponseFormat, c.provider.Provider)
	}
	return resp.Choices[0].Message.Content, nil
}

type ernieMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ernieRequest struct {
	Messages        []ernieMessage `json:"messages"`
	Temperature     float64        `json:"temperature"`
	MaxOutputTokens int            `json:"max_output_tokens"`
}

type ernieResponse struct {
	Result    string `json:"result"`
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

func (c *AIClient) completeErnie(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ernieRequest{
		Messages:        []ernieMessage{{Role: "user", Content: prompt}},
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.provider.BaseURL + "/chat/completions?access_token=" + url.QueryEscape(c.provider.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &NetworkError{Provider: ProviderErnie, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &NetworkError{Provider: ProviderErnie, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var parsed ernieResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseFormat, err)
	}
	if parsed.ErrorCode != 0 {
		return "", &NetworkError{
			Provider:   ProviderErnie,
			StatusCode: resp.StatusCode,
			Status:     fmt.Sprintf("error %d: %s", parsed.ErrorCode, parsed.ErrorMsg),
		}
	}
	if strings.TrimSpace(parsed.Result) == "" {
		return "", fmt.Errorf("%w: empty result in ernie response", ErrResponseFormat)
	}
	return parsed.Result, nil
}
