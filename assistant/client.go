// Package assistant answers free-text health questions through a hosted
// language model, trying OpenAI first and Gemini second.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"cnis.health/nse/logger"
	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	MaxMessageLength    = 1000
	DefaultSystemPrompt = "You are a helpful health assistant."

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	ErrEmptyMessage   = errors.New("invalid message")
	ErrMessageTooLong = fmt.Errorf("message too long (max %d characters)", MaxMessageLength)
	ErrNoProvider     = errors.New("no assistant provider configured")
	ErrUnavailable    = errors.New("all assistant providers failed")
)

type Config struct {
	OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `envconfig:"CNIS_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string        `envconfig:"CNIS_OPENAI_MODEL" default:"gpt-4o"`
	GeminiKey     string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string        `envconfig:"CNIS_GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1"`
	GeminiModel   string        `envconfig:"CNIS_GEMINI_MODEL" default:"gemini-pro"`
	MaxTokens     int           `envconfig:"CNIS_ASSISTANT_MAX_TOKENS" default:"400"`
	Temperature   float64       `envconfig:"CNIS_ASSISTANT_TEMPERATURE" default:"0.7"`
	Timeout       time.Duration `envconfig:"CNIS_ASSISTANT_TIMEOUT" default:"30s"`
	RetryCount    int           `envconfig:"CNIS_ASSISTANT_RETRY_COUNT" default:"1"`
}

func ReadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

type Question struct {
	Message      string `json:"message"`
	Lang         string `json:"lang,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Answer struct {
	Text     string `json:"answer"`
	Provider string `json:"provider"`
	Usage    *Usage `json:"usage,omitempty"`
}

type Client struct {
	cfg    Config
	openai *resty.Client
	gemini *resty.Client
	log    zerolog.Logger
}

func New(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		openai: newHTTPClient(cfg, cfg.OpenAIBaseURL).SetAuthToken(cfg.OpenAIKey),
		gemini: newHTTPClient(cfg, cfg.GeminiBaseURL).SetQueryParam("key", cfg.GeminiKey),
		log:    logger.NewLogger("Assistant"),
	}
}

func newHTTPClient(cfg Config, baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500)
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// Available reports whether at least one provider has a key.
func (c *Client) Available() bool {
	return c.cfg.OpenAIKey != "" || c.cfg.GeminiKey != ""
}

// Length counts UTF-16 code units, as browsers measure the chat box. Characters
// outside the Basic Multilingual Plane count twice.
func (q Question) Length() int {
	n := 0
	for _, r := range q.Message {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

// Validate checks the message limits without calling any provider.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Message) == "" {
		return ErrEmptyMessage
	}
	if q.Length() > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

func (q Question) systemPrompt() string {
	prompt := q.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	switch strings.ToLower(q.Lang) {
	case "hi":
		prompt += "\nRespond in Hindi."
	case "mr":
		prompt += "\nRespond in Marathi."
	}
	return prompt
}

// Ask returns the first non-empty answer. Provider failures are logged and
// only surface as ErrUnavailable once every configured provider has failed.
func (c *Client) Ask(ctx context.Context, q Question) (Answer, error) {
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}
	if !c.Available() {
		return Answer{}, ErrNoProvider
	}
	log := c.log.With().Str("lang", q.Lang).Int("length", q.Length()).Logger()

	if c.cfg.OpenAIKey != "" {
		answer, err := c.askOpenAI(ctx, q)
		if err == nil {
			log.Info().Str("provider", ProviderOpenAI).Msg("Answered question")
			return answer, nil
		}
		log.Warn().Err(err).Str("provider", ProviderOpenAI).Msg("Provider failed")
	}
	if c.cfg.GeminiKey != "" {
		answer, err := c.askGemini(ctx, q)
		if err == nil {
			log.Info().Str("provider", ProviderGemini).Msg("Answered question")
			return answer, nil
		}
		log.Warn().Err(err).Str("provider", ProviderGemini).Msg("Provider failed")
	}
	return Answer{}, ErrUnavailable
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

func (c *Client) askOpenAI(ctx context.Context, q Question) (Answer, error) {
	var response chatResponse
	resp, err := c.openai.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.cfg.OpenAIModel,
			Messages: []chatMessage{
				{Role: "system", Content: q.systemPrompt()},
				{Role: "user", Content: q.Message},
			},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		}).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		return Answer{}, fmt.Errorf("openai request: %w", err)
	}
	if resp.IsError() {
		return Answer{}, fmt.Errorf("openai returned status %d", resp.StatusCode())
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return Answer{}, errors.New("openai returned no answer")
	}
	return Answer{Text: response.Choices[0].Message.Content, Provider: ProviderOpenAI, Usage: response.Usage}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) askGemini(ctx context.Context, q Question) (Answer, error) {
	var response geminiResponse
	resp, err := c.gemini.R().
		SetContext(ctx).
		SetPathParam("model", c.cfg.GeminiModel).
		SetBody(geminiRequest{
			Contents: []geminiContent{{
				Parts: []geminiPart{{Text: fmt.Sprintf("%s\n\nUser: %s", q.systemPrompt(), q.Message)}},
			}},
		}).
		SetResult(&response).
		Post("/models/{model}:generateContent")
	if err != nil {
		return Answer{}, fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		return Answer{}, fmt.Errorf("gemini returned status %d", resp.StatusCode())
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 ||
		response.Candidates[0].Content.Parts[0].Text == "" {
		return Answer{}, errors.New("gemini returned no answer")
	}
	return Answer{Text: response.Candidates[0].Content.Parts[0].Text, Provider: ProviderGemini}, nil
}
