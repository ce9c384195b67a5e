package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/codexautotest/internal/apperr"
)

// Provider represents an AI provider type
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderCohere Provider = "cohere"
	ProviderOllama Provider = "ollama"
)

// Providers lists every supported provider.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderGemini, ProviderClaude, ProviderCohere, ProviderOllama}
}

// ParseProvider validates a provider name. An empty name means OpenAI.
func ParseProvider(name string) (Provider, error) {
	if name == "" {
		return ProviderOpenAI, nil
	}
	p := Provider(strings.ToLower(name))
	for _, known := range Providers() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported provider: %s", name)
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderClaude:
		return "claude-3-5-haiku-latest"
	case ProviderCohere:
		return "command-r"
	case ProviderOllama:
		return "llama3"
	default:
		return "gpt-4o-mini"
	}
}

// CredentialEnv lists the environment variables consulted for a provider's
// API key, in order.
func CredentialEnv(p Provider) []string {
	switch p {
	case ProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderClaude:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderCohere:
		return []string{"COHERE_API_KEY"}
	default:
		return nil
	}
}

// ResolveAPIKey returns configured when set, otherwise the first non-empty
// credential variable. Providers that need no key resolve to "". A missing
// key is a CredentialMissing error.
func ResolveAPIKey(p Provider, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	vars := CredentialEnv(p)
	if len(vars) == 0 {
		return "", nil
	}
	for _, v := range vars {
		if key := os.Getenv(v); key != "" {
			return key, nil
		}
	}
	return "", apperr.New(apperr.KindCredentialMissing, "%s is not set. Please export your API key", strings.Join(vars, " or "))
}

// ConnectorOptions contains options for creating a connector
type ConnectorOptions struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Connector is a Client backed by a langchaingo model.
type Connector struct {
	provider Provider
	llm      llms.Model
	options  ConnectorOptions
}

// NewConnector creates a new connector for the specified provider. The API key
// must already be resolved.
func NewConnector(ctx context.Context, options ConnectorOptions) (*Connector, error) {
	if options.Model == "" {
		options.Model = DefaultModel(options.Provider)
	}

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.Model).
		Float64("temperature", options.Temperature).
		Msg("Creating new connector")

	var (
		model llms.Model
		err   error
	)
	switch options.Provider {
	case ProviderOpenAI:
		model, err = createOpenAIModel(options)
	case ProviderGemini:
		model, err = createGeminiModel(ctx, options)
	case ProviderClaude:
		model, err = createAnthropicModel(options)
	case ProviderCohere:
		model, err = createCohereModel(options)
	case ProviderOllama:
		model, err = createOllamaModel(options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return NewConnectorWithModel(model, options), nil
}

// NewConnectorWithModel wraps an already constructed model.
func NewConnectorWithModel(model llms.Model, options ConnectorOptions) *Connector {
	if options.Model == "" {
		options.Model = DefaultModel(options.Provider)
	}
	return &Connector{provider: options.Provider, llm: model, options: options}
}

func createOpenAIModel(options ConnectorOptions) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(options.Model),
		openai.WithToken(options.APIKey),
	}
	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}
	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
		googleai.WithDefaultModel(options.Model),
	}
	return googleai.New(ctx, opts...)
}

func createAnthropicModel(options ConnectorOptions) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(options.APIKey),
		anthropic.WithModel(options.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(options.BaseURL))
	}
	return anthropic.New(opts...)
}

func createCohereModel(options ConnectorOptions) (llms.Model, error) {
	opts := []cohere.Option{
		cohere.WithToken(options.APIKey),
		cohere.WithModel(options.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, cohere.WithBaseURL(options.BaseURL))
	}
	return cohere.New(opts...)
}

func createOllamaModel(options ConnectorOptions) (llms.Model, error) {
	if options.BaseURL == "" {
		options.BaseURL = "http://localhost:11434"
	}
	return ollama.New(
		ollama.WithServerURL(options.BaseURL),
		ollama.WithModel(options.Model),
	)
}

// Complete sends prompt as a single human message. Per-call options override
// the connector defaults.
func (c *Connector) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	model := c.options.Model
	if opts.Model != "" {
		model = opts.Model
	}
	callOptions := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(c.options.Temperature),
	}
	maxTokens := c.options.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(maxTokens))
	}

	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOptions...)
}

// Provider returns the provider of this connector
func (c *Connector) Provider() Provider {
	return c.provider
}

// Model returns the default model name
func (c *Connector) Model() string {
	return c.options.Model
}
