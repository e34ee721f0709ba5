package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkmailer/linkmail/internal/llm"
)

// Provider names accepted by configuration.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
)

// Fetcher names accepted by configuration. Chrome renders the page in a
// headless browser; static issues a plain GET, which only reaches content
// served without JavaScript or a login wall.
const (
	FetcherChrome = "chrome"
	FetcherStatic = "static"
)

// Config holds runtime configuration for the process. It is constructed once
// in main (flags over env over config file) and passed by value; nothing in
// the pipeline reads ambient global state.
type Config struct {
	// Provider selects the model backend: auto, openai, azure, or gemini.
	Provider string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	AzureAPIKey     string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string

	GeminiAPIKey string
	GeminiModel  string

	// MaxRetries caps attempts for each LLM stage, initial attempt included.
	MaxRetries int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration

	// Page fetching.
	Fetcher           string
	LoginMethod       string
	LinkedInEmail     string
	LinkedInPassword  string
	ChromeUserDataDir string
	Headless          bool
	PageTimeout       time.Duration

	// OutputPath receives the result JSON sidecar after each run; empty
	// disables the artifact.
	OutputPath string
	// DebugTextPath receives the normalized page text; empty disables.
	DebugTextPath string

	// ServeAddr, when non-empty, starts the HTTP API instead of a one-shot
	// CLI run.
	ServeAddr string

	Verbose bool
}

// ResolveProvider returns the backend to use. An explicit Provider setting
// wins and is checked against its credentials; auto prefers Azure, then
// OpenAI, then Gemini, based on which credentials are present.
func (c Config) ResolveProvider() (string, error) {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	switch p {
	case ProviderAzure:
		if c.AzureAPIKey == "" || c.AzureEndpoint == "" {
			return "", errors.New("provider is set to 'azure' but Azure credentials are missing")
		}
		return ProviderAzure, nil
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", errors.New("provider is set to 'openai' but OPENAI_API_KEY is missing")
		}
		return ProviderOpenAI, nil
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return "", errors.New("provider is set to 'gemini' but GEMINI_API_KEY is missing")
		}
		return ProviderGemini, nil
	case "", ProviderAuto:
	default:
		return "", fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch {
	case c.AzureAPIKey != "" && c.AzureEndpoint != "":
		return ProviderAzure, nil
	case c.OpenAIAPIKey != "":
		return ProviderOpenAI, nil
	case c.GeminiAPIKey != "":
		return ProviderGemini, nil
	}
	return "", errors.New("no model credentials found; set Azure, OpenAI, or Gemini credentials")
}

// NewClient constructs the llm.Client selected by cfg.
func NewClient(ctx context.Context, cfg Config) (llm.Client, error) {
	provider, err := cfg.ResolveProvider()
	if err != nil {
		return nil, err
	}
	switch provider {
	case ProviderAzure:
		if cfg.AzureDeployment == "" {
			return nil, errors.New("AZURE_DEPLOYMENT_NAME is required for the azure provider")
		}
		return llm.NewAzureClient(cfg.AzureAPIKey, cfg.AzureEndpoint, cfg.AzureDeployment, cfg.AzureAPIVersion), nil
	case ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}
