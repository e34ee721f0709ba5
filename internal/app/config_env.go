package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults matching the original tool's environment contract.
const (
	defaultAzureAPIVersion = "2025-01-01-preview"
	defaultOpenAIModel     = "gpt-3.5-turbo"
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultMaxRetries      = 3
	defaultRetryDelay      = 2 * time.Second
	defaultLoginMethod     = "credentials"
	defaultPageTimeout     = 60 * time.Second
)

// ConfigFromEnv builds a Config from the process environment. Callers layer
// flags on top afterwards, so env never overrides an explicit flag.
func ConfigFromEnv() Config {
	cfg := Config{
		Provider: strings.ToLower(envOr("PROVIDER", ProviderAuto)),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   envOr("OPENAI_MODEL", defaultOpenAIModel),

		AzureAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureDeployment: os.Getenv("AZURE_DEPLOYMENT_NAME"),
		AzureAPIVersion: envOr("AZURE_API_VERSION", defaultAzureAPIVersion),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", defaultGeminiModel),

		MaxRetries: envInt("MAX_RETRIES", defaultMaxRetries),
		RetryDelay: time.Duration(envInt("RETRY_DELAY", int(defaultRetryDelay/time.Second))) * time.Second,

		Fetcher:           strings.ToLower(envOr("FETCHER", FetcherChrome)),
		LoginMethod:       strings.ToLower(envOr("LOGIN_METHOD", defaultLoginMethod)),
		LinkedInEmail:     os.Getenv("LINKEDIN_EMAIL"),
		LinkedInPassword:  os.Getenv("LINKEDIN_PASSWORD"),
		ChromeUserDataDir: os.Getenv("CHROME_USER_DATA_DIR"),
		Headless:          true,
		PageTimeout:       defaultPageTimeout,
	}
	if s := os.Getenv("PAGE_LOAD_TIMEOUT"); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			cfg.PageTimeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

// LoadDotenv reads KEY=VALUE pairs from each existing path into the process
// environment without overriding variables that are already set. Blank lines,
// comments, and an optional leading "export " are tolerated; values may be
// single- or double-quoted. Missing files are skipped.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			line = strings.TrimPrefix(line, "export ")
			key, val, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			val = strings.TrimSpace(val)
			if len(val) >= 2 {
				if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
					val = val[1 : len(val)-1]
				}
			}
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
	return nil
}
