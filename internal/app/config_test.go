package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveProvider_ExplicitWins(t *testing.T) {
	cfg := Config{
		Provider:     ProviderGemini,
		OpenAIAPIKey: "openai-key",
		GeminiAPIKey: "gemini-key",
	}
	p, err := cfg.ResolveProvider()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p != ProviderGemini {
		t.Fatalf("expected gemini, got %q", p)
	}
}

func TestResolveProvider_ExplicitWithoutCredsFails(t *testing.T) {
	cfg := Config{Provider: ProviderAzure, OpenAIAPIKey: "openai-key"}
	if _, err := cfg.ResolveProvider(); err == nil {
		t.Fatal("expected error when azure creds missing")
	}
}

func TestResolveProvider_AutoPrefersAzureThenOpenAIThenGemini(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{AzureAPIKey: "k", AzureEndpoint: "e", OpenAIAPIKey: "o", GeminiAPIKey: "g"}, ProviderAzure},
		{Config{OpenAIAPIKey: "o", GeminiAPIKey: "g"}, ProviderOpenAI},
		{Config{GeminiAPIKey: "g"}, ProviderGemini},
	}
	for _, tc := range cases {
		tc.cfg.Provider = ProviderAuto
		got, err := tc.cfg.ResolveProvider()
		if err != nil {
			t.Fatalf("resolve %+v: %v", tc.cfg, err)
		}
		if got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestResolveProvider_NoCredsFails(t *testing.T) {
	if _, err := (Config{Provider: ProviderAuto}).ResolveProvider(); err == nil {
		t.Fatal("expected error with no credentials")
	}
}

func TestResolveProvider_UnknownName(t *testing.T) {
	if _, err := (Config{Provider: "anthropic"}).ResolveProvider(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PROVIDER", "FETCHER", "OPENAI_MODEL", "MAX_RETRIES", "RETRY_DELAY", "LOGIN_METHOD", "AZURE_API_VERSION"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderAuto {
		t.Errorf("expected auto provider, got %q", cfg.Provider)
	}
	if cfg.OpenAIModel != defaultOpenAIModel {
		t.Errorf("expected default model, got %q", cfg.OpenAIModel)
	}
	if cfg.MaxRetries != 3 || cfg.RetryDelay != 2*time.Second {
		t.Errorf("expected retry defaults, got %d/%v", cfg.MaxRetries, cfg.RetryDelay)
	}
	if cfg.LoginMethod != "credentials" {
		t.Errorf("expected credentials login default, got %q", cfg.LoginMethod)
	}
	if !cfg.Headless {
		t.Error("expected headless default")
	}
	if cfg.Fetcher != FetcherChrome {
		t.Errorf("expected chrome fetcher default, got %q", cfg.Fetcher)
	}
}

func TestConfigFromEnv_ReadsValues(t *testing.T) {
	t.Setenv("PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY", "1")
	t.Setenv("LOGIN_METHOD", "stored_session")
	t.Setenv("CHROME_USER_DATA_DIR", "/tmp/profile")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" {
		t.Errorf("provider should be lowercased, got %q", cfg.Provider)
	}
	if cfg.MaxRetries != 5 || cfg.RetryDelay != time.Second {
		t.Errorf("unexpected retry settings %d/%v", cfg.MaxRetries, cfg.RetryDelay)
	}
	if cfg.LoginMethod != "stored_session" || cfg.ChromeUserDataDir != "/tmp/profile" {
		t.Errorf("unexpected login settings %+v", cfg)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := `# comment
OPENAI_API_KEY=sk-test
export GEMINI_API_KEY="quoted"
EMPTY=
MALFORMED LINE
LINKEDIN_EMAIL='me@example.com'
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "LINKEDIN_EMAIL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("OPENAI_API_KEY", "already-set")

	if err := LoadDotenv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "already-set" {
		t.Errorf("dotenv must not override existing env, got %q", got)
	}
	if got := os.Getenv("GEMINI_API_KEY"); got != "quoted" {
		t.Errorf("expected quotes stripped, got %q", got)
	}
	if got := os.Getenv("LINKEDIN_EMAIL"); got != "me@example.com" {
		t.Errorf("expected single quotes stripped, got %q", got)
	}
}

func TestLoadConfigFileAndOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "linkmail.yaml")
	content := `provider: gemini
gemini:
  key: file-key
  model: gemini-2.5-pro
retry:
  maxAttempts: 5
login:
  method: none
headless: false
output: out.json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg := Config{
		Provider:    ProviderAuto,
		GeminiModel: defaultGeminiModel,
		MaxRetries:  defaultMaxRetries,
		LoginMethod: defaultLoginMethod,
		Headless:    true,
		// Explicit value that the file must not override.
		OutputPath: "explicit.json",
	}
	ApplyFileConfig(&cfg, fc)

	if cfg.Provider != ProviderGemini || cfg.GeminiAPIKey != "file-key" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.GeminiModel != "gemini-2.5-pro" {
		t.Fatalf("default model should yield to file, got %q", cfg.GeminiModel)
	}
	if cfg.MaxRetries != 5 || cfg.LoginMethod != "none" {
		t.Fatalf("unexpected retry/login %+v", cfg)
	}
	if cfg.Headless {
		t.Fatal("file headless=false should apply")
	}
	if cfg.OutputPath != "explicit.json" {
		t.Fatalf("explicit value overridden: %q", cfg.OutputPath)
	}
}
