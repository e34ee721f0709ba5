package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional single-file configuration schema. Nested
// sections map naturally onto Config.
type FileConfig struct {
	Provider string `yaml:"provider" json:"provider"`

	OpenAI struct {
		APIKey  string `yaml:"key" json:"key"`
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
	} `yaml:"openai" json:"openai"`

	Azure struct {
		APIKey     string `yaml:"key" json:"key"`
		Endpoint   string `yaml:"endpoint" json:"endpoint"`
		Deployment string `yaml:"deployment" json:"deployment"`
		APIVersion string `yaml:"apiVersion" json:"apiVersion"`
	} `yaml:"azure" json:"azure"`

	Gemini struct {
		APIKey string `yaml:"key" json:"key"`
		Model  string `yaml:"model" json:"model"`
	} `yaml:"gemini" json:"gemini"`

	Retry struct {
		MaxAttempts int           `yaml:"maxAttempts" json:"maxAttempts"`
		Delay       time.Duration `yaml:"delay" json:"delay"`
	} `yaml:"retry" json:"retry"`

	Login struct {
		Method      string `yaml:"method" json:"method"`
		Email       string `yaml:"email" json:"email"`
		Password    string `yaml:"password" json:"password"`
		UserDataDir string `yaml:"userDataDir" json:"userDataDir"`
	} `yaml:"login" json:"login"`

	Headless *bool `yaml:"headless" json:"headless"`

	Output    string `yaml:"output" json:"output"`
	DebugText string `yaml:"debugText" json:"debugText"`
	Verbose   bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig. Unknown extensions try
// YAML first, then JSON.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if yerr := yaml.Unmarshal(b, &fc); yerr != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", yerr, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays fc onto cfg for fields still at their default.
// Flags and env have already been applied, so the file only supplies values
// nothing else set.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.Provider == "" || cfg.Provider == ProviderAuto) && fc.Provider != "" {
		cfg.Provider = fc.Provider
	}

	if cfg.OpenAIAPIKey == "" && fc.OpenAI.APIKey != "" {
		cfg.OpenAIAPIKey = fc.OpenAI.APIKey
	}
	if cfg.OpenAIBaseURL == "" && fc.OpenAI.BaseURL != "" {
		cfg.OpenAIBaseURL = fc.OpenAI.BaseURL
	}
	if (cfg.OpenAIModel == "" || cfg.OpenAIModel == defaultOpenAIModel) && fc.OpenAI.Model != "" {
		cfg.OpenAIModel = fc.OpenAI.Model
	}

	if cfg.AzureAPIKey == "" && fc.Azure.APIKey != "" {
		cfg.AzureAPIKey = fc.Azure.APIKey
	}
	if cfg.AzureEndpoint == "" && fc.Azure.Endpoint != "" {
		cfg.AzureEndpoint = fc.Azure.Endpoint
	}
	if cfg.AzureDeployment == "" && fc.Azure.Deployment != "" {
		cfg.AzureDeployment = fc.Azure.Deployment
	}
	if (cfg.AzureAPIVersion == "" || cfg.AzureAPIVersion == defaultAzureAPIVersion) && fc.Azure.APIVersion != "" {
		cfg.AzureAPIVersion = fc.Azure.APIVersion
	}

	if cfg.GeminiAPIKey == "" && fc.Gemini.APIKey != "" {
		cfg.GeminiAPIKey = fc.Gemini.APIKey
	}
	if (cfg.GeminiModel == "" || cfg.GeminiModel == defaultGeminiModel) && fc.Gemini.Model != "" {
		cfg.GeminiModel = fc.Gemini.Model
	}

	if (cfg.MaxRetries == 0 || cfg.MaxRetries == defaultMaxRetries) && fc.Retry.MaxAttempts > 0 {
		cfg.MaxRetries = fc.Retry.MaxAttempts
	}
	if (cfg.RetryDelay == 0 || cfg.RetryDelay == defaultRetryDelay) && fc.Retry.Delay > 0 {
		cfg.RetryDelay = fc.Retry.Delay
	}

	if (cfg.LoginMethod == "" || cfg.LoginMethod == defaultLoginMethod) && fc.Login.Method != "" {
		cfg.LoginMethod = fc.Login.Method
	}
	if cfg.LinkedInEmail == "" && fc.Login.Email != "" {
		cfg.LinkedInEmail = fc.Login.Email
	}
	if cfg.LinkedInPassword == "" && fc.Login.Password != "" {
		cfg.LinkedInPassword = fc.Login.Password
	}
	if cfg.ChromeUserDataDir == "" && fc.Login.UserDataDir != "" {
		cfg.ChromeUserDataDir = fc.Login.UserDataDir
	}

	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}

	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.DebugTextPath == "" && fc.DebugText != "" {
		cfg.DebugTextPath = fc.DebugText
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
