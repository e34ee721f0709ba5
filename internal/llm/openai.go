package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient adapts an OpenAI-compatible chat completion endpoint. The
// same type serves plain OpenAI, Azure OpenAI deployments, and local
// compatible servers; only the client config differs.
type OpenAIClient struct {
	Inner *openai.Client
	Model string
}

// NewOpenAIClient targets api.openai.com or, when baseURL is non-empty, any
// OpenAI-compatible server.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{Inner: openai.NewClientWithConfig(cfg), Model: model}
}

// NewAzureClient targets an Azure OpenAI deployment. The deployment name
// doubles as the model identifier.
func NewAzureClient(apiKey, endpoint, deployment, apiVersion string) *OpenAIClient {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if strings.TrimSpace(apiVersion) != "" {
		cfg.APIVersion = apiVersion
	}
	return &OpenAIClient{Inner: openai.NewClientWithConfig(cfg), Model: deployment}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	// ChatCompletionRequest.Temperature is omitempty, so a literal 0 would
	// vanish from the payload and the server default would apply. The
	// smallest nonzero float stands in for 0 and still requests
	// deterministic output.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	r := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: temperature,
		N:           1,
	}
	if req.System != "" {
		r.Messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
		}, r.Messages...)
	}
	if req.MaxTokens > 0 {
		r.MaxTokens = req.MaxTokens
	}
	if req.JSONOnly {
		r.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	resp, err := c.Inner.CreateChatCompletion(ctx, r)
	if err != nil {
		return "", classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: reply contained no choices", ErrProvider)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyOpenAIErr maps API-level failures onto the package sentinels so
// callers can decide whether another attempt is worth anything.
func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return err
}
