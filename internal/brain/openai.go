package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements the Provider interface for OpenAI chat models
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIBaseURL,
		client:  resty.New().SetTimeout(120 * time.Second),
	}
}

// WithBaseURL points the provider at another endpoint root
func (o *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	o.baseURL = baseURL
	return o
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func (o *OpenAIProvider) Available() bool {
	return o.apiKey != ""
}

func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !o.Available() {
		logrus.Warn("OpenAI provider not configured")
		return Response{}, fmt.Errorf("openai provider not configured")
	}

	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})

	body := map[string]interface{}{
		"model":    o.model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		body["max_completion_tokens"] = req.MaxTokens
	}

	logrus.Debugf("OpenAI API request starting (model %s)", o.model)

	resp, err := o.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(o.apiKey).
		SetBody(body).
		Post(o.baseURL + "/chat/completions")

	if err != nil {
		return Response{}, fmt.Errorf("openai request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		logrus.Errorf("OpenAI API error (status %d): %s", resp.StatusCode(), string(resp.Body()))
		return Response{}, fmt.Errorf("openai API returned status %d", resp.StatusCode())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Model string `json:"model"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return Response{}, fmt.Errorf("failed to parse openai response: %w", err)
	}

	content := ""
	if len(result.Choices) > 0 {
		content = result.Choices[0].Message.Content
		if result.Choices[0].FinishReason == "length" {
			logrus.Warnf("OpenAI response truncated due to max tokens (model %s)", result.Model)
		}
	}

	logrus.WithFields(logrus.Fields{
		"model":          result.Model,
		"content_length": len(content),
	}).Info("OpenAI API response")

	return Response{Content: content, Model: result.Model}, nil
}
