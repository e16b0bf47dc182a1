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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements the Provider interface for Google's Gemini models
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  resty.New().SetTimeout(120 * time.Second),
	}
}

// WithBaseURL points the provider at another endpoint root
func (g *GeminiProvider) WithBaseURL(baseURL string) *GeminiProvider {
	g.baseURL = baseURL
	return g
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) Available() bool {
	return g.apiKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  map[string]interface{} `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

func (g *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !g.Available() {
		logrus.Warn("Gemini provider not configured")
		return Response{}, fmt.Errorf("gemini provider not configured")
	}

	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.UserPrompt}},
		}},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.MaxTokens > 0 {
		body.GenerationConfig = map[string]interface{}{"maxOutputTokens": req.MaxTokens}
	}

	logrus.Debugf("Gemini API request starting (model %s)", g.model)

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		Post(fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model))

	if err != nil {
		return Response{}, fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		logrus.Errorf("Gemini API error (status %d): %s", resp.StatusCode(), string(resp.Body()))
		return Response{}, fmt.Errorf("gemini API returned status %d", resp.StatusCode())
	}

	var result geminiResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return Response{}, fmt.Errorf("failed to parse gemini response: %w", err)
	}

	content := ""
	finishReason := ""
	if len(result.Candidates) > 0 {
		for _, part := range result.Candidates[0].Content.Parts {
			content += part.Text
		}
		finishReason = result.Candidates[0].FinishReason
	}

	model := g.model
	if result.ModelVersion != "" {
		model = result.ModelVersion
	}

	if finishReason == "MAX_TOKENS" {
		logrus.Warnf("Gemini response truncated due to max tokens (model %s)", model)
	}

	logrus.WithFields(logrus.Fields{
		"model":          model,
		"content_length": len(content),
		"finish_reason":  finishReason,
	}).Info("Gemini API response")

	return Response{Content: content, Model: model}, nil
}
