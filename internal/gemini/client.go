// Package gemini implements integration with Google's Gemini AI API for
// text replies, image analysis, and image generation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"gembot/internal/chat"
	"gembot/internal/config"
)

const defaultAnalysisPrompt = "Analyze this image in detail. Describe what you see, " +
	"including objects, people, scenery, text, and any notable features. " +
	"Be descriptive but concise."

// Client defines the AI operations used throughout the application.
type Client interface {
	GenerateResponse(ctx context.Context, message string, history []chat.ContextEntry) (string, error)
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	HealthCheck(ctx context.Context) Health
}

// Health describes the outcome of a service health probe.
type Health struct {
	Status         string            `json:"status"`
	TextGeneration bool              `json:"text_generation"`
	Detail         string            `json:"detail,omitempty"`
	Models         map[string]string `json:"models"`
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	cfg         config.GeminiConfig
	retryDelay  time.Duration
}

// NewClient creates a new Gemini client from the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "chat_model", cfg.ChatModel, "vision_model", cfg.VisionModel)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		cfg:         cfg,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) generateWithRetries(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.cfg.MaxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) && i < c.cfg.MaxRetries {
			c.log.WarnContext(ctx, "Gemini API call failed, retrying",
				"attempt", i+1, "code", apiErr.Code, "delay", c.retryDelay)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

// GenerateResponse produces a text reply for message, prefixing the prompt
// with the supplied conversation history as role/content lines.
func (c *sdkClient) GenerateResponse(ctx context.Context, message string, history []chat.ContextEntry) (string, error) {
	c.log.DebugContext(ctx, "Generating response", "history_len", len(history))

	var sb strings.Builder
	for _, entry := range history {
		sb.WriteString(entry.Role)
		sb.WriteString(": ")
		sb.WriteString(entry.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("user: ")
	sb.WriteString(message)

	genCfg := &genai.GenerateContentConfig{
		Temperature:       &c.cfg.Temperature,
		MaxOutputTokens:   c.cfg.MaxOutputTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: c.cfg.SystemInstruction}}},
	}

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}
	resp, err := c.generateWithRetries(ctx, c.cfg.ChatModel, contents, genCfg)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}
	return text, nil
}

// AnalyzeImage describes an image, optionally steered by a caller prompt.
func (c *sdkClient) AnalyzeImage(ctx context.Context, imageData []byte, mimeType, prompt string) (string, error) {
	if len(imageData) == 0 || mimeType == "" {
		return "", fmt.Errorf("image data and MIME type are required for analysis")
	}
	if prompt == "" {
		prompt = defaultAnalysisPrompt
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := c.generateWithRetries(ctx, c.cfg.VisionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini image analysis failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty analysis")
	}
	return text, nil
}

// GenerateImage renders an image for the prompt and returns its bytes, or an
// error when the model produced no image data.
func (c *sdkClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("image generation prompt is empty")
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	enhanced := "Create a high-quality, detailed image: " + prompt
	contents := []*genai.Content{genai.NewContentFromText(enhanced, genai.RoleUser)}

	resp, err := c.generateWithRetries(ctx, c.cfg.ImageGenModel, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini image generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no image generated in response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			c.log.DebugContext(ctx, "Generated image", "bytes", len(part.InlineData.Data))
			return part.InlineData.Data, nil
		}
	}
	return nil, fmt.Errorf("no image data found in response")
}

// HealthCheck issues a minimal text generation to verify the service is
// reachable and responding.
func (c *sdkClient) HealthCheck(ctx context.Context) Health {
	h := Health{
		Models: map[string]string{
			"chat":             c.cfg.ChatModel,
			"vision":           c.cfg.VisionModel,
			"image_generation": c.cfg.ImageGenModel,
		},
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.cfg.ChatModel,
		[]*genai.Content{genai.NewContentFromText("Say 'OK' if you can respond", genai.RoleUser)}, nil)
	if err != nil {
		h.Status = "unhealthy"
		h.Detail = err.Error()
		return h
	}

	h.TextGeneration = strings.Contains(strings.ToUpper(resp.Text()), "OK")
	if h.TextGeneration {
		h.Status = "healthy"
	} else {
		h.Status = "degraded"
	}
	return h
}
