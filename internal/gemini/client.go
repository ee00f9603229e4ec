// Package gemini implements the optional AI quick-capture feature: turning a
// user's free-form message into a structured task suggestion via Google's
// Gemini API. The whole package is inert when no API key is configured.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/JeissonPachon/telegram-taskbot/internal/config"
)

// TaskSuggestion is a structured task extracted from free text. RemindAt is
// either empty or a canonical "YYYY-MM-DDTHH:MM" instant the user mentioned.
type TaskSuggestion struct {
	Text     string `json:"task_text"`
	RemindAt string `json:"remind_at"`
}

// Client defines the AI operations used by the bot.
type Client interface {
	// SuggestTask extracts a task suggestion from a free-form message.
	SuggestTask(ctx context.Context, text string) (*TaskSuggestion, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	maxRetries    int
	retryDelay    time.Duration
}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"task_text": {Type: genai.TypeString, Description: "Short actionable task text in the user's language."},
		"remind_at": {Type: genai.TypeString, Description: "Reminder instant as YYYY-MM-DDTHH:MM if the message mentions one, otherwise empty."},
	},
	Required: []string{"task_text", "remind_at"},
}

// NewClient creates a new Gemini AI client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature:      &cfg.Temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema,
	}
	if cfg.Instruction != "" {
		baseCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.Instruction}}}
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
	}, nil
}

func (c *sdkClient) SuggestTask(ctx context.Context, text string) (*TaskSuggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot suggest a task from empty text")
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini suggestion call failed", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("failed to extract suggestion response: %w", err)
	}

	var suggestion TaskSuggestion
	if err := json.Unmarshal([]byte(jsonText), &suggestion); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse suggestion JSON", "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid suggestion JSON received: %w", err)
	}
	if strings.TrimSpace(suggestion.Text) == "" {
		return nil, fmt.Errorf("gemini returned an empty task suggestion")
	}

	return &suggestion, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("request blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response contains no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini response contains no text parts")
	}
	return sb.String(), nil
}
