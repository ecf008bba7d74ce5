package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/Beastie7/FlashLearn/internal/config"
	"github.com/Beastie7/FlashLearn/internal/generation"
)

// defaultPromptTemplate asks for a strict JSON object so the response can
// be unmarshaled directly into ResponseSchema.
const defaultPromptTemplate = `You are a flashcard author. Create {{.CardCount}} study flashcards about the topic below.

Topic: {{.Topic}}

Respond with only a JSON object of the form:
{"cards": [{"front": "question text", "back": "answer text"}]}

Each front must be a single clear question or prompt, and each back a
concise factual answer. Do not include markdown fences or commentary.`

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate flashcards for a topic.
type GeminiGenerator struct {
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// NewGeminiGenerator creates a new GeminiGenerator with the provided
// dependencies. Returns generation.ErrInvalidConfig when the API key or
// model name is missing.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("flashcard").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// Ensure GeminiGenerator implements generation.Generator
var _ generation.Generator = (*GeminiGenerator)(nil)

// GenerateCards implements generation.Generator.GenerateCards.
// It renders the prompt, calls Gemini with retry, and converts the parsed
// response into card drafts.
func (g *GeminiGenerator) GenerateCards(
	ctx context.Context,
	topic string,
	count int,
) ([]generation.CardDraft, error) {
	prompt, err := g.createPrompt(ctx, topic, count)
	if err != nil {
		return nil, err
	}

	response, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response)
}

// createPrompt renders the prompt template for the given topic and count.
func (g *GeminiGenerator) createPrompt(ctx context.Context, topic string, count int) (string, error) {
	if topic == "" {
		return "", ErrEmptyTopic
	}
	if count <= 0 {
		count = 10
	}

	data := promptData{
		Topic:     topic,
		CardCount: count,
	}

	g.logger.DebugContext(ctx, "generating prompt from template",
		"topic_length", len(topic),
		"card_count", count)

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return promptBuffer.String(), nil
}

// callGeminiWithRetry calls the Gemini API with exponential backoff and
// jitter for transient errors. Permanent errors (safety blocks, malformed
// responses) are returned immediately without retrying.
func (g *GeminiGenerator) callGeminiWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		var response *ResponseSchema
		var isTransient bool

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		switch {
		case err != nil:
			isTransient = true
		case resp == nil:
			err = fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
		case len(resp.Candidates) == 0:
			err = fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
		case resp.Candidates[0].Content == nil:
			err = fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
		case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
			err = fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
		default:
			text := ""
			for _, part := range resp.Candidates[0].Content.Parts {
				if part != nil {
					text += part.Text
				}
			}

			var parsed ResponseSchema
			if err = json.Unmarshal([]byte(text), &parsed); err != nil {
				err = fmt.Errorf("%w: failed to parse JSON response: %v",
					generation.ErrInvalidResponse, err)
			} else {
				response = &parsed
			}
		}

		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return response, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		if !isTransient {
			return nil, err
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts",
		generation.ErrTransientFailure, maxRetries+1)
}

// parseResponse converts a ResponseSchema into card drafts, rejecting
// responses with missing sides.
func (g *GeminiGenerator) parseResponse(
	ctx context.Context,
	response *ResponseSchema,
) ([]generation.CardDraft, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: response is nil", generation.ErrInvalidResponse)
	}

	if len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	drafts := make([]generation.CardDraft, 0, len(response.Cards))
	for i, card := range response.Cards {
		if card.Front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side", generation.ErrInvalidResponse, i)
		}
		if card.Back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side", generation.ErrInvalidResponse, i)
		}
		drafts = append(drafts, generation.CardDraft{
			Front: card.Front,
			Back:  card.Back,
		})
	}

	g.logger.InfoContext(ctx, "parsed Gemini response", "card_count", len(drafts))
	return drafts, nil
}
