package llm

import (
	"context"
	"fmt"
	"strings"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/pkg/logger"

	"google.golang.org/genai"
)

// Options configures the Gemini text model.
type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	BaseURL     string // overrides the API endpoint, mostly for tests
}

// Gemini is a TextModel backed by the Gemini API.
// Without an API key it stays unconfigured and never dials out.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	log    *logger.Logger
}

func NewGemini(ctx context.Context, opts Options, log *logger.Logger) (*Gemini, error) {
	g := &Gemini{
		model: opts.Model,
		config: &genai.GenerateContentConfig{
			Temperature: genai.Ptr(opts.Temperature),
		},
		log: log,
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		log.Warn("GEMINI_API_KEY not set, classifier will return neutral signals")
		return g, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client

	log.Info("gemini model ready", logger.String("model", opts.Model))
	return g, nil
}

func (g *Gemini) Configured() bool {
	return g.client != nil
}

// Generate sends a single user prompt and returns the concatenated text parts.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", models.ErrNotConfigured
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, g.config)
	if err != nil {
		return "", fmt.Errorf("generate content (model: %s): %w", g.model, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", models.ErrMalformedResponse, g.model)
	}
	return text, nil
}
