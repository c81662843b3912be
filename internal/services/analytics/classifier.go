package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketWhisperer/internal/domain/models"
	domsvc "MarketWhisperer/internal/domain/service"
	"MarketWhisperer/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const (
	promptHeadlines = 5

	ReasonNoNews        = "No news found."
	ReasonNotConfigured = "LLM not configured. Please set GEMINI_API_KEY."
	ReasonFailed        = "Failed to analyze with AI."
)

// PrioritySources are outlets the model is told to prefer.
var PrioritySources = []string{
	"Reuters", "Bloomberg", "The Ken", "Financial Times", "Wall Street Journal",
	"Moneycontrol", "Economic Times", "Livemint", "Business Standard", "CNBC-TV18",
}

type modelVerdict struct {
	Action    string `json:"action" validate:"required"`
	Severity  string `json:"severity" validate:"required"`
	Reasoning string `json:"reasoning" validate:"required"`
	Headline  string `json:"headline"`
	Source    string `json:"source"`
}

// LLMClassifier asks a text model to pick and grade the most relevant headline.
type LLMClassifier struct {
	model    domsvc.TextModel
	timeout  time.Duration
	validate *validator.Validate
	log      *logger.Logger
}

func NewLLMClassifier(model domsvc.TextModel, timeout time.Duration, log *logger.Logger) *LLMClassifier {
	return &LLMClassifier{
		model:    model,
		timeout:  timeout,
		validate: validator.New(),
		log:      log,
	}
}

// Classify always returns a signal; every failure degrades to HOLD/LOW.
func (c *LLMClassifier) Classify(ctx context.Context, symbol string, headlines []models.Headline, marketContext string) models.Signal {
	if len(headlines) == 0 {
		return models.HoldSignal(ReasonNoNews)
	}
	if c.model == nil || !c.model.Configured() {
		return models.HoldSignal(ReasonNotConfigured)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.model.Generate(ctx, BuildPrompt(symbol, headlines, marketContext))
	if err != nil {
		c.log.Warn("classifier call failed", logger.String("symbol", symbol), logger.Error(err))
		return models.HoldSignal(ReasonFailed)
	}

	verdict, err := c.decode(raw)
	if err != nil {
		c.log.Warn("classifier response rejected",
			logger.String("symbol", symbol),
			logger.String("response", truncate(raw, 200)),
			logger.Error(err))
		return models.HoldSignal(ReasonFailed)
	}

	return models.Signal{
		Action:           models.ParseAction(verdict.Action),
		Severity:         models.ParseSeverity(verdict.Severity),
		Reasoning:        strings.TrimSpace(verdict.Reasoning),
		SelectedHeadline: strings.TrimSpace(verdict.Headline),
		SelectedSource:   strings.TrimSpace(verdict.Source),
	}
}

func (c *LLMClassifier) decode(raw string) (*modelVerdict, error) {
	var v modelVerdict
	if err := json.Unmarshal([]byte(StripFence(raw)), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	return &v, nil
}

// StripFence removes a surrounding ``` or ```json markdown fence.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
		// drop the info string, e.g. "json"
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// BuildPrompt renders the classification instructions for one symbol.
func BuildPrompt(symbol string, headlines []models.Headline, marketContext string) string {
	if len(headlines) > promptHeadlines {
		headlines = headlines[:promptHeadlines]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a market analyst. Analyze the recent news for stock '%s'.\n\n", symbol)
	fmt.Fprintf(&b, "Market context: %s\n\n", marketContext)
	b.WriteString("Headlines:\n")
	for _, h := range headlines {
		fmt.Fprintf(&b, "- [%s] %s\n", h.Source, h.Title)
	}
	b.WriteString("\nTasks:\n")
	b.WriteString("1. Pick the single headline most relevant to a trading decision. ")
	fmt.Fprintf(&b, "Prefer reputable sources such as %s.\n", strings.Join(PrioritySources, ", "))
	b.WriteString("2. Decide the trading action: BUY, SELL or HOLD, taking the market context into account.\n")
	b.WriteString("3. Rate the severity: HIGH, MEDIUM or LOW.\n")
	b.WriteString("4. Give a one sentence reasoning and repeat the chosen headline and its source.\n\n")
	b.WriteString("Return ONLY a JSON object with exactly these fields:\n")
	b.WriteString(`{"action": "BUY/SELL/HOLD", "severity": "HIGH/MEDIUM/LOW", "reasoning": "...", "headline": "...", "source": "..."}`)
	b.WriteString("\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
