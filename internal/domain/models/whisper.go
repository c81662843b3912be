package models

import (
	"strings"
	"time"
)

// Action is the trading implication of a headline.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Severity ranks how urgent a whisper is.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Category classifies what kind of event a whisper is about.
type Category string

const (
	CategoryNews     Category = "NEWS"
	CategoryMovement Category = "MOVEMENT"
	CategoryMerger   Category = "MERGER"
)

// ParseAction maps a raw value to an Action, falling back to HOLD.
func ParseAction(s string) Action {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionBuy, ActionSell, ActionHold:
		return a
	default:
		return ActionHold
	}
}

// ParseSeverity maps a raw value to a Severity, falling back to LOW.
func ParseSeverity(s string) Severity {
	switch v := Severity(strings.ToUpper(strings.TrimSpace(s))); v {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return v
	default:
		return SeverityLow
	}
}

// Instrument is a tracked tradable symbol.
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// Headline is one news entry for a symbol. Not persisted.
type Headline struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Published   string    `json:"published"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Signal is the classifier output for one instrument.
type Signal struct {
	Action           Action   `json:"action"`
	Severity         Severity `json:"severity"`
	Reasoning        string   `json:"reasoning"`
	SelectedHeadline string   `json:"selected_headline,omitempty"`
	SelectedSource   string   `json:"selected_source,omitempty"`
}

// HoldSignal returns a neutral signal with the given reasoning.
func HoldSignal(reasoning string) Signal {
	return Signal{Action: ActionHold, Severity: SeverityLow, Reasoning: reasoning}
}

// Whisper is a single actionable suggestion for one instrument.
type Whisper struct {
	Symbol    string   `json:"symbol"`
	Category  Category `json:"type"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Reasoning string   `json:"reasoning"`
	Action    Action   `json:"action"`
}
