package review

import (
	"strings"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// Weight tiers, highest precedence first.
const (
	WeightAnchor     = 1.0
	WeightLongEvent  = 0.8
	WeightPulse      = 0.7
	WeightContextual = 0.5
)

// Reasons reported with each weight tier.
const (
	ReasonAnchor     = "primary hub anchor"
	ReasonLongEvent  = "high-duration activity spike"
	ReasonPulse      = "synchronicity pulse"
	ReasonContextual = "contextual occurrence"
)

// ScoringConfig tunes the precedence table.
type ScoringConfig struct {
	// LongEventMinutes is the duration at or above which an event counts
	// as an activity spike.
	LongEventMinutes float64 `koanf:"long_event_minutes"`

	// PulseKeywords are title substrings matched case-insensitively.
	PulseKeywords []string `koanf:"pulse_keywords"`
}

// DefaultScoringConfig returns the standard precedence thresholds.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		LongEventMinutes: 120,
		PulseKeywords:    []string{"sync", "review", "workshop"},
	}
}

func (c ScoringConfig) withDefaults() ScoringConfig {
	d := DefaultScoringConfig()
	if c.LongEventMinutes <= 0 {
		c.LongEventMinutes = d.LongEventMinutes
	}
	if len(c.PulseKeywords) == 0 {
		c.PulseKeywords = d.PulseKeywords
	}
	lowered := make([]string, 0, len(c.PulseKeywords))
	for _, kw := range c.PulseKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	c.PulseKeywords = lowered
	return c
}

// Score returns the weight and reason for an event. The first matching
// rule wins.
func Score(event store.Event, cfg ScoringConfig) (float64, string) {
	cfg = cfg.withDefaults()
	return score(event, cfg)
}

func score(event store.Event, cfg ScoringConfig) (float64, string) {
	if event.IsAnchor {
		return WeightAnchor, ReasonAnchor
	}
	if event.DurationMinutes() >= cfg.LongEventMinutes {
		return WeightLongEvent, ReasonLongEvent
	}
	title := strings.ToLower(event.Title)
	for _, kw := range cfg.PulseKeywords {
		if strings.Contains(title, kw) {
			return WeightPulse, ReasonPulse
		}
	}
	return WeightContextual, ReasonContextual
}
