package redact

import (
	"go.uber.org/zap"
)

// Redactor removes sensitive substrings from text.
type Redactor interface {
	// Redact returns text with every rule match replaced by its marker.
	Redact(text string) string

	// RedactAll redacts each item, preserving order and length.
	RedactAll(texts []string) []string

	// ContainsPII reports whether any rule matches text.
	ContainsPII(text string) bool

	// Scan redacts text and reports per-category match counts.
	Scan(text string) *Result
}

// redactor is the default implementation using ordered regexp passes.
type redactor struct {
	config *Config
	logger *zap.Logger
}

// New creates a Redactor with the given configuration.
// If cfg is nil, DefaultConfig() is used.
func New(cfg *Config, logger *zap.Logger) (Redactor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &redactor{
		config: cfg,
		logger: logger,
	}, nil
}

// MustNew creates a Redactor, panicking on error.
func MustNew(cfg *Config, logger *zap.Logger) Redactor {
	r, err := New(cfg, logger)
	if err != nil {
		panic(err)
	}
	return r
}

// Redact returns text with every rule match replaced by its marker.
func (r *redactor) Redact(text string) string {
	return r.Scan(text).Redacted
}

// RedactAll redacts each item, preserving order and length.
func (r *redactor) RedactAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = r.Redact(text)
	}
	return out
}

// ContainsPII reports whether any rule matches text. Input is not modified.
func (r *redactor) ContainsPII(text string) bool {
	if text == "" {
		return false
	}
	for _, rule := range r.config.compiledRules {
		for _, match := range rule.pattern.FindAllString(text, -1) {
			if !r.isAllowed(match) {
				return true
			}
		}
	}
	if r.config.Gitleaks {
		_, n := r.scrubSecrets(text)
		return n > 0
	}
	return false
}

// Scan redacts text and reports per-category match counts.
// Each rule runs against the output of the previous one.
func (r *redactor) Scan(text string) *Result {
	result := &Result{
		ByCategory: make(map[string]int),
	}
	if text == "" {
		return result
	}

	current := text
	for _, rule := range r.config.compiledRules {
		current = rule.pattern.ReplaceAllStringFunc(current, func(match string) string {
			if r.isAllowed(match) {
				return match
			}
			result.ByCategory[rule.Category]++
			return rule.marker
		})
	}

	if r.config.Gitleaks {
		scrubbed, n := r.scrubSecrets(current)
		if n > 0 {
			current = scrubbed
			result.ByCategory[CategorySecret] += n
		}
	}

	for _, n := range result.ByCategory {
		result.Total += n
	}
	result.Redacted = current

	if result.Total > 0 {
		r.logger.Debug("redacted text",
			zap.Int("matches", result.Total),
			zap.Any("by_category", result.ByCategory),
		)
	}
	return result
}

// isAllowed checks if the match is in the allow list.
func (r *redactor) isAllowed(match string) bool {
	for _, pattern := range r.config.compiledAllowList {
		if pattern.MatchString(match) {
			return true
		}
	}
	return false
}

// NoopRedactor returns text unchanged.
type NoopRedactor struct{}

// Redact returns text unchanged.
func (NoopRedactor) Redact(text string) string { return text }

// RedactAll returns a copy of texts.
func (NoopRedactor) RedactAll(texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}

// ContainsPII returns false.
func (NoopRedactor) ContainsPII(string) bool { return false }

// Scan returns text unchanged with no matches.
func (NoopRedactor) Scan(text string) *Result {
	return &Result{Redacted: text, ByCategory: map[string]int{}}
}

var (
	_ Redactor = (*redactor)(nil)
	_ Redactor = NoopRedactor{}
)
