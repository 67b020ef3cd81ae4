package redact

import (
	"fmt"
	"regexp"
	"strings"
)

// Config configures a Redactor.
type Config struct {
	// Rules are applied in order, each against the previous pass's output.
	// Empty means DefaultRules().
	Rules []Rule `koanf:"rules" toml:"rules"`

	// AllowList contains patterns whose matches are left in place.
	AllowList []string `koanf:"allow_list" toml:"allow_list"`

	// Gitleaks enables the gitleaks secret stage after the rule passes.
	Gitleaks bool `koanf:"gitleaks" toml:"gitleaks"`

	compiledRules     []*compiledRule
	compiledAllowList []*regexp.Regexp
}

// Rule is one named redaction pattern.
type Rule struct {
	// Category names the kind of data the rule removes (e.g. "email").
	// Several rules may share a category.
	Category string `koanf:"category" toml:"category"`

	// Description explains what this rule detects.
	Description string `koanf:"description" toml:"description"`

	// Pattern is the regular expression to replace.
	Pattern string `koanf:"pattern" toml:"pattern"`

	// Marker overrides the replacement text. Defaults to MarkerFor(Category).
	Marker string `koanf:"marker" toml:"marker"`
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
	marker  string
}

// MarkerFor returns the default replacement marker for a category.
func MarkerFor(category string) string {
	upper := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(category))
	return "[REDACTED_" + upper + "]"
}

// DefaultConfig returns a configuration with the standard rule table.
func DefaultConfig() *Config {
	return &Config{
		Rules:     DefaultRules(),
		AllowList: []string{},
	}
}

// Validate compiles rules and allow-list patterns.
func (c *Config) Validate() error {
	if len(c.Rules) == 0 {
		c.Rules = DefaultRules()
	}

	c.compiledRules = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.Category == "" {
			return fmt.Errorf("rule %d: category is required", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("rule %s: pattern is required", rule.Category)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: invalid pattern: %w", rule.Category, err)
		}
		marker := rule.Marker
		if marker == "" {
			marker = MarkerFor(rule.Category)
		}
		if pattern.MatchString(marker) {
			return fmt.Errorf("rule %s: marker %q matches its own pattern", rule.Category, marker)
		}
		c.compiledRules = append(c.compiledRules, &compiledRule{
			Rule:    rule,
			pattern: pattern,
			marker:  marker,
		})
	}

	c.compiledAllowList = make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, pattern := range c.AllowList {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("allow_list %d: invalid pattern: %w", i, err)
		}
		c.compiledAllowList = append(c.compiledAllowList, compiled)
	}

	return nil
}
