package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Config holds the vocabularies used by the default detectors.
type Config struct {
	// Commitments are phrases signaling intent or scheduling. Matched
	// case-insensitively as whole words.
	Commitments []string `koanf:"commitments" toml:"commitments"`

	// Actionable is the stronger sub-vocabulary that upgrades a commitment
	// line to a next action.
	Actionable []string `koanf:"actionable" toml:"actionable"`

	// OrgSuffixes are corporate suffixes ending an organization name.
	OrgSuffixes []string `koanf:"org_suffixes" toml:"org_suffixes"`

	// SpeakerMaxLen bounds the length of a speaker label.
	SpeakerMaxLen int `koanf:"speaker_max_len" toml:"speaker_max_len"`

	commitment   *regexp.Regexp
	actionable   *regexp.Regexp
	organization *regexp.Regexp
	speaker      *regexp.Regexp
}

// DefaultConfig returns the built-in English vocabulary.
func DefaultConfig() *Config {
	return &Config{
		Commitments: []string{
			"I'll", "I will", "I'm going to", "we'll", "we will",
			"let's", "let us", "I can", "I promise", "we should",
			"follow up", "follow-up", "circle back", "touch base", "get back to you",
			"send over", "share", "introduce", "pilot", "schedule",
			"meet", "meeting", "call", "sync", "walkthrough",
			"next step", "next steps", "book", "set up",
		},
		Actionable: []string{
			"introduce", "pilot", "walkthrough", "follow-up", "follow up",
			"next step", "next steps", "meeting", "call", "sync",
		},
		OrgSuffixes: []string{
			"Inc", "Ltd", "LLC", "Services", "Group", "Company", "Co.", "Corp", "Corporation",
		},
		SpeakerMaxLen: 40,
	}
}

// Validate fills defaults and compiles the vocabularies.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if len(c.Commitments) == 0 {
		c.Commitments = defaults.Commitments
	}
	if len(c.Actionable) == 0 {
		c.Actionable = defaults.Actionable
	}
	if len(c.OrgSuffixes) == 0 {
		c.OrgSuffixes = defaults.OrgSuffixes
	}
	if c.SpeakerMaxLen <= 0 {
		c.SpeakerMaxLen = defaults.SpeakerMaxLen
	}

	var err error
	if c.commitment, err = compilePhrases(c.Commitments); err != nil {
		return fmt.Errorf("commitments: %w", err)
	}
	if c.actionable, err = compilePhrases(c.Actionable); err != nil {
		return fmt.Errorf("actionable: %w", err)
	}
	if c.organization, err = compileOrganization(c.OrgSuffixes); err != nil {
		return fmt.Errorf("org_suffixes: %w", err)
	}
	c.speaker, err = regexp.Compile(fmt.Sprintf(`^([^:]{1,%d}?):\s+(\S.*)$`, c.SpeakerMaxLen))
	if err != nil {
		return fmt.Errorf("speaker_max_len: %w", err)
	}
	return nil
}

// apostrophe lets a phrase written with either apostrophe match both the
// ASCII and the typographic form.
var apostrophe = strings.NewReplacer("'", "['’]", "’", "['’]")

// compilePhrases builds a case-insensitive whole-word alternation.
func compilePhrases(phrases []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = apostrophe.Replace(regexp.QuoteMeta(w))
		}
		parts = append(parts, strings.Join(words, `\s+`))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no phrases")
	}
	return regexp.Compile(`(?i)(?:^|[^\pL\pN_'’-])(?:` + strings.Join(parts, "|") + `)(?:$|[^\pL\pN_'’-])`)
}

// compileOrganization matches one to four capitalized words followed by a
// suffix. The suffix must end the word unless it ends in a period.
func compileOrganization(suffixes []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			continue
		}
		quoted := regexp.QuoteMeta(suffix)
		if !strings.HasSuffix(suffix, ".") {
			quoted += `\b`
		}
		parts = append(parts, quoted)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no suffixes")
	}
	return regexp.Compile(`\b(?:[A-Z][\pL\pN&'\-]*[ \t]+){1,4}(?:` + strings.Join(parts, "|") + `)`)
}
