package rulepack

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/extract"
	"github.com/fyrsmithlabs/reflectd/internal/redact"
)

// Pack is the decoded content of a rule pack file.
//
//	[redaction]
//	gitleaks = true
//	allow_list = ['''@example\.org$''']
//
//	[[redaction.rules]]
//	category = "employee_id"
//	pattern = '''\bEMP-\d{6}\b'''
//
//	[extraction]
//	commitments = ["I'll", "let's", "sync"]
//	actionable = ["sync"]
//	org_suffixes = ["Inc", "GmbH"]
type Pack struct {
	Redaction  redact.Config  `toml:"redaction"`
	Extraction extract.Config `toml:"extraction"`
}

// Engines is a compiled redactor and extractor pair.
type Engines struct {
	Redactor  redact.Redactor
	Extractor *extract.Extractor
}

// DefaultEngines builds engines from the built-in rules.
func DefaultEngines(logger *zap.Logger) *Engines {
	return &Engines{
		Redactor:  redact.MustNew(nil, logger),
		Extractor: extract.MustNew(nil, logger),
	}
}

// Load reads and validates a rule pack. A missing file returns an error
// satisfying os.IsNotExist.
func Load(path string) (*Pack, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	var pack Pack
	if _, err := toml.DecodeFile(path, &pack); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	for _, rule := range pack.Redaction.Rules {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return nil, fmt.Errorf("%w: rule %q in %s: %v", ErrInvalidRegex, rule.Category, path, err)
		}
	}
	for _, pattern := range pack.Redaction.AllowList {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: allow_list pattern %q in %s: %v", ErrInvalidRegex, pattern, path, err)
		}
	}

	return &pack, nil
}

// Build compiles the pack into engines. Sections left empty fall back to
// the built-in defaults.
func (p *Pack) Build(logger *zap.Logger) (*Engines, error) {
	redactCfg := p.Redaction
	redactor, err := redact.New(&redactCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("redaction: %w", err)
	}
	extractCfg := p.Extraction
	extractor, err := extract.New(&extractCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	return &Engines{Redactor: redactor, Extractor: extractor}, nil
}

// LoadEngines loads a pack and builds its engines. An empty path yields
// the defaults.
func LoadEngines(path string, logger *zap.Logger) (*Engines, error) {
	if path == "" {
		return DefaultEngines(logger), nil
	}
	pack, err := Load(path)
	if err != nil {
		return nil, err
	}
	return pack.Build(logger)
}
