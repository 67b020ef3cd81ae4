package extract

import (
	"strings"

	"go.uber.org/zap"
)

// Extractor runs an ordered set of detectors over a transcript and
// removes duplicate items.
type Extractor struct {
	detectors []Detector
	logger    *zap.Logger
}

// New creates an Extractor with the default detectors built from cfg.
// If cfg is nil, DefaultConfig() is used.
func New(cfg *Config, logger *zap.Logger) (*Extractor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithDetectors(logger,
		NewSpeakerDetector(cfg),
		NewCommitmentDetector(cfg),
		NewOrganizationDetector(cfg),
	), nil
}

// MustNew creates an Extractor, panicking on error.
func MustNew(cfg *Config, logger *zap.Logger) *Extractor {
	e, err := New(cfg, logger)
	if err != nil {
		panic(err)
	}
	return e
}

// NewWithDetectors creates an Extractor running detectors in order.
func NewWithDetectors(logger *zap.Logger, detectors ...Detector) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		detectors: detectors,
		logger:    logger,
	}
}

// Extract returns the unique items found in text, in detector order and
// line order within each detector. Empty input yields an empty slice.
func (e *Extractor) Extract(text string) []Item {
	lines := splitLines(text)
	items := make([]Item, 0)
	if len(lines) == 0 {
		return items
	}

	seen := make(map[string]struct{})
	for _, d := range e.detectors {
		found := 0
		for _, item := range d.Detect(lines) {
			key := item.key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, item)
			found++
		}
		e.logger.Debug("detector finished",
			zap.String("detector", d.Name()),
			zap.Int("items", found),
		)
	}
	return items
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
