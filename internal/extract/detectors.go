package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var dateFragment = regexp.MustCompile(`\d+\s*/\s*\d+`)

// SpeakerDetector turns "Name: message" lines into person items.
type SpeakerDetector struct {
	pattern *regexp.Regexp
}

// NewSpeakerDetector creates a speaker detector from a validated config.
func NewSpeakerDetector(cfg *Config) *SpeakerDetector {
	return &SpeakerDetector{pattern: cfg.speaker}
}

// Name implements Detector.
func (d *SpeakerDetector) Name() string { return "speaker" }

// Detect implements Detector.
func (d *SpeakerDetector) Detect(lines []string) []Item {
	var items []Item
	for _, line := range lines {
		m := d.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if !isSpeakerName(name) {
			continue
		}
		items = append(items, Item{
			Type:       TypePerson,
			Label:      name,
			Excerpt:    "Mentioned as a participant: " + name,
			Confidence: PersonConfidence,
		})
	}
	return items
}

// isSpeakerName rejects labels without letters and timestamp prefixes
// such as "03/12 09".
func isSpeakerName(name string) bool {
	if name == "" || dateFragment.MatchString(name) {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLetter) >= 0
}

// CommitmentDetector turns lines using commitment vocabulary into
// commitment or next action items.
type CommitmentDetector struct {
	commitment *regexp.Regexp
	actionable *regexp.Regexp
}

// NewCommitmentDetector creates a commitment detector from a validated config.
func NewCommitmentDetector(cfg *Config) *CommitmentDetector {
	return &CommitmentDetector{
		commitment: cfg.commitment,
		actionable: cfg.actionable,
	}
}

// Name implements Detector.
func (d *CommitmentDetector) Name() string { return "commitment" }

// Detect implements Detector.
func (d *CommitmentDetector) Detect(lines []string) []Item {
	var items []Item
	for _, line := range lines {
		if !d.commitment.MatchString(line) {
			continue
		}
		itemType := TypeCommitment
		if d.actionable.MatchString(line) {
			itemType = TypeNextAction
		}
		items = append(items, Item{
			Type:       itemType,
			Label:      truncateLabel(line),
			Excerpt:    line,
			Confidence: CommitmentConfidence,
			Tags:       []string{TagNeedsReview},
		})
	}
	return items
}

// OrganizationDetector captures capitalized names ending in a corporate
// suffix.
type OrganizationDetector struct {
	pattern *regexp.Regexp
}

// NewOrganizationDetector creates an organization detector from a
// validated config.
func NewOrganizationDetector(cfg *Config) *OrganizationDetector {
	return &OrganizationDetector{pattern: cfg.organization}
}

// Name implements Detector.
func (d *OrganizationDetector) Name() string { return "organization" }

// Detect implements Detector.
func (d *OrganizationDetector) Detect(lines []string) []Item {
	var items []Item
	for _, line := range lines {
		for _, match := range d.pattern.FindAllString(line, -1) {
			label := strings.Join(strings.Fields(match), " ")
			items = append(items, Item{
				Type:       TypeOrganization,
				Label:      label,
				Excerpt:    line,
				Confidence: OrganizationConfidence,
			})
		}
	}
	return items
}

// truncateLabel shortens s to MaxLabelRunes runes plus an ellipsis.
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxLabelRunes {
		return s
	}
	return string(runes[:MaxLabelRunes]) + "..."
}

var (
	_ Detector = (*SpeakerDetector)(nil)
	_ Detector = (*CommitmentDetector)(nil)
	_ Detector = (*OrganizationDetector)(nil)
)
