package extract

// ItemType is the kind of fact an Item describes.
type ItemType string

const (
	TypePerson       ItemType = "person"
	TypeOrganization ItemType = "organization"
	TypeProject      ItemType = "project"
	TypeCommitment   ItemType = "commitment"
	TypeNextAction   ItemType = "next_action"
	TypeInsight      ItemType = "insight"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypePerson, TypeOrganization, TypeProject, TypeCommitment, TypeNextAction, TypeInsight:
		return true
	}
	return false
}

// Fixed confidences assigned by the default detectors.
const (
	PersonConfidence       = 0.9
	CommitmentConfidence   = 0.65
	OrganizationConfidence = 0.6
)

// TagNeedsReview marks items a human should confirm before acceptance.
const TagNeedsReview = "needs_review"

// MaxLabelRunes is the label length above which commitment labels are
// truncated.
const MaxLabelRunes = 80

// Item is one extracted candidate fact.
// Items are unique per (Type, Label) within one extraction.
type Item struct {
	Type       ItemType `json:"type"`
	Label      string   `json:"label"`
	Excerpt    string   `json:"excerpt"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags,omitempty"`
}

func (i Item) key() string {
	return string(i.Type) + "\x00" + i.Label
}

// Detector finds items in the trimmed, non-empty lines of a transcript.
type Detector interface {
	// Name identifies the detector in logs.
	Name() string

	// Detect returns items in discovery order. Duplicates are allowed;
	// the Extractor removes them.
	Detect(lines []string) []Item
}
