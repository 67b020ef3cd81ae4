package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func labelsOf(items []Item, t ItemType) []string {
	var labels []string
	for _, item := range items {
		if item.Type == t {
			labels = append(labels, item.Label)
		}
	}
	return labels
}

func TestExtract_SpeakerAndSync(t *testing.T) {
	e := MustNew(nil, zaptest.NewLogger(t))

	items := e.Extract("Alice: let's sync tomorrow\nBob: sounds good")
	require.Len(t, items, 3)

	assert.Equal(t, TypePerson, items[0].Type)
	assert.Equal(t, "Alice", items[0].Label)
	assert.Equal(t, PersonConfidence, items[0].Confidence)
	assert.Equal(t, "Mentioned as a participant: Alice", items[0].Excerpt)

	assert.Equal(t, TypePerson, items[1].Type)
	assert.Equal(t, "Bob", items[1].Label)

	assert.Equal(t, TypeNextAction, items[2].Type)
	assert.Equal(t, "Alice: let's sync tomorrow", items[2].Label)
	assert.Equal(t, "Alice: let's sync tomorrow", items[2].Excerpt)
	assert.Equal(t, CommitmentConfidence, items[2].Confidence)
	assert.Equal(t, []string{TagNeedsReview}, items[2].Tags)

	assert.Empty(t, labelsOf(items, TypeOrganization))
}

func TestExtract_EmptyInput(t *testing.T) {
	e := MustNew(nil, nil)

	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		items := e.Extract(input)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
}

func TestExtract_SpeakerRejections(t *testing.T) {
	e := MustNew(nil, nil)

	tests := []struct {
		name string
		line string
	}{
		{"date prefix", "03/12 Carol: hello there"},
		{"timestamp prefix", "03/12 09:15 Carol: hello there"},
		{"time only", "10:30: standup notes"},
		{"url", "see https://example.com/page"},
		{"no space after colon", "ratio:3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, labelsOf(e.Extract(tt.line), TypePerson))
		})
	}
}

func TestExtract_CommitmentVsNextAction(t *testing.T) {
	e := MustNew(nil, nil)

	tests := []struct {
		line string
		want ItemType
	}{
		{"I'll send the deck tonight", TypeCommitment},
		{"We should revisit pricing", TypeCommitment},
		{"Happy to introduce you to Dana", TypeNextAction},
		{"Let's book a call next week", TypeNextAction},
		{"Agreed on next steps with legal", TypeNextAction},
		{"I will follow-up on Monday", TypeNextAction},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			items := e.Extract(tt.line)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Type)
			assert.Equal(t, CommitmentConfidence, items[0].Confidence)
		})
	}
}

func TestExtract_TypographicApostrophes(t *testing.T) {
	e := MustNew(nil, nil)

	tests := []struct {
		line string
		want ItemType
	}{
		{"I’ll send the deck tonight", TypeCommitment},
		{"We’ll draft the terms", TypeCommitment},
		{"Let’s book a call next week", TypeNextAction},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			items := e.Extract(tt.line)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Type)
			assert.Equal(t, tt.line, items[0].Excerpt)
		})
	}

	t.Run("typographic phrase matches ascii text", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Commitments = []string{"I’ll"}
		cfg.Actionable = []string{"demo"}
		custom := MustNew(cfg, nil)
		items := custom.Extract("I'll draft it")
		require.Len(t, items, 1)
		assert.Equal(t, TypeCommitment, items[0].Type)
	})

	t.Run("contraction is not a phrase", func(t *testing.T) {
		assert.Empty(t, e.Extract("I can’t make it"))
	})
}

func TestExtract_WholeWordsOnly(t *testing.T) {
	e := MustNew(nil, nil)

	for _, line := range []string{
		"I can't make it",
		"We recalled the incident",
		"It was rescheduled already",
		"The shares dropped",
	} {
		t.Run(line, func(t *testing.T) {
			assert.Empty(t, e.Extract(line))
		})
	}
}

func TestExtract_LongLabelTruncated(t *testing.T) {
	e := MustNew(nil, nil)

	line := "I'll " + strings.Repeat("prepare the onboarding materials ", 5)
	line = strings.TrimSpace(line)
	items := e.Extract(line)
	require.Len(t, items, 1)

	assert.Equal(t, MaxLabelRunes+3, len([]rune(items[0].Label)))
	assert.True(t, strings.HasSuffix(items[0].Label, "..."))
	assert.Equal(t, line, items[0].Excerpt)
}

func TestExtract_Organizations(t *testing.T) {
	e := MustNew(nil, nil)

	text := strings.Join([]string{
		"We met with Acme Corp and Globex Corporation today.",
		"Initech Inc. declined.",
		"Acme Corp wants pricing",
		"Stark Co. is in",
	}, "\n")
	items := e.Extract(text)

	orgs := labelsOf(items, TypeOrganization)
	assert.Equal(t, []string{"Acme Corp", "Globex Corporation", "Initech Inc", "Stark Co."}, orgs)
	for _, item := range items {
		if item.Type == TypeOrganization {
			assert.Equal(t, OrganizationConfidence, item.Confidence)
		}
	}
}

func TestExtract_NoDuplicateTypeLabel(t *testing.T) {
	e := MustNew(nil, nil)

	text := strings.Join([]string{
		"Alice: let's sync",
		"Alice: let's sync",
		"Bob: Acme Corp will pilot it",
		"Alice: Acme Corp again",
	}, "\n")
	items := e.Extract(text)

	seen := make(map[string]bool)
	for _, item := range items {
		k := item.key()
		assert.False(t, seen[k], "duplicate %s/%s", item.Type, item.Label)
		seen[k] = true
	}
	assert.Equal(t, []string{"Alice", "Bob"}, labelsOf(items, TypePerson))
	assert.Equal(t, []string{"Acme Corp"}, labelsOf(items, TypeOrganization))
}

func TestExtract_DiscoveryOrder(t *testing.T) {
	e := MustNew(nil, nil)

	items := e.Extract("Initech Inc. said hi\nDana: I'll call them")
	require.Len(t, items, 3)
	assert.Equal(t, TypePerson, items[0].Type)
	assert.Equal(t, TypeNextAction, items[1].Type)
	assert.Equal(t, TypeOrganization, items[2].Type)
}

func TestExtract_CustomVocabulary(t *testing.T) {
	cfg := &Config{
		Commitments: []string{"ship", "demo"},
		Actionable:  []string{"demo"},
		OrgSuffixes: []string{"GmbH"},
	}
	e := MustNew(cfg, nil)

	items := e.Extract("We ship Friday\nThen a demo for Siemens Energy GmbH\nLet's sync")
	assert.Equal(t, []string{"We ship Friday"}, labelsOf(items, TypeCommitment))
	assert.Equal(t, []string{"Then a demo for Siemens Energy GmbH"}, labelsOf(items, TypeNextAction))
	assert.Equal(t, []string{"Siemens Energy GmbH"}, labelsOf(items, TypeOrganization))
}

type fixedDetector struct{ items []Item }

func (d fixedDetector) Name() string           { return "fixed" }
func (d fixedDetector) Detect([]string) []Item { return d.items }

func TestNewWithDetectors(t *testing.T) {
	insight := Item{Type: TypeInsight, Label: "prefers mornings", Confidence: 0.5}
	e := NewWithDetectors(nil, fixedDetector{items: []Item{insight, insight}})

	items := e.Extract("anything")
	require.Len(t, items, 1)
	assert.Equal(t, insight, items[0])
}

func TestConfigValidate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.Commitments)
		assert.Equal(t, 40, cfg.SpeakerMaxLen)
	})

	t.Run("blank phrases only", func(t *testing.T) {
		cfg := &Config{Commitments: []string{" ", ""}}
		assert.Error(t, cfg.Validate())
	})
}

func TestItemTypeValid(t *testing.T) {
	assert.True(t, TypeNextAction.Valid())
	assert.False(t, ItemType("event").Valid())
}
