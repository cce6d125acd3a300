package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

func TestQueryParser_Parse(t *testing.T) {
	parser := services.NewQueryParser(loadTaxonomy(t))

	tests := []struct {
		name       string
		raw        string
		normalized string
		keywords   []string
		intent     entities.Intent
		timeframe  string
		entityType string
		category   string
	}{
		{
			name:       "definition with category",
			raw:        "  What is   ZAKAT? ",
			normalized: "what is zakat?",
			keywords:   []string{"what", "zakat"},
			intent:     entities.IntentDefinition,
			category:   "zakat",
		},
		{
			name:       "how to",
			raw:        "How to perform prayer",
			normalized: "how to perform prayer",
			keywords:   []string{"how", "perform", "prayer"},
			intent:     entities.IntentHowTo,
			category:   "prayer",
		},
		{
			name:       "comparison needs spaced vs",
			raw:        "hanafi vs shafi",
			normalized: "hanafi vs shafi",
			keywords:   []string{"hanafi", "shafi"},
			intent:     entities.IntentComparison,
		},
		{
			name:       "person with timeframe",
			raw:        "who was the latest scholar",
			normalized: "who was the latest scholar",
			keywords:   []string{"who", "latest", "scholar"},
			intent:     entities.IntentPerson,
			timeframe:  "recent",
			entityType: "person",
		},
		{
			name:       "plain search",
			raw:        "ottoman mosques",
			normalized: "ottoman mosques",
			keywords:   []string{"ottoman", "mosques"},
			intent:     entities.IntentSearch,
			entityType: "place",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := parser.Parse(tt.raw)

			assert.Equal(t, tt.raw, parsed.Raw)
			assert.Equal(t, tt.normalized, parsed.Normalized)
			assert.Equal(t, tt.keywords, parsed.Keywords)
			assert.Equal(t, tt.intent, parsed.Intent)
			assertOptional(t, tt.timeframe, parsed.Timeframe)
			assertOptional(t, tt.entityType, parsed.EntityType)
			assertOptional(t, tt.category, parsed.CategoryFilter)
		})
	}
}

func assertOptional(t *testing.T, want string, got *string) {
	t.Helper()
	if want == "" {
		assert.Nil(t, got)
		return
	}
	if assert.NotNil(t, got) {
		assert.Equal(t, want, *got)
	}
}

func TestQueryParser_EmptyInput(t *testing.T) {
	parser := services.NewQueryParser(loadTaxonomy(t))

	parsed := parser.Parse("   ")

	assert.True(t, parsed.IsEmpty())
	assert.Empty(t, parsed.Keywords)
	assert.NotNil(t, parsed.Keywords)
	assert.Equal(t, entities.IntentSearch, parsed.Intent)
	assert.Nil(t, parsed.Timeframe)
	assert.Nil(t, parsed.CategoryFilter)
}

func TestTaxonomy_Keywords(t *testing.T) {
	taxonomy := loadTaxonomy(t)

	assert.Equal(t, []string{"prayer", "times", "makkah"}, taxonomy.Keywords("The prayer times of Makkah, prayer!"))
	assert.Empty(t, taxonomy.Keywords("to be or an"))
	assert.True(t, taxonomy.IsStopWord("the"))
	assert.False(t, taxonomy.IsStopWord("prayer"))
}

func TestTaxonomy_Interests(t *testing.T) {
	taxonomy := loadTaxonomy(t)

	assert.Equal(t, []string{"prayer", "fasting"}, taxonomy.InterestTopicsIn("Salah during Ramadan"))
	assert.Equal(t, "zakat", taxonomy.InterestKeywords("zakat")[0])
	assert.Contains(t, taxonomy.InterestKeywords("zakat"), "charity")
}

func TestParseTaxonomy_InvalidYAML(t *testing.T) {
	_, err := services.ParseTaxonomy([]byte("stop_words: [unterminated"))
	require.Error(t, err)
}
