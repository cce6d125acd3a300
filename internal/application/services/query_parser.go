package services

import (
	"strings"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

// QueryParser turns raw query text into keywords and coarse hints.
type QueryParser struct {
	taxonomy *Taxonomy
}

// NewQueryParser creates a parser over the given taxonomy.
func NewQueryParser(taxonomy *Taxonomy) *QueryParser {
	return &QueryParser{taxonomy: taxonomy}
}

// Taxonomy returns the lookup tables the parser was built with.
func (p *QueryParser) Taxonomy() *Taxonomy {
	return p.taxonomy
}

// Parse never fails: empty input yields no keywords and the default intent.
func (p *QueryParser) Parse(raw string) *entities.ParsedQuery {
	normalized := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	parsed := &entities.ParsedQuery{
		Raw:        raw,
		Normalized: normalized,
		Keywords:   []string{},
		Intent:     entities.IntentSearch,
	}
	if normalized == "" {
		return parsed
	}

	parsed.Keywords = p.taxonomy.Keywords(normalized)

	// Padding lets word-bounded patterns such as " vs " match at either end.
	padded := " " + normalized + " "
	if intent := firstMatch(p.taxonomy.Intents, padded); intent != nil {
		parsed.Intent = entities.Intent(*intent)
	}
	parsed.Timeframe = firstMatch(p.taxonomy.Timeframes, padded)
	parsed.EntityType = firstMatch(p.taxonomy.EntityTypes, padded)

	for _, c := range p.taxonomy.Categories {
		if strings.Contains(normalized, c) {
			category := c
			parsed.CategoryFilter = &category
			break
		}
	}

	return parsed
}
