package services

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// minKeywordLength drops tokens of two characters or fewer.
const minKeywordLength = 3

// PatternEntry is a named list of substrings; the first entry with a
// matching pattern wins.
type PatternEntry struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// InterestTopic maps a domain topic to the words that signal it.
type InterestTopic struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy holds the static lookup tables shared by the query parser,
// the personalization engine and the clustering engine.
type Taxonomy struct {
	Version     int             `yaml:"version"`
	StopWords   []string        `yaml:"stop_words"`
	Intents     []PatternEntry  `yaml:"intents"`
	Timeframes  []PatternEntry  `yaml:"timeframes"`
	EntityTypes []PatternEntry  `yaml:"entity_types"`
	Categories  []string        `yaml:"categories"`
	Interests   []InterestTopic `yaml:"interests"`

	stopSet map[string]struct{}
}

// LoadTaxonomy reads the taxonomy resource from path.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy %s: %w", path, err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes a YAML taxonomy and normalizes every entry to lower case.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	t := &Taxonomy{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	t.stopSet = make(map[string]struct{}, len(t.StopWords))
	for i, w := range t.StopWords {
		t.StopWords[i] = strings.ToLower(strings.TrimSpace(w))
		t.stopSet[t.StopWords[i]] = struct{}{}
	}
	for _, table := range [][]PatternEntry{t.Intents, t.Timeframes, t.EntityTypes} {
		for i := range table {
			for j, p := range table[i].Patterns {
				// Patterns may carry significant spaces (" vs ").
				table[i].Patterns[j] = strings.ToLower(p)
			}
		}
	}
	for i, c := range t.Categories {
		t.Categories[i] = strings.ToLower(strings.TrimSpace(c))
	}
	for i := range t.Interests {
		t.Interests[i].Topic = strings.ToLower(strings.TrimSpace(t.Interests[i].Topic))
		for j, k := range t.Interests[i].Keywords {
			t.Interests[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
	}
	return t, nil
}

// IsStopWord reports whether w is in the stop-word list.
func (t *Taxonomy) IsStopWord(w string) bool {
	_, ok := t.stopSet[w]
	return ok
}

// Keywords tokenizes text on whitespace, lowercases, trims surrounding
// punctuation and drops short tokens and stop words. Order of first
// appearance is kept; duplicates are removed.
func (t *Taxonomy) Keywords(text string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if utf8.RuneCountInString(token) < minKeywordLength || t.IsStopWord(token) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}

// firstMatch returns the name of the first entry with a pattern contained in text.
func firstMatch(entries []PatternEntry, text string) *string {
	for _, e := range entries {
		for _, p := range e.Patterns {
			if p != "" && strings.Contains(text, p) {
				name := e.Name
				return &name
			}
		}
	}
	return nil
}

// InterestTopicsIn returns the topics whose keywords appear in text, in taxonomy order.
func (t *Taxonomy) InterestTopicsIn(text string) []string {
	text = strings.ToLower(text)
	var topics []string
	for _, it := range t.Interests {
		for _, k := range it.Keywords {
			if k != "" && strings.Contains(text, k) {
				topics = append(topics, it.Topic)
				break
			}
		}
	}
	return topics
}

// InterestKeywords returns the topic itself followed by its synonyms.
func (t *Taxonomy) InterestKeywords(topic string) []string {
	out := []string{topic}
	for _, it := range t.Interests {
		if it.Topic == topic {
			return append(out, it.Keywords...)
		}
	}
	return out
}
