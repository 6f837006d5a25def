// Package lexicon defines the structured content produced by the generative
// backend: dictionary entries, suggestion lists and translated text.
package lexicon

import (
	"strings"
)

// Entry is a dictionary entry for one word in one target language.
// Entries arrive progressively: early partial emissions may leave most
// fields empty and later emissions fill them in.
type Entry struct {
	Word      string   `json:"word" yaml:"word"`
	Language  string   `json:"language" yaml:"language"`
	Phonetic  string   `json:"phonetic,omitempty" yaml:"phonetic,omitempty"`
	Etymology string   `json:"etymology,omitempty" yaml:"etymology,omitempty"`
	Senses    []Sense  `json:"senses,omitempty" yaml:"senses,omitempty"`
	Examples  []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	Synonyms  []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// Sense is a single meaning of a word.
type Sense struct {
	Definition   string `json:"definition" yaml:"definition"`
	PartOfSpeech string `json:"partOfSpeech,omitempty" yaml:"part_of_speech,omitempty"`
	Translation  string `json:"translation,omitempty" yaml:"translation,omitempty"`
	UsageHint    string `json:"usageHint,omitempty" yaml:"usage_hint,omitempty"`
}

// Suggestion is one item of a suggestion list produced by the
// suggestions stream.
type Suggestion struct {
	Word   string `json:"word"`
	Reason string `json:"reason,omitempty"`
}

// Translation is the result of translating a paragraph of text.
type Translation struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
}

// Key identifies one logical request: a normalized query plus the
// target language. Concurrent requests with the same Key are collapsed
// into a single remote operation.
type Key struct {
	Query    string
	Language string
}

// NewKey normalizes the query (trimmed, lower-cased, inner whitespace
// collapsed) so that "Run " and "run" map to the same key.
func NewKey(query, language string) Key {
	return Key{
		Query:    strings.Join(strings.Fields(strings.ToLower(query)), " "),
		Language: strings.ToLower(strings.TrimSpace(language)),
	}
}

func (k Key) String() string {
	return k.Query + "|" + k.Language
}
