package analyzer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// WordBank is the static vocabulary for one language
type WordBank struct {
	Fragrance  []string `yaml:"fragrance"`
	Marketing  []string `yaml:"marketing"`
	Local      []string `yaml:"local"`
	Comparison []string `yaml:"comparison"`
	// Phrases are the attractive descriptors appended to SEO titles
	Phrases []string `yaml:"phrases"`
}

// Lexicon bundles both word banks and the stopword lists
type Lexicon struct {
	Arabic    WordBank `yaml:"arabic"`
	English   WordBank `yaml:"english"`
	Stopwords struct {
		Arabic  []string `yaml:"arabic"`
		English []string `yaml:"english"`
	} `yaml:"stopwords"`
}

// StopwordSet is a lowercase lookup table of words excluded from ranking
type StopwordSet map[string]struct{}

// NewStopwordSet builds a set from any number of word lists
func NewStopwordSet(lists ...[]string) StopwordSet {
	set := make(StopwordSet)
	for _, list := range lists {
		for _, w := range list {
			set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
	return set
}

// Contains reports whether word is a stopword
func (s StopwordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// StopwordSet returns the combined Arabic and English stopwords
func (l *Lexicon) StopwordSet() StopwordSet {
	return NewStopwordSet(l.Stopwords.Arabic, l.Stopwords.English)
}

// ParseLexicon decodes a YAML lexicon. Unknown keys are rejected.
func ParseLexicon(data []byte) (*Lexicon, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var lex Lexicon
	if err := dec.Decode(&lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// LoadLexicon reads a lexicon file, or returns the built-in one when path is empty
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// DefaultLexicon returns the lexicon compiled into the binary
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

func (l *Lexicon) validate() error {
	var errs []error
	for name, bank := range map[string]WordBank{"arabic": l.Arabic, "english": l.English} {
		if len(bank.Phrases) == 0 {
			errs = append(errs, fmt.Errorf("lexicon: %s.phrases must not be empty", name))
		}
		if len(bank.Fragrance) == 0 || len(bank.Marketing) == 0 {
			errs = append(errs, fmt.Errorf("lexicon: %s needs fragrance and marketing terms", name))
		}
	}
	return errors.Join(errs...)
}
