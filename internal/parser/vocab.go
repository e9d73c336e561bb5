package parser

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed vocab/roles.yaml vocab/categories.yaml
var vocabFS embed.FS

// RolePatternGroup is one entry of the ordered role-pattern table.
type RolePatternGroup struct {
	Role       Role       `yaml:"role"`
	Confidence Confidence `yaml:"confidence"`
	Patterns   []string   `yaml:"patterns"`
}

type roleVocab struct {
	Version int                `yaml:"version"`
	Roles   []RolePatternGroup `yaml:"roles"`
}

// CategorySignature is the keyword signature for one sheet category.
type CategorySignature struct {
	Category  Category `yaml:"category"`
	Strong    []string `yaml:"strong"`
	Weak      []string `yaml:"weak"`
	NameHints []string `yaml:"name_hints"`
}

// ScoringRules are the tunable constants of the sheet classifier.
type ScoringRules struct {
	StrongWeight   float64 `yaml:"strong_weight"`
	WeakWeight     float64 `yaml:"weak_weight"`
	NameBonus      float64 `yaml:"name_bonus"`
	GenericPenalty float64 `yaml:"generic_penalty"`
	MinDataRows    int     `yaml:"min_data_rows"`
	MinScore       float64 `yaml:"min_score"`
	MaxScanDepth   int     `yaml:"max_scan_depth"`
	MinHeaderCells int     `yaml:"min_header_cells"`
}

type categoryVocab struct {
	Version        int                 `yaml:"version"`
	Scoring        ScoringRules        `yaml:"scoring"`
	ReservedSheets []string            `yaml:"reserved_sheets"`
	GenericNames   []string            `yaml:"generic_names"`
	Categories     []CategorySignature `yaml:"categories"`
}

// Vocabulary holds the versioned rule tables loaded once at startup.
// Extending the vocabulary means editing the YAML, not the matching code.
type Vocabulary struct {
	RoleVersion     int
	RoleGroups      []RolePatternGroup
	CategoryVersion int
	Categories      []CategorySignature
	Scoring         ScoringRules
	ReservedSheets  []string
	GenericNames    []string
}

// LoadVocabulary parses the embedded rule tables.
func LoadVocabulary() (*Vocabulary, error) {
	var rv roleVocab
	data, err := vocabFS.ReadFile("vocab/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("read roles vocabulary: %w", err)
	}
	if err := yaml.Unmarshal(data, &rv); err != nil {
		return nil, fmt.Errorf("parse roles vocabulary: %w", err)
	}

	var cv categoryVocab
	data, err = vocabFS.ReadFile("vocab/categories.yaml")
	if err != nil {
		return nil, fmt.Errorf("read category vocabulary: %w", err)
	}
	if err := yaml.Unmarshal(data, &cv); err != nil {
		return nil, fmt.Errorf("parse category vocabulary: %w", err)
	}

	if len(rv.Roles) == 0 || len(cv.Categories) == 0 {
		return nil, fmt.Errorf("vocabulary tables are empty")
	}

	return &Vocabulary{
		RoleVersion:     rv.Version,
		RoleGroups:      rv.Roles,
		CategoryVersion: cv.Version,
		Categories:      cv.Categories,
		Scoring:         cv.Scoring,
		ReservedSheets:  cv.ReservedSheets,
		GenericNames:    cv.GenericNames,
	}, nil
}

// MustLoadVocabulary is LoadVocabulary for composition roots and tests
// where a broken embedded table is a programming error.
func MustLoadVocabulary() *Vocabulary {
	v, err := LoadVocabulary()
	if err != nil {
		panic(err)
	}
	return v
}
