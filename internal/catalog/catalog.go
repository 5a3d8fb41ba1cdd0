// Package catalog holds the static interview data: question pools keyed by
// major, per-major keyword dictionaries and the lexicon used by the scorer.
package catalog

import (
	"regexp"
	"sort"
	"strings"
)

// Category identifies a question pool.
type Category string

const (
	CategoryGeneral            Category = "general"
	CategoryEducation          Category = "education"
	CategoryPreschoolEducation Category = "preschool_education"
	CategoryComputerScience    Category = "computer_science"
	CategoryBusiness           Category = "business"
	CategoryMarketing          Category = "marketing"
	CategoryEngineering        Category = "engineering"
)

// Difficulty is an advisory label attached to a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	majorPlaceholder    = "{{MAJOR}}"
	categoryPlaceholder = "{{CATEGORY}}"
	positionPlaceholder = "{{POSITION}}"

	defaultPosition = "该岗位"
)

// Question is a single interview question.
type Question struct {
	Title                   string     `yaml:"title" json:"title"`
	Content                 string     `yaml:"content" json:"content"`
	ExpectedDurationSeconds int        `yaml:"expected_duration_seconds" json:"expected_duration_seconds"`
	Category                Category   `yaml:"category,omitempty" json:"category"`
	Difficulty              Difficulty `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// KeywordSet is the term dictionary consulted by content analysis for one major.
type KeywordSet struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Advanced []string `yaml:"advanced"`
}

// Patterns are the regular expressions used by depth analysis.
type Patterns struct {
	Example      string            `yaml:"example"`
	Sequencing   string            `yaml:"sequencing"`
	Reflection   string            `yaml:"reflection"`
	Perspectives map[string]string `yaml:"perspectives"`

	example      *regexp.Regexp
	sequencing   *regexp.Regexp
	reflection   *regexp.Regexp
	perspectives []*regexp.Regexp
}

// Lexicon groups the language resources shared by every major.
type Lexicon struct {
	SentenceTerminators string   `yaml:"sentence_terminators"`
	Connectors          []string `yaml:"connectors"`
	PositiveAttitude    []string `yaml:"positive_attitude"`
	NegativeAttitude    []string `yaml:"negative_attitude"`
	Patterns            Patterns `yaml:"patterns"`
}

// Catalog is immutable after Load returns it.
type Catalog struct {
	Pools            map[Category][]Question `yaml:"pools"`
	Dictionaries     map[string]KeywordSet   `yaml:"dictionaries"`
	Lexicon          Lexicon                 `yaml:"lexicon"`
	GenericTemplates []Question              `yaml:"generic_templates"`
	Fallback         Question                `yaml:"fallback"`
}

// NormalizeKey turns a user supplied major into a pool or dictionary key.
func NormalizeKey(major string) string {
	key := strings.ToLower(strings.TrimSpace(major))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return key
}

// Pool returns the pool registered for major and whether it exists.
func (c *Catalog) Pool(major string) ([]Question, bool) {
	pool, ok := c.Pools[Category(NormalizeKey(major))]
	return pool, ok
}

// Dictionary returns the keyword set registered for major and whether it exists.
func (c *Catalog) Dictionary(major string) (KeywordSet, bool) {
	set, ok := c.Dictionaries[NormalizeKey(major)]
	return set, ok
}

// Majors returns the known pool keys in lexical order.
func (c *Catalog) Majors() []string {
	majors := make([]string, 0, len(c.Pools))
	for key := range c.Pools {
		majors = append(majors, string(key))
	}
	sort.Strings(majors)
	return majors
}

// GenericPool synthesizes a pool for a major without a registered pool by
// substituting the major into the generic templates.
func (c *Catalog) GenericPool(major string) []Question {
	pool := make([]Question, 0, len(c.GenericTemplates))
	for _, tmpl := range c.GenericTemplates {
		q := tmpl
		q.Title = strings.ReplaceAll(q.Title, majorPlaceholder, major)
		q.Content = strings.ReplaceAll(q.Content, majorPlaceholder, major)
		q.Category = CategoryGeneral
		pool = append(pool, q)
	}
	return pool
}

// FallbackQuestion renders the default question returned when no pool yields one.
func (c *Catalog) FallbackQuestion(category, difficulty, major, position string) Question {
	if strings.TrimSpace(category) == "" {
		category = string(CategoryGeneral)
	}
	if strings.TrimSpace(major) == "" {
		major = category
	}
	if strings.TrimSpace(position) == "" {
		position = defaultPosition
	}

	replacer := strings.NewReplacer(
		majorPlaceholder, major,
		categoryPlaceholder, category,
		positionPlaceholder, position,
	)

	q := c.Fallback
	q.Title = replacer.Replace(q.Title)
	q.Content = replacer.Replace(q.Content)
	q.Category = Category(NormalizeKey(category))
	if difficulty != "" {
		q.Difficulty = Difficulty(difficulty)
	}
	return q
}

// ExamplePattern matches answers that illustrate a point with a concrete case.
func (p *Patterns) ExamplePattern() *regexp.Regexp { return p.example }

// SequencingPattern matches answers with an explicit ordering of steps.
func (p *Patterns) SequencingPattern() *regexp.Regexp { return p.sequencing }

// ReflectionPattern matches answers that evaluate the speaker's own view.
func (p *Patterns) ReflectionPattern() *regexp.Regexp { return p.reflection }

// PerspectivePatterns returns the compiled perspective patterns.
func (p *Patterns) PerspectivePatterns() []*regexp.Regexp { return p.perspectives }
