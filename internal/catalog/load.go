package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrInvalid is returned when a catalog document fails validation.
var ErrInvalid = errors.New("invalid catalog")

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from the YAML file at path. An empty path returns the
// embedded catalog.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}

	return c, nil
}

// Parse decodes, validates and compiles a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}

	normalized := make(map[Category][]Question, len(c.Pools))
	for key, pool := range c.Pools {
		category := Category(NormalizeKey(string(key)))
		for i := range pool {
			pool[i].Category = category
		}
		normalized[category] = pool
	}
	c.Pools = normalized

	dictionaries := make(map[string]KeywordSet, len(c.Dictionaries))
	for key, set := range c.Dictionaries {
		dictionaries[NormalizeKey(key)] = KeywordSet{
			Positive: lowerAll(set.Positive),
			Negative: lowerAll(set.Negative),
			Advanced: lowerAll(set.Advanced),
		}
	}
	c.Dictionaries = dictionaries

	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := c.Lexicon.Patterns.compile(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return &c, nil
}

func validate(c *Catalog) error {
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one question pool is required")
	}

	for category, pool := range c.Pools {
		seen := make(map[string]struct{}, len(pool))
		for i, q := range pool {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("pool %s question %d: %w", category, i, err)
			}
			if _, dup := seen[q.Title]; dup {
				return fmt.Errorf("pool %s: duplicate title %q", category, q.Title)
			}
			seen[q.Title] = struct{}{}
		}
	}

	for i, tmpl := range c.GenericTemplates {
		if err := validateQuestion(tmpl); err != nil {
			return fmt.Errorf("generic template %d: %w", i, err)
		}
		if !strings.Contains(tmpl.Title, majorPlaceholder) {
			return fmt.Errorf("generic template %d: title must contain %s", i, majorPlaceholder)
		}
	}

	if err := validateQuestion(c.Fallback); err != nil {
		return fmt.Errorf("fallback question: %w", err)
	}

	if c.Lexicon.SentenceTerminators == "" {
		return fmt.Errorf("lexicon.sentence_terminators must not be empty")
	}

	return nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(q.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if q.ExpectedDurationSeconds <= 0 {
		return fmt.Errorf("expected_duration_seconds must be positive")
	}
	return nil
}

func (p *Patterns) compile() error {
	var err error
	if p.example, err = compileOptional("example", p.Example); err != nil {
		return err
	}
	if p.sequencing, err = compileOptional("sequencing", p.Sequencing); err != nil {
		return err
	}
	if p.reflection, err = compileOptional("reflection", p.Reflection); err != nil {
		return err
	}

	names := make([]string, 0, len(p.Perspectives))
	for name := range p.Perspectives {
		names = append(names, name)
	}
	sort.Strings(names)

	p.perspectives = p.perspectives[:0]
	for _, name := range names {
		re, err := compileOptional("perspective "+name, p.Perspectives[name])
		if err != nil {
			return err
		}
		if re != nil {
			p.perspectives = append(p.perspectives, re)
		}
	}

	return nil
}

func compileOptional(name, expr string) (*regexp.Regexp, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", name, err)
	}
	return re, nil
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}
