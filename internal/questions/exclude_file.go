package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-trainer/internal/catalog"
)

// ExcludedQuestions is the on-disk list of questions that should never be asked.
// The file is written as JSON; YAML is accepted when reading.
type ExcludedQuestions struct {
	Items []ExcludedQuestion `json:"items" yaml:"items"`
}

// ExcludedQuestion is a single entry of the exclude file.
type ExcludedQuestion struct {
	Title  string `json:"title" yaml:"title"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// GetExcludedFromFile reads the exclude file. A missing or empty file yields an
// empty list.
func GetExcludedFromFile(path string) (*ExcludedQuestions, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedQuestions{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return &ExcludedQuestions{}, nil
	}

	var excluded ExcludedQuestions
	if err := yaml.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("parsing exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

// Append adds titles that are not yet excluded.
func (e *ExcludedQuestions) Append(reason string, titles ...string) {
	known := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		known[item.Title] = struct{}{}
	}
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, ok := known[title]; ok {
			continue
		}
		known[title] = struct{}{}
		e.Items = append(e.Items, ExcludedQuestion{Title: title, Reason: reason})
	}
}

// Titles returns the excluded titles.
func (e *ExcludedQuestions) Titles() []string {
	titles := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		titles = append(titles, item.Title)
	}
	return titles
}

// ToFile writes the list to path, replacing its content.
func (e *ExcludedQuestions) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(e)
}

type excludeFileFilter struct {
	path   string
	titles map[string]struct{}
}

// NewExcludeFile creates a filter that removes questions listed in the exclude
// file at path. The file is read once.
func NewExcludeFile(path string) (Filter, error) {
	path = strings.TrimSpace(path)
	f := &excludeFileFilter{path: path, titles: map[string]struct{}{}}
	if path == "" {
		return f, nil
	}

	excluded, err := GetExcludedFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("getting excluded questions from file: %w", err)
	}
	for _, title := range excluded.Titles() {
		f.titles[title] = struct{}{}
	}

	return f, nil
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Apply(pool []catalog.Question) ([]catalog.Question, Step) {
	initial := len(pool)
	if len(f.titles) == 0 {
		return pool, Step{Initial: initial, Left: initial}
	}

	kept := make([]catalog.Question, 0, len(pool))
	for _, q := range pool {
		if _, excluded := f.titles[q.Title]; !excluded {
			kept = append(kept, q)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Details: details}
}
