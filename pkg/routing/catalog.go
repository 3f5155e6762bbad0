// Package routing holds the diagnostic catalog and the stateless probe/pattern detector.
package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Kind distinguishes probes from patterns.
type Kind string

const (
	KindProbe   Kind = "probe"
	KindPattern Kind = "pattern"
)

// Category orders probes: structural probes surface before domain probes.
type Category string

const (
	CategoryStructural Category = "structural"
	CategoryDomain     Category = "domain"
)

// ErrInvalidCatalog is returned when a catalog document fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Entry is one probe or pattern definition.
type Entry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Kind        Kind     `yaml:"-"`
	Category    Category `yaml:"category,omitempty"`
	RootProbe   string   `yaml:"root_probe,omitempty"`
	Priority    int      `yaml:"priority"`
	Always      bool     `yaml:"always,omitempty"`
	Description string   `yaml:"description"`
	Triggers    []string `yaml:"triggers"`

	matchers []trigger
}

type trigger struct {
	text string
	re   *regexp.Regexp
}

// Catalog is the parsed set of probes and patterns.
type Catalog struct {
	Probes   []Entry `yaml:"probes"`
	Patterns []Entry `yaml:"patterns"`

	byID map[string]*Entry
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	errDefault     error
)

// DefaultCatalog returns the embedded catalog, parsed once.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, errDefault = ParseCatalog(catalogYAML)
	})
	return defaultCatalog, errDefault
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	cat.byID = make(map[string]*Entry, len(cat.Probes)+len(cat.Patterns))

	for i := range cat.Probes {
		e := &cat.Probes[i]
		e.Kind = KindProbe
		if e.Category == "" {
			e.Category = CategoryDomain
		}
		if e.Category != CategoryStructural && e.Category != CategoryDomain {
			return nil, fmt.Errorf("%w: probe %q has unknown category %q", ErrInvalidCatalog, e.ID, e.Category)
		}
		if err := cat.index(e); err != nil {
			return nil, err
		}
	}
	for i := range cat.Patterns {
		e := &cat.Patterns[i]
		e.Kind = KindPattern
		if err := cat.index(e); err != nil {
			return nil, err
		}
	}
	for i := range cat.Patterns {
		e := &cat.Patterns[i]
		root, ok := cat.byID[e.RootProbe]
		if !ok || root.Kind != KindProbe {
			return nil, fmt.Errorf("%w: pattern %q references unknown root probe %q", ErrInvalidCatalog, e.ID, e.RootProbe)
		}
	}
	return &cat, nil
}

func (c *Catalog) index(e *Entry) error {
	if e.ID == "" || e.Name == "" {
		return fmt.Errorf("%w: %s entry missing id or name", ErrInvalidCatalog, e.Kind)
	}
	if _, dup := c.byID[e.ID]; dup {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, e.ID)
	}
	e.matchers = make([]trigger, 0, len(e.Triggers))
	for _, trig := range e.Triggers {
		trig = strings.TrimSpace(trig)
		if trig == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(trig) + `\b`)
		if err != nil {
			return fmt.Errorf("%w: trigger %q on %q: %w", ErrInvalidCatalog, trig, e.ID, err)
		}
		e.matchers = append(e.matchers, trigger{text: trig, re: re})
	}
	c.byID[e.ID] = e
	return nil
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	e, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Name returns the display name for id, falling back to id itself for unknown entries.
func (c *Catalog) Name(id string) string {
	if e, ok := c.Lookup(id); ok {
		return e.Name
	}
	return id
}

// IDs returns all ids of the given kind, sorted.
func (c *Catalog) IDs(kind Kind) []string {
	src := c.Probes
	if kind == KindPattern {
		src = c.Patterns
	}
	ids := make([]string, 0, len(src))
	for _, e := range src {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}

// Match returns the triggers of e found in text, in catalog order.
func (e Entry) Match(text string) []string {
	var hits []string
	for _, t := range e.matchers {
		if t.re.MatchString(text) {
			hits = append(hits, t.text)
		}
	}
	return hits
}
