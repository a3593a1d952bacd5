// Package catalog serves the static design-pattern catalog bundled with the
// binary: names, categories, descriptions and per-language starter code.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/patternlab/internal/domain"
)

//go:embed patterns.yaml
var catalogFS embed.FS

type catalogFile struct {
	Templates map[domain.Language]string `yaml:"templates"`
	Patterns  []domain.Pattern           `yaml:"patterns"`
}

type Catalog struct {
	patterns []domain.Pattern
	byID     map[string]int
	byName   map[string]int
	defaults map[domain.Language]string
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		raw, err := catalogFS.ReadFile("patterns.yaml")
		if err != nil {
			defaultErr = err
			return
		}
		defaultCat, defaultErr = Parse(raw)
	})
	return defaultCat, defaultErr
}

// MustDefault panics when the embedded catalog is malformed.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return c
}

func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, lang := range domain.Languages {
		if strings.TrimSpace(f.Templates[lang]) == "" {
			return nil, fmt.Errorf("catalog missing template for %s", lang)
		}
	}
	c := &Catalog{
		byID:     make(map[string]int, len(f.Patterns)),
		byName:   make(map[string]int, len(f.Patterns)),
		defaults: f.Templates,
	}
	for _, p := range f.Patterns {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog entry missing id or name")
		}
		if !p.Category.Valid() {
			return nil, fmt.Errorf("pattern %q has unknown category %q", p.ID, p.Category)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pattern id %q", p.ID)
		}
		p.Templates = make(map[domain.Language]string, len(f.Templates))
		for lang, code := range f.Templates {
			p.Templates[lang] = code
		}
		c.byID[p.ID] = len(c.patterns)
		c.byName[p.Name] = len(c.patterns)
		c.patterns = append(c.patterns, p)
	}
	if len(c.patterns) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return c, nil
}

// All returns the patterns in catalog order.
func (c *Catalog) All() []domain.Pattern {
	out := make([]domain.Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

func (c *Catalog) ByID(id string) (domain.Pattern, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Pattern{}, false
	}
	return c.patterns[i], true
}

func (c *Catalog) ByName(name string) (domain.Pattern, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.Pattern{}, false
	}
	return c.patterns[i], true
}

func (c *Catalog) ByCategory(cat domain.Category) []domain.Pattern {
	var out []domain.Pattern
	for _, p := range c.patterns {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists the categories present, sorted.
func (c *Catalog) Categories() []domain.Category {
	seen := map[domain.Category]bool{}
	var out []domain.Category
	for _, p := range c.patterns {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Template returns the starter code for the named pattern in lang. Unknown
// patterns fall back to the shared template so the editor is never empty.
func (c *Catalog) Template(patternName string, lang domain.Language) string {
	if p, ok := c.ByName(patternName); ok {
		if code, ok := p.Templates[lang]; ok {
			return code
		}
	}
	if code, ok := c.defaults[lang]; ok {
		return code
	}
	return c.defaults[domain.DefaultLanguage]
}
