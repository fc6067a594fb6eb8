// Package catalog holds the pattern catalogs driving metric matching,
// framework detection, and disclosure-code mapping. Catalogs are versioned
// data, embedded with defaults and overridable from a YAML file so tests
// can run against fixtures.
package catalog

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/esg-intel/internal/model"
)

// Category maps a metric category to its match patterns and the keyword
// family used for table topic inference.
type Category struct {
	Category model.MetricCategory `yaml:"category"`
	Patterns []string             `yaml:"patterns"`
	Keywords []string             `yaml:"keywords"`
}

// DisclosureCode is one framework sub-category with the patterns that
// evidence it in document text.
type DisclosureCode struct {
	Code     string   `yaml:"code"`
	Title    string   `yaml:"title"`
	Patterns []string `yaml:"patterns"`
}

// Framework describes one entry of the fixed framework catalog. Frameworks
// without Codes fall back to bare keyword matches during mapping.
type Framework struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Keywords []string         `yaml:"keywords"`
	Codes    []DisclosureCode `yaml:"codes,omitempty"`
}

// Catalog is the full versioned pattern catalog.
type Catalog struct {
	Version    string      `yaml:"version"`
	Categories []Category  `yaml:"categories"`
	Frameworks []Framework `yaml:"frameworks"`
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse %s", path)
	}
	if len(c.Categories) == 0 && len(c.Frameworks) == 0 {
		return nil, eris.Errorf("catalog: %s defines no categories or frameworks", path)
	}
	return &c, nil
}

// CompiledCategory holds a category with its patterns compiled.
type CompiledCategory struct {
	Category model.MetricCategory
	Patterns []*regexp.Regexp
	Keywords []string
}

// CompiledCode holds a disclosure code with its patterns compiled.
type CompiledCode struct {
	Code     string
	Title    string
	Patterns []*regexp.Regexp
}

// CompiledFramework holds a framework entry with compiled code patterns.
type CompiledFramework struct {
	ID       string
	Name     string
	Keywords []string
	Codes    []CompiledCode
}

// Compiled is a catalog with every pattern compiled case-insensitively.
// Declaration order is preserved; it is the tie-break order for primary
// framework selection.
type Compiled struct {
	Version    string
	Categories []CompiledCategory
	Frameworks []CompiledFramework
}

// Compile compiles all patterns. Every pattern is applied case-insensitively.
func (c *Catalog) Compile() (*Compiled, error) {
	out := &Compiled{Version: c.Version}

	for _, cat := range c.Categories {
		cc := CompiledCategory{Category: cat.Category, Keywords: cat.Keywords}
		for _, p := range cat.Patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: category %s pattern %q", cat.Category, p)
			}
			cc.Patterns = append(cc.Patterns, re)
		}
		out.Categories = append(out.Categories, cc)
	}

	for _, fw := range c.Frameworks {
		cf := CompiledFramework{ID: fw.ID, Name: fw.Name, Keywords: fw.Keywords}
		for _, code := range fw.Codes {
			ccode := CompiledCode{Code: code.Code, Title: code.Title}
			for _, p := range code.Patterns {
				re, err := regexp.Compile(`(?i)` + p)
				if err != nil {
					return nil, eris.Wrapf(err, "catalog: framework %s code %s pattern %q", fw.ID, code.Code, p)
				}
				ccode.Patterns = append(ccode.Patterns, re)
			}
			cf.Codes = append(cf.Codes, ccode)
		}
		out.Frameworks = append(out.Frameworks, cf)
	}

	return out, nil
}

// Framework returns the compiled framework with the given id, or nil.
func (c *Compiled) Framework(id string) *CompiledFramework {
	for i := range c.Frameworks {
		if c.Frameworks[i].ID == id {
			return &c.Frameworks[i]
		}
	}
	return nil
}

// MustCompileDefault compiles the embedded default catalog. It panics on
// error, which can only happen if the embedded patterns are invalid.
func MustCompileDefault() *Compiled {
	compiled, err := Default().Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}
