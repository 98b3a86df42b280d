// Package storage holds the file-backed stores of the engine: the policy
// corpus, the incident report form template, and the in-memory session
// context store.
package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
	"gopkg.in/yaml.v3"
)

// Corpus is the process-wide, read-only set of policy sections. It is loaded
// once at startup and requires no locking afterwards.
type Corpus struct {
	sections []models.PolicySection
	byID     map[string]int
}

// LoadCorpus reads a YAML policy corpus file of the form:
//
//	sections:
//	  - id: "4.3"
//	    title: Repeated Falls
//	    body: |
//	      ...
//
// An empty or unreadable corpus is a startup failure, not a per-request error.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy corpus %s: %w", path, err)
	}

	var doc struct {
		Sections []models.PolicySection `yaml:"sections"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy corpus %s: %w", path, err)
	}

	return NewCorpus(doc.Sections)
}

// NewCorpus builds a corpus from the given sections, validating that it is
// non-empty and that every section has an ID and no ID repeats.
func NewCorpus(sections []models.PolicySection) (*Corpus, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("policy corpus is empty")
	}

	byID := make(map[string]int, len(sections))
	for i, s := range sections {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("policy section %d has no ID", i)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate policy section ID %q", s.ID)
		}
		byID[s.ID] = i
	}

	return &Corpus{
		sections: append([]models.PolicySection(nil), sections...),
		byID:     byID,
	}, nil
}

// Get returns the section with the given ID, or nil if absent.
func (c *Corpus) Get(id string) *models.PolicySection {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	s := c.sections[i]
	return &s
}

// Sections returns the sections in load order.
func (c *Corpus) Sections() []models.PolicySection {
	return append([]models.PolicySection(nil), c.sections...)
}

// Len returns the number of sections.
func (c *Corpus) Len() int {
	return len(c.sections)
}

// FullText renders the whole corpus as the plain-text block fed to the
// analysis capability.
func (c *Corpus) FullText() string {
	var b strings.Builder
	for i, s := range c.sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Section %s: %s\n%s", s.ID, s.Title, strings.TrimSpace(s.Body))
	}
	return b.String()
}
