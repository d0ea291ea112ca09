package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed localities.yaml
var defaultLocalities []byte

// Link is a labelled URL surfaced in the useful-phones section.
type Link struct {
	Label string `yaml:"label" json:"label"`
	URL   string `yaml:"url" json:"url"`
}

// LocalityContext holds the fixed, hand-authored attributes of one served
// locality.
type LocalityContext struct {
	ID                string `yaml:"id"`
	DisplayName       string `yaml:"displayName"`
	RegionName        string `yaml:"regionName"` // e.g. "Córdoba, Argentina"
	Country           string `yaml:"country"`    // slug, remote-store key part
	Province          string `yaml:"province"`   // slug, remote-store key part
	HighlightedEvent  string `yaml:"highlightedEvent"`
	OnDutyServiceText string `yaml:"onDutyService"`
	Links             []Link `yaml:"links"`
}

// FullName returns "<display name>, <region>".
func (l LocalityContext) FullName() string {
	if l.RegionName == "" {
		return l.DisplayName
	}
	return l.DisplayName + ", " + l.RegionName
}

// Catalog is the closed, read-only set of served localities.
type Catalog struct {
	byID map[string]LocalityContext
}

// NewCatalog builds a catalog from explicit records. Ids must be unique
// and every record needs the fields used to build prompts and store keys.
func NewCatalog(localities ...LocalityContext) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]LocalityContext, len(localities))}
	for _, l := range localities {
		if err := validateLocality(l); err != nil {
			return nil, err
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate locality id %q", l.ID)
		}
		l.Links = append([]Link(nil), l.Links...)
		c.byID[l.ID] = l
	}
	return c, nil
}

// ParseCatalog decodes a YAML document with a top-level "localities" list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Localities []LocalityContext `yaml:"localities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse locality catalog: %w", err)
	}
	if len(doc.Localities) == 0 {
		return nil, errors.New("locality catalog is empty")
	}
	return NewCatalog(doc.Localities...)
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultLocalities)
}

// Lookup resolves an id. There is no fuzzy matching and no fallback to
// another locality.
func (c *Catalog) Lookup(id string) (LocalityContext, error) {
	l, ok := c.byID[id]
	if !ok {
		return LocalityContext{}, &UnknownLocalityError{ID: id}
	}
	l.Links = append([]Link(nil), l.Links...)
	return l, nil
}

// IDs returns the known locality ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validateLocality(l LocalityContext) error {
	switch {
	case strings.TrimSpace(l.ID) == "":
		return errors.New("locality id is required")
	case strings.TrimSpace(l.DisplayName) == "":
		return fmt.Errorf("locality %q: displayName is required", l.ID)
	case strings.TrimSpace(l.Country) == "":
		return fmt.Errorf("locality %q: country is required", l.ID)
	case strings.TrimSpace(l.Province) == "":
		return fmt.Errorf("locality %q: province is required", l.ID)
	}
	return nil
}
