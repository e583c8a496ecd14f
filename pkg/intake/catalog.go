package intake

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Date list keys.
const (
	ListThrombolytic = "thrombolytic"
	ListThrombectomy = "thrombectomy"
)

// StepInfo describes one form step.
type StepInfo struct {
	Number Step   `yaml:"number"`
	Title  string `yaml:"title"`
	Label  string `yaml:"label"`
}

// ServiceCategory groups services under a heading.
type ServiceCategory struct {
	Name     string   `yaml:"name"`
	Services []string `yaml:"services"`
}

// ServiceTab filters the categories shown.
type ServiceTab struct {
	Name       string   `yaml:"name"`
	All        bool     `yaml:"all"`
	Categories []string `yaml:"categories"`
}

// DateList describes a bounded date list.
type DateList struct {
	Label  string `yaml:"label"`
	Prompt string `yaml:"prompt"`
	Max    int    `yaml:"max"`
}

// State is a US state option.
type State struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Catalog holds the fixed lookup tables of the form.
type Catalog struct {
	Steps             []StepInfo          `yaml:"steps"`
	FacilityTypes     []string            `yaml:"facility_types"`
	ServiceCategories []ServiceCategory   `yaml:"service_categories"`
	ServiceTabs       []ServiceTab        `yaml:"service_tabs"`
	Standards         []string            `yaml:"standards"`
	DateLists         map[string]DateList `yaml:"date_lists"`
	States            []State             `yaml:"states"`
}

var defaultCatalog = mustParseCatalog(catalogYAML)

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

func mustParseCatalog(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate() error {
	if len(c.Steps) != int(LastStep) {
		return fmt.Errorf("want %d steps, got %d", LastStep, len(c.Steps))
	}
	for i, s := range c.Steps {
		if s.Number != Step(i+1) {
			return fmt.Errorf("step %d out of order", s.Number)
		}
	}
	if len(c.FacilityTypes) == 0 {
		return errors.New("no facility types")
	}
	for _, key := range []string{ListThrombolytic, ListThrombectomy} {
		if c.DateLists[key].Max <= 0 {
			return fmt.Errorf("date list %q has no limit", key)
		}
	}
	return nil
}

// Step returns the info for step s.
func (c *Catalog) Step(s Step) (StepInfo, bool) {
	if !s.Valid() || int(s) > len(c.Steps) {
		return StepInfo{}, false
	}
	return c.Steps[s-1], true
}

// StateCodes returns the state codes in catalog order.
func (c *Catalog) StateCodes() []string {
	codes := make([]string, len(c.States))
	for i, s := range c.States {
		codes[i] = s.Code
	}
	return codes
}

// DateList returns the date list for key.
func (c *Catalog) DateList(key string) (DateList, bool) {
	d, ok := c.DateLists[key]
	return d, ok
}

// Tab returns the tab with the given name.
func (c *Catalog) Tab(name string) (ServiceTab, bool) {
	i := slices.IndexFunc(c.ServiceTabs, func(t ServiceTab) bool { return t.Name == name })
	if i < 0 {
		return ServiceTab{}, false
	}
	return c.ServiceTabs[i], true
}

// FilterServices returns the categories shown under tab whose services
// contain query, case-insensitively. Empty categories are dropped.
func (c *Catalog) FilterServices(tab, query string) []ServiceCategory {
	t, ok := c.Tab(tab)
	if !ok {
		t = ServiceTab{All: true}
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var out []ServiceCategory
	for _, cat := range c.ServiceCategories {
		if !t.All && !slices.Contains(t.Categories, cat.Name) {
			continue
		}
		var services []string
		for _, s := range cat.Services {
			if q == "" || strings.Contains(strings.ToLower(s), q) {
				services = append(services, s)
			}
		}
		if len(services) > 0 {
			out = append(out, ServiceCategory{Name: cat.Name, Services: services})
		}
	}
	return out
}

// HasService reports whether name is a catalog service.
func (c *Catalog) HasService(name string) bool {
	for _, cat := range c.ServiceCategories {
		if slices.Contains(cat.Services, name) {
			return true
		}
	}
	return false
}
