package opening

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed families.yaml
var embeddedCatalog []byte

type catalogFile struct {
	Ranges []struct {
		Family string `yaml:"family"`
		From   string `yaml:"from"`
		To     string `yaml:"to"`
	} `yaml:"ranges"`
	Rules []struct {
		Family  string `yaml:"family"`
		Pattern string `yaml:"pattern"`
	} `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

type ecoRange struct {
	family string
	from   int
	to     int
}

type nameRule struct {
	family string
	rx     *regexp.Regexp
}

// Catalog holds the ordered family tables. Order is semantic: lookups stop
// at the first hit, and earlier ranges shadow later ones.
type Catalog struct {
	ranges   []ecoRange
	rules    []nameRule
	fallback string
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog built from the embedded data, loading it once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = parseCatalog(embeddedCatalog)
	})
	return defaultCat, defaultErr
}

// LoadFile reads a catalog override from disk. The file uses the same YAML
// shape as the embedded catalog and replaces it entirely.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opening catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse opening catalog: %w", err)
	}
	if len(f.Ranges) == 0 {
		return nil, fmt.Errorf("opening catalog has no ranges")
	}

	c := &Catalog{fallback: strings.TrimSpace(f.Fallback)}
	if c.fallback == "" {
		c.fallback = "Other/Irregular"
	}
	for _, r := range f.Ranges {
		from, ok := ecoKey(r.From)
		if !ok {
			return nil, fmt.Errorf("opening catalog: bad range start %q", r.From)
		}
		to, ok := ecoKey(r.To)
		if !ok {
			return nil, fmt.Errorf("opening catalog: bad range end %q", r.To)
		}
		if from > to {
			return nil, fmt.Errorf("opening catalog: inverted range %s-%s", r.From, r.To)
		}
		c.ranges = append(c.ranges, ecoRange{family: strings.TrimSpace(r.Family), from: from, to: to})
	}
	for _, r := range f.Rules {
		rx, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("opening catalog: bad pattern %q: %w", r.Pattern, err)
		}
		c.rules = append(c.rules, nameRule{family: strings.TrimSpace(r.Family), rx: rx})
	}
	return c, nil
}

// Fallback returns the catch-all family label.
func (c *Catalog) Fallback() string { return c.fallback }
