package facet

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/matst80/slask-storefront/pkg/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Option struct {
	Id   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Catalog is the read-only list of valid genre, platform and publisher ids.
// A loaded catalog is never modified, refreshes replace it in a Store.
type Catalog struct {
	Genres     []Option `json:"genres" yaml:"genres"`
	Platforms  []Option `json:"platforms" yaml:"platforms"`
	Publishers []Option `json:"publishers" yaml:"publishers"`

	index map[types.FacetKind]map[string]string
}

func NewCatalog(genres, platforms, publishers []Option) *Catalog {
	c := &Catalog{Genres: genres, Platforms: platforms, Publishers: publishers}
	c.buildIndex()
	return c
}

func (c *Catalog) buildIndex() {
	c.index = make(map[types.FacetKind]map[string]string, len(types.FacetKinds))
	for _, kind := range types.FacetKinds {
		opts := c.Options(kind)
		names := make(map[string]string, len(opts))
		for _, o := range opts {
			names[o.Id] = o.Name
		}
		c.index[kind] = names
	}
}

func (c *Catalog) Options(kind types.FacetKind) []Option {
	if c == nil {
		return nil
	}
	switch kind {
	case types.Genre:
		return c.Genres
	case types.Platform:
		return c.Platforms
	case types.Publisher:
		return c.Publishers
	}
	return nil
}

func (c *Catalog) Has(kind types.FacetKind, id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[kind][id]
	return ok
}

// Name returns the display name, or the id itself for unknown values.
func (c *Catalog) Name(kind types.FacetKind, id string) string {
	if c != nil {
		if name, ok := c.index[kind][id]; ok && name != "" {
			return name
		}
	}
	return id
}

func (c *Catalog) validate() error {
	for _, kind := range types.FacetKinds {
		seen := map[string]struct{}{}
		for _, o := range c.Options(kind) {
			if o.Id == "" {
				return fmt.Errorf("%s option with empty id", kind)
			}
			if _, dup := seen[o.Id]; dup {
				return fmt.Errorf("duplicate %s option %q", kind, o.Id)
			}
			seen[o.Id] = struct{}{}
		}
	}
	return nil
}

func ParseYAML(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse facet catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.buildIndex()
	return c, nil
}

func LoadYAML(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read facet catalog: %w", err)
	}
	return ParseYAML(data)
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := ParseYAML(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}
