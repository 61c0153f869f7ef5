package facet

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/matst80/slask-storefront/pkg/types"
)

// Store holds the active catalog. Readers always see a complete catalog,
// Replace swaps the whole value.
type Store struct {
	current atomic.Pointer[Catalog]
}

func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

func (s *Store) Has(kind types.FacetKind, id string) bool {
	return s.Catalog().Has(kind, id)
}

func (s *Store) Replace(c *Catalog) {
	if c == nil {
		return
	}
	s.current.Store(c)
}

// ReplaceFromJSON is used for catalog updates delivered over the message bus.
func (s *Store) ReplaceFromJSON(data []byte) error {
	c := &Catalog{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode facet catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return err
	}
	c.buildIndex()
	s.Replace(c)
	return nil
}
