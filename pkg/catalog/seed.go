package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultProducts []byte

func ParseProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}
	return products, nil
}

// Seed loads products from a yaml file, or the built in demo catalog when
// filename is empty, into an empty store.
func Seed(ctx context.Context, s *SQLStore, filename string) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	data := defaultProducts
	if filename != "" {
		if data, err = os.ReadFile(filename); err != nil {
			return 0, fmt.Errorf("read products: %w", err)
		}
	}
	products, err := ParseProducts(data)
	if err != nil {
		return 0, err
	}
	return len(products), s.Upsert(ctx, products...)
}
