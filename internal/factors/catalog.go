// Package factors holds the static factor catalog used to type rule conditions.
//
// The catalog is built once by flattening ordered categories into a key-indexed
// table. A key appearing in more than one category resolves to the definition
// from the later category. That collision behaviour is kept on purpose because
// consumers may rely on last-write-wins; Duplicates reports the colliding keys
// so they can be reviewed instead of silently fixed.
package factors

import (
	"sort"

	"github.com/solatis/tpaconsole/internal/types"
)

// Catalog is an immutable, flattened view over factor categories.
// Safe for concurrent reads.
type Catalog struct {
	categories []types.FactorCategory
	byKey      map[string]types.FactorDefinition
	duplicates []string
}

// New flattens categories in order. Later categories overwrite earlier
// definitions sharing a key.
func New(categories []types.FactorCategory) *Catalog {
	c := &Catalog{
		categories: cloneCategories(categories),
		byKey:      make(map[string]types.FactorDefinition),
	}

	seen := make(map[string]bool)
	for _, cat := range c.categories {
		for _, f := range cat.Factors {
			if _, ok := c.byKey[f.Key]; ok && !seen[f.Key] {
				c.duplicates = append(c.duplicates, f.Key)
				seen[f.Key] = true
			}
			c.byKey[f.Key] = f
		}
	}
	sort.Strings(c.duplicates)
	return c
}

// Lookup returns the definition for key. Unknown keys return false; callers
// treat them as free-text STRING factors.
func (c *Catalog) Lookup(key string) (types.FactorDefinition, bool) {
	f, ok := c.byKey[key]
	return f, ok
}

// DataType returns the declared type of key, STRING for unknown keys.
func (c *Catalog) DataType(key string) types.DataType {
	if f, ok := c.byKey[key]; ok {
		return f.DataType
	}
	return types.DataTypeString
}

// Categories returns a copy of the ordered category groups.
func (c *Catalog) Categories() []types.FactorCategory {
	return cloneCategories(c.categories)
}

// Len returns the number of distinct factor keys.
func (c *Catalog) Len() int {
	return len(c.byKey)
}

// Duplicates returns keys defined in more than one category, sorted.
func (c *Catalog) Duplicates() []string {
	out := make([]string, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}

func cloneCategories(in []types.FactorCategory) []types.FactorCategory {
	out := make([]types.FactorCategory, len(in))
	for i, cat := range in {
		factors := make([]types.FactorDefinition, len(cat.Factors))
		for j, f := range cat.Factors {
			if f.AllowedValues != nil {
				f.AllowedValues = append([]string(nil), f.AllowedValues...)
			}
			factors[j] = f
		}
		out[i] = types.FactorCategory{Key: cat.Key, Name: cat.Name, Factors: factors}
	}
	return out
}

var defaultCatalog = New(defaultCategories)

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Lookup resolves key against the built-in catalog.
func Lookup(key string) (types.FactorDefinition, bool) {
	return defaultCatalog.Lookup(key)
}
