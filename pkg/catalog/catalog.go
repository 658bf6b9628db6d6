// Package catalog holds the named, categorized SQL statements a readiness
// check runs. A Catalog is built once and is immutable afterwards; its
// declaration order is the order statements are executed in.
package catalog

import (
	"fmt"
	"strings"
)

// Category is the pipeline phase a query belongs to.
type Category string

// Pipeline categories, in the order a readiness check runs them.
const (
	Collection         Category = "collection"
	ExtendedCollection Category = "extended_collection"
	Transformation     Category = "transformation"
	Assessment         Category = "assessment"
)

// Categories returns every category in pipeline order.
func Categories() []Category {
	return []Category{Collection, ExtendedCollection, Transformation, Assessment}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Collection, ExtendedCollection, Transformation, Assessment:
		return true
	default:
		return false
	}
}

// CategoryOf derives the category from a query name prefix. The extended
// prefix is checked first because it contains the collection prefix.
func CategoryOf(name string) (Category, bool) {
	for _, c := range []Category{ExtendedCollection, Collection, Transformation, Assessment} {
		if strings.HasPrefix(name, string(c)+"_") {
			return c, true
		}
	}
	return "", false
}

// Spec is a single named, parameterized statement.
type Spec struct {
	Name        string
	Category    Category
	Description string
	SQL         string
}

// Catalog maps categories to ordered query names and names to statements.
type Catalog struct {
	name  string
	order map[Category][]string
	specs map[string]Spec
}

// New builds a catalog from specs, keeping their order within each category.
// Names must be unique across the catalog so that lookups are unambiguous.
func New(name string, specs ...Spec) (*Catalog, error) {
	c := &Catalog{
		name:  name,
		order: make(map[Category][]string),
		specs: make(map[string]Spec, len(specs)),
	}
	for _, s := range specs {
		if s.Name == "" {
			return nil, &LoadError{Catalog: name, Err: ErrEmptyName}
		}
		if !s.Category.Valid() {
			return nil, &LoadError{Catalog: name, Err: fmt.Errorf("%w: %q for %s", ErrUnknownCategory, s.Category, s.Name)}
		}
		if strings.TrimSpace(s.SQL) == "" {
			return nil, &LoadError{Catalog: name, Err: fmt.Errorf("%w: %s", ErrEmptyStatement, s.Name)}
		}
		if _, dup := c.specs[s.Name]; dup {
			return nil, &LoadError{Catalog: name, Err: fmt.Errorf("%w: %s", ErrDuplicateName, s.Name)}
		}
		c.specs[s.Name] = s
		c.order[s.Category] = append(c.order[s.Category], s.Name)
	}
	return c, nil
}

// Name returns the catalog name.
func (c *Catalog) Name() string {
	return c.name
}

// Names returns the query names for a category in declaration order. The
// result is never nil; an empty slice means the category has nothing to run.
func (c *Catalog) Names(category Category) []string {
	names := c.order[category]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Lookup returns the statement registered under name.
func (c *Catalog) Lookup(name string) (Spec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// Len returns the number of statements in the catalog.
func (c *Catalog) Len() int {
	return len(c.specs)
}
