package records

import (
	"fmt"
	"sort"
	"strings"
)

// Resource describes one dashboard collection.
type Resource struct {
	Name       string `json:"name" yaml:"name"`
	Path       string `json:"path" yaml:"path"`
	DateField  string `json:"date_field" yaml:"date_field"`
	ValueField string `json:"value_field,omitempty" yaml:"value_field"`
}

// Validate checks required fields.
func (r Resource) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyResourceName
	}
	if strings.TrimSpace(r.DateField) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyDateField, r.Name)
	}
	return nil
}

// DefaultResources lists the collections shown on the admin dashboard.
func DefaultResources() []Resource {
	return []Resource{
		{Name: "consultants", Path: "/consultants", DateField: "joinedDate"},
		{Name: "consumers", Path: "/consumers", DateField: "joinedDate"},
		{Name: "orders", Path: "/orders", DateField: "createdAt", ValueField: "amount"},
		{Name: "refunds", Path: "/refunds", DateField: "createdAt", ValueField: "amount"},
		{Name: "withdrawals", Path: "/withdrawals", DateField: "createdAt", ValueField: "amount"},
		{Name: "items", Path: "/items", DateField: "createdAt"},
		{Name: "prices", Path: "/prices", DateField: "updatedAt", ValueField: "price"},
	}
}

// Catalog is an immutable set of resources keyed by name.
type Catalog struct {
	resources map[string]Resource
}

// NewCatalog validates resources and builds a catalog. A resource without a
// path is served from "/<name>".
func NewCatalog(resources ...Resource) (*Catalog, error) {
	set := make(map[string]Resource, len(resources))
	for _, res := range resources {
		if err := res.Validate(); err != nil {
			return nil, err
		}
		if _, ok := set[res.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateResource, res.Name)
		}
		if res.Path == "" {
			res.Path = "/" + res.Name
		}
		set[res.Name] = res
	}
	return &Catalog{resources: set}, nil
}

// Get returns the named resource.
func (c *Catalog) Get(name string) (Resource, error) {
	if c != nil {
		if res, ok := c.resources[name]; ok {
			return res, nil
		}
	}
	return Resource{}, fmt.Errorf("%w: %s", ErrUnknownResource, name)
}

// Names returns the resource names sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.resources))
	for name := range c.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resources returns all resources sorted by name.
func (c *Catalog) Resources() []Resource {
	names := c.Names()
	out := make([]Resource, 0, len(names))
	for _, name := range names {
		out = append(out, c.resources[name])
	}
	return out
}
