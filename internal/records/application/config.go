package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	records "marketplace-admin/internal/records/domain"
)

// ResourceConfig overrides or adds one catalog resource.
type ResourceConfig struct {
	Path       string `yaml:"path"`
	DateField  string `yaml:"date_field"`
	ValueField string `yaml:"value_field"`
	Disabled   bool   `yaml:"disabled"`
}

// CatalogConfig is the YAML shape of the resource catalog.
type CatalogConfig struct {
	Resources map[string]ResourceConfig `yaml:"resources"`
}

// LoadCatalog builds the catalog from defaults, overlaid by the YAML file named
// in DASHBOARD_CATALOG when set.
func LoadCatalog() (*records.Catalog, error) {
	return LoadCatalogFile(os.Getenv("DASHBOARD_CATALOG"))
}

// LoadCatalogFile builds the catalog from defaults, overlaid by path when non-empty.
func LoadCatalogFile(path string) (*records.Catalog, error) {
	var cfg CatalogConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	return cfg.Build(records.DefaultResources())
}

// Build merges the overrides into base and validates the result.
func (c CatalogConfig) Build(base []records.Resource) (*records.Catalog, error) {
	merged := make([]records.Resource, 0, len(base)+len(c.Resources))
	seen := make(map[string]struct{}, len(base))
	for _, res := range base {
		seen[res.Name] = struct{}{}
		override, ok := c.Resources[res.Name]
		if !ok {
			merged = append(merged, res)
			continue
		}
		if override.Disabled {
			continue
		}
		merged = append(merged, mergeResource(res, override))
	}
	for name, override := range c.Resources {
		if _, ok := seen[name]; ok || override.Disabled {
			continue
		}
		merged = append(merged, mergeResource(records.Resource{Name: name}, override))
	}
	return records.NewCatalog(merged...)
}

func mergeResource(base records.Resource, override ResourceConfig) records.Resource {
	if override.Path != "" {
		base.Path = override.Path
	}
	if override.DateField != "" {
		base.DateField = override.DateField
	}
	if override.ValueField != "" {
		base.ValueField = override.ValueField
	}
	return base
}
