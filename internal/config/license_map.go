// internal/config/license_map.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LicenseTarget names the policy or product a storefront item is licensed under.
type LicenseTarget struct {
	Policy  string `yaml:"policy"`
	Product string `yaml:"product"`
}

func (t LicenseTarget) Empty() bool {
	return t.Policy == "" && t.Product == ""
}

// LicenseMapping maps storefront variant and product ids to license targets.
// Variants win over products.
type LicenseMapping struct {
	Variants map[string]LicenseTarget `yaml:"variants"`
	Products map[string]LicenseTarget `yaml:"products"`
}

func (m LicenseMapping) Lookup(variantID, productID string) LicenseTarget {
	if t, ok := m.Variants[variantID]; ok && variantID != "" {
		return t
	}
	if t, ok := m.Products[productID]; ok && productID != "" {
		return t
	}
	return LicenseTarget{}
}

// LoadLicenseMapping reads a mapping file. An empty path yields an empty mapping.
func LoadLicenseMapping(path string) (LicenseMapping, error) {
	var m LicenseMapping
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read license mapping: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse license mapping %s: %w", path, err)
	}

	for id, t := range m.Variants {
		if t.Empty() {
			return m, fmt.Errorf("license mapping: variant %q has neither policy nor product", id)
		}
	}
	for id, t := range m.Products {
		if t.Empty() {
			return m, fmt.Errorf("license mapping: product %q has neither policy nor product", id)
		}
	}
	return m, nil
}
