package region

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// AliasTable maps known historical or linguistic variants (uppercased) to a
// canonical region name.
type AliasTable map[string]string

// AliasManifest is the on-disk form of an alias table.
type AliasManifest struct {
	ID      string            `yaml:"id"`
	Source  string            `yaml:"source,omitempty"`
	Replace bool              `yaml:"replace,omitempty"`
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultAliases returns the built-in German/French/Italian canton variants.
func DefaultAliases() AliasTable {
	return AliasTable{
		"GENF":        "GENÈVE",
		"GENEVE":      "GENÈVE",
		"GENEVA":      "GENÈVE",
		"WALLIS":      "VALAIS",
		"GRAUBUNDEN":  "GRAUBÜNDEN",
		"GRISONS":     "GRAUBÜNDEN",
		"GRIGIONI":    "GRAUBÜNDEN",
		"GRAUBUENDEN": "GRAUBÜNDEN",
		"FREIBURG":    "FRIBOURG",
		"FRIBURG":     "FRIBOURG",
	}
}

// LoadAliases reads an alias manifest and merges it over the defaults, or
// replaces them when the manifest says so. An empty path yields the defaults.
func LoadAliases(path string) (AliasTable, error) {
	table := DefaultAliases()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases %s: %w", path, err)
	}
	var m AliasManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("aliases %s: missing id", path)
	}
	if m.Replace {
		table = make(AliasTable, len(m.Aliases))
	}
	for variant, canonical := range m.Aliases {
		table[JoinKey(variant)] = JoinKey(canonical)
	}
	return table, nil
}

// Variants returns the alias keys in sorted order.
func (t AliasTable) Variants() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
