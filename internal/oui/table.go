package oui

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var tableYAML []byte

// loadTable parses the embedded OUI asset, keyed by six uppercase hex
// characters (the MAC's first three octets with separators removed).
func loadTable() (map[string]string, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(tableYAML, &raw); err != nil {
		return nil, err
	}
	table := make(map[string]string, len(raw))
	for k, v := range raw {
		table[k] = v
	}
	return table, nil
}
