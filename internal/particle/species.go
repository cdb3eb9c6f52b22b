package particle

import (
	"fmt"
	"strings"
)

// Species tags a particle with its kind. The pusher never reads it.
type Species int

const (
	Electron Species = iota
	Positron
	Ion
	Proton
	Neutral
)

var speciesNames = map[Species]string{
	Electron: "electron",
	Positron: "positron",
	Ion:      "ion",
	Proton:   "proton",
	Neutral:  "neutral",
}

func (s Species) String() string {
	if name, ok := speciesNames[s]; ok {
		return name
	}
	return fmt.Sprintf("species(%d)", int(s))
}

// ParseSpecies maps a case-insensitive name back to its Species.
func ParseSpecies(name string) (Species, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range speciesNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("particle: unknown species %q", name)
}

// SpeciesNames lists the known species in enumeration order.
func SpeciesNames() []string {
	names := make([]string, len(speciesNames))
	for s, n := range speciesNames {
		names[s] = n
	}
	return names
}

// MarshalText lets species round-trip through yaml and json as names.
func (s Species) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Species) UnmarshalText(text []byte) error {
	parsed, err := ParseSpecies(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
