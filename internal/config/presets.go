package config

import (
	"fmt"
	"sort"

	"github.com/LyesMestiri/atom/internal/particle"
)

var Presets = map[string]*Config{
	// One electron in a unit magnetic field; the run covers a little more than one gyration period.
	"gyration": {
		Name: "gyration", Backend: "serial", Dt: 0.01, Duration: 10.0, RecordEvery: 1, ValidateState: true,
		Field: FieldConfig{Kind: FieldUniform, H: [3]float64{0, 0, 1}},
		Species: []SpeciesConfig{
			{Species: particle.Electron, Count: 1, Mass: 1, QM: -1, Momentum: [3]float64{1, 0, 0}},
		},
	},
	"exb_drift": {
		Name: "exb_drift", Backend: "serial", Dt: 0.01, Duration: 60.0, RecordEvery: 5, ValidateState: true,
		Field: FieldConfig{Kind: FieldUniform, E: [3]float64{0, 0.1, 0}, H: [3]float64{0, 0, 1}},
		Species: []SpeciesConfig{
			{Species: particle.Proton, Count: 1, Mass: 1836, QM: 1, Momentum: [3]float64{0.2, 0, 0}},
			{Species: particle.Electron, Count: 1, Mass: 1, QM: -1, Momentum: [3]float64{0.2, 0, 0}},
		},
	},
	"mirror": {
		Name: "mirror", Backend: "serial", Dt: 0.01, Duration: 100.0, RecordEvery: 5, ValidateState: true,
		Field: FieldConfig{Kind: FieldMirror, B0: 1, Length: 2},
		Species: []SpeciesConfig{
			{Species: particle.Proton, Count: 1, Mass: 1, QM: 1,
				Position: [3]float64{0.5, 0, 0}, Momentum: [3]float64{0, -0.5, 0.2}},
		},
	},
	"wave": {
		Name: "wave", Backend: "serial", Dt: 0.01, Duration: 50.0, RecordEvery: 2, ValidateState: true,
		Field: FieldConfig{Kind: FieldWave, Amplitude: 0.5, K: 1, Omega: 1},
		Species: []SpeciesConfig{
			{Species: particle.Electron, Count: 1, Mass: 1, QM: -1},
		},
	},
	"accelerate": {
		Name: "accelerate", Backend: "serial", Dt: 0.01, Duration: 20.0, RecordEvery: 2, ValidateState: true,
		Field: FieldConfig{Kind: FieldUniform, E: [3]float64{0, 0, 0.5}},
		Species: []SpeciesConfig{
			{Species: particle.Electron, Count: 1, Mass: 1, QM: -1},
			{Species: particle.Positron, Count: 1, Mass: 1, QM: 1},
		},
	},
	"beam": {
		Name: "beam", Backend: "cpu", Dt: 0.01, Duration: 20.0, Seed: 42, RecordEvery: 10, Track: 16, ValidateState: true,
		Field: FieldConfig{Kind: FieldUniform, E: [3]float64{0.05, 0, 0}, H: [3]float64{0, 0, 2}},
		Species: []SpeciesConfig{
			{Species: particle.Electron, Count: 4096, Mass: 1, QM: -1,
				Momentum: [3]float64{0, 0, 1}, Spread: 0.05, Extent: 1},
			{Species: particle.Ion, Count: 1024, Mass: 1836, QM: 1.0 / 1836,
				Spread: 0.01, Extent: 1},
		},
	},
}

// GetPreset returns a copy of the named preset.
func GetPreset(name string) (*Config, error) {
	cfg, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return cfg.Clone(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
