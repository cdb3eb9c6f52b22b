package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"
	"gopkg.in/yaml.v3"

	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 10.0
	DefaultRecordEvery = 1
	DefaultBackend     = "auto"
)

// Field kinds understood by the experiment registry.
const (
	FieldUniform = "uniform"
	FieldMirror  = "mirror"
	FieldWave    = "wave"
)

var (
	ErrInvalid       = errors.New("config: invalid")
	ErrUnknownFormat = errors.New("config: unknown file format")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

type Config struct {
	Name          string          `yaml:"name"`
	Backend       string          `yaml:"backend"`
	Dt            float64         `yaml:"dt"`
	Duration      float64         `yaml:"duration"`
	Seed          int64           `yaml:"seed"`
	RecordEvery   int             `yaml:"record_every"`
	Track         int             `yaml:"track"`
	ValidateState bool            `yaml:"validate_state"`
	Field         FieldConfig     `yaml:"field"`
	Species       []SpeciesConfig `yaml:"species"`
}

type FieldConfig struct {
	Kind string     `yaml:"kind"`
	E    [3]float64 `yaml:"e"`
	H    [3]float64 `yaml:"h"`
	// mirror
	B0     float64 `yaml:"b0"`
	Length float64 `yaml:"length"`
	// wave
	Amplitude float64 `yaml:"amplitude"`
	K         float64 `yaml:"k"`
	Omega     float64 `yaml:"omega"`
}

// SpeciesConfig describes one group of identical particles. Positions are
// spread uniformly over a cube of half-width Extent and momenta with a
// Gaussian of width Spread around the given centres.
type SpeciesConfig struct {
	Species  particle.Species `yaml:"species"`
	Count    int              `yaml:"count"`
	Mass     float64          `yaml:"mass"`
	QM       float64          `yaml:"qm"`
	Position [3]float64       `yaml:"position"`
	Momentum [3]float64       `yaml:"momentum"`
	Spread   float64          `yaml:"spread"`
	Extent   float64          `yaml:"extent"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:          "gyration",
		Backend:       DefaultBackend,
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		RecordEvery:   DefaultRecordEvery,
		ValidateState: true,
		Field: FieldConfig{
			Kind: FieldUniform,
			H:    [3]float64{0, 0, 1},
		},
		Species: []SpeciesConfig{
			{Species: particle.Electron, Count: 1, Mass: 1, QM: -1, Momentum: [3]float64{1, 0, 0}},
		},
	}
}

// Load reads a run configuration. YAML files (.yaml, .yml) and INI files
// (.ini, .gcfg) are accepted; unset values keep their defaults.
func Load(path string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".ini", ".gcfg":
		return loadINI(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Species = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Species) == 0 {
		cfg.Species = DefaultConfig().Species
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	}
	if c.RecordEvery < 0 || c.Track < 0 {
		return fmt.Errorf("%w: record_every and track must not be negative", ErrInvalid)
	}
	switch c.Field.Kind {
	case FieldUniform:
	case FieldMirror:
		if c.Field.Length == 0 {
			return fmt.Errorf("%w: mirror needs a non-zero length", ErrInvalid)
		}
	case FieldWave:
	default:
		return fmt.Errorf("%w: unknown field kind %q", ErrInvalid, c.Field.Kind)
	}
	if len(c.Species) == 0 {
		return fmt.Errorf("%w: no species", ErrInvalid)
	}
	for i, sp := range c.Species {
		if sp.Count <= 0 {
			return fmt.Errorf("%w: species %d (%s) has count %d", ErrInvalid, i, sp.Species, sp.Count)
		}
		if sp.Mass < 0 || sp.Spread < 0 || sp.Extent < 0 {
			return fmt.Errorf("%w: species %d (%s) has a negative mass, spread or extent", ErrInvalid, i, sp.Species)
		}
	}
	return nil
}

// NumParticles is the population size the config describes.
func (c *Config) NumParticles() int {
	n := 0
	for _, sp := range c.Species {
		n += sp.Count
	}
	return n
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		Seed:          c.Seed,
		RecordEvery:   c.RecordEvery,
		Track:         c.Track,
		ValidateState: c.ValidateState,
	}
}

// Clone returns a deep copy, so presets can be adjusted without side effects.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Species = append([]SpeciesConfig(nil), c.Species...)
	return &cp
}

type iniFile struct {
	Run struct {
		Name          string
		Backend       string
		Dt            float64
		Duration      float64
		Seed          int64
		RecordEvery   int `gcfg:"record-every"`
		Track         int
		ValidateState bool `gcfg:"validate-state"`
	}
	Field struct {
		Kind                string
		Ex, Ey, Ez          float64
		Hx, Hy, Hz          float64
		B0, Length          float64
		Amplitude, K, Omega float64
	}
	Species map[string]*iniSpecies
}

type iniSpecies struct {
	Kind       string
	Count      int
	Mass, QM   float64
	X, Y, Z    float64
	PU, PV, PW float64
	Spread     float64
	Extent     float64
}

func loadINI(path string) (*Config, error) {
	cfg := DefaultConfig()

	var f iniFile
	f.Run.Name = cfg.Name
	f.Run.Backend = cfg.Backend
	f.Run.Dt = cfg.Dt
	f.Run.Duration = cfg.Duration
	f.Run.RecordEvery = cfg.RecordEvery
	f.Run.ValidateState = cfg.ValidateState
	f.Field.Kind = cfg.Field.Kind
	f.Field.Hz = cfg.Field.H[2]

	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.Name = f.Run.Name
	cfg.Backend = f.Run.Backend
	cfg.Dt = f.Run.Dt
	cfg.Duration = f.Run.Duration
	cfg.Seed = f.Run.Seed
	cfg.RecordEvery = f.Run.RecordEvery
	cfg.Track = f.Run.Track
	cfg.ValidateState = f.Run.ValidateState
	cfg.Field = FieldConfig{
		Kind:      f.Field.Kind,
		E:         [3]float64{f.Field.Ex, f.Field.Ey, f.Field.Ez},
		H:         [3]float64{f.Field.Hx, f.Field.Hy, f.Field.Hz},
		B0:        f.Field.B0,
		Length:    f.Field.Length,
		Amplitude: f.Field.Amplitude,
		K:         f.Field.K,
		Omega:     f.Field.Omega,
	}

	if len(f.Species) > 0 {
		names := make([]string, 0, len(f.Species))
		for name := range f.Species {
			names = append(names, name)
		}
		sort.Strings(names)

		cfg.Species = make([]SpeciesConfig, 0, len(names))
		for _, name := range names {
			s := f.Species[name]
			kind := s.Kind
			if kind == "" {
				kind = name
			}
			sp, err := particle.ParseSpecies(kind)
			if err != nil {
				return nil, fmt.Errorf("%s: section species %q: %w", path, name, err)
			}
			cfg.Species = append(cfg.Species, SpeciesConfig{
				Species:  sp,
				Count:    s.Count,
				Mass:     s.Mass,
				QM:       s.QM,
				Position: [3]float64{s.X, s.Y, s.Z},
				Momentum: [3]float64{s.PU, s.PV, s.PW},
				Spread:   s.Spread,
				Extent:   s.Extent,
			})
		}
	}

	return cfg, nil
}
