package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var ErrMalformedTrajectory = errors.New("storage: malformed trajectory")

var trajectoryHeader = []string{"time", "particle", "species", "x", "y", "z", "pu", "pv", "pw"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Backend     string             `json:"backend"`
	Steps       int                `json:"steps"`
	Frames      int                `json:"frames"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
	Config      *config.Config     `json:"config"`
}

// Trajectory is a recorded run read back from disk. Species holds one entry
// per tracked particle.
type Trajectory struct {
	Frames  []sim.Frame
	Species []particle.Species
}

// Save writes metadata.json and trajectory.csv into a fresh run directory
// and returns its id. backend is the name of the backend that produced result.
func (s *Store) Save(cfg *config.Config, backend string, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        cfg.Name,
		Timestamp:   now,
		Backend:     backend,
		Steps:       result.StepsTaken,
		Frames:      len(result.Frames),
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
		Config:      cfg,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteTrajectoryCSV(csvFile, cfg, result.Frames); err != nil {
		return "", err
	}

	return runID, nil
}

// WriteTrajectoryCSV writes one row per particle per frame.
func WriteTrajectoryCSV(out io.Writer, cfg *config.Config, frames []sim.Frame) error {
	w := csv.NewWriter(out)

	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}

	species := SpeciesOf(cfg)
	row := make([]string, len(trajectoryHeader))
	for _, f := range frames {
		for i := range f.Positions {
			sp := particle.Neutral
			if i < len(species) {
				sp = species[i]
			}
			pos, mom := f.Positions[i], f.Momenta[i]

			row[0] = formatFloat(f.Time)
			row[1] = strconv.Itoa(i)
			row[2] = sp.String()
			row[3] = formatFloat(pos.X)
			row[4] = formatFloat(pos.Y)
			row[5] = formatFloat(pos.Z)
			row[6] = formatFloat(mom.X)
			row[7] = formatFloat(mom.Y)
			row[8] = formatFloat(mom.Z)
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// SpeciesOf expands the config's species groups into one entry per particle,
// in population order.
func SpeciesOf(cfg *config.Config) []particle.Species {
	out := make([]particle.Species, 0, cfg.NumParticles())
	for _, sp := range cfg.Species {
		for i := 0; i < sp.Count; i++ {
			out = append(out, sp.Species)
		}
	}
	return out
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadTrajectoryCSV(file)
}

// ReadTrajectoryCSV parses the format written by WriteTrajectoryCSV. A row
// with particle index 0 starts a new frame.
func ReadTrajectoryCSV(in io.Reader) (*Trajectory, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(trajectoryHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTrajectory, err)
	}

	traj := &Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}

	for line, record := range records[1:] {
		idx, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTrajectory, line+2, err)
		}
		var vals [7]float64
		for k, col := range []int{0, 3, 4, 5, 6, 7, 8} {
			if vals[k], err = strconv.ParseFloat(record[col], 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTrajectory, line+2, err)
			}
		}

		if idx == 0 {
			traj.Frames = append(traj.Frames, sim.Frame{Time: vals[0]})
		}
		if len(traj.Frames) == 0 {
			return nil, fmt.Errorf("%w: line %d: frame does not start at particle 0", ErrMalformedTrajectory, line+2)
		}
		f := &traj.Frames[len(traj.Frames)-1]
		if idx != len(f.Positions) {
			return nil, fmt.Errorf("%w: line %d: particle %d out of order", ErrMalformedTrajectory, line+2, idx)
		}
		f.Positions = append(f.Positions, particle.Vector3{X: vals[1], Y: vals[2], Z: vals[3]})
		f.Momenta = append(f.Momenta, particle.Vector3{X: vals[4], Y: vals[5], Z: vals[6]})

		if len(traj.Frames) == 1 {
			sp, err := particle.ParseSpecies(record[2])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTrajectory, line+2, err)
			}
			traj.Species = append(traj.Species, sp)
		}
	}

	return traj, nil
}

// Series extracts one coordinate of one particle across all frames.
// component is one of x, y, z, pu, pv, pw.
func (t *Trajectory) Series(index int, component string) ([]float64, error) {
	out := make([]float64, 0, len(t.Frames))
	for _, f := range t.Frames {
		if index < 0 || index >= len(f.Positions) {
			return nil, fmt.Errorf("particle %d not recorded", index)
		}
		var v float64
		switch component {
		case "x":
			v = f.Positions[index].X
		case "y":
			v = f.Positions[index].Y
		case "z":
			v = f.Positions[index].Z
		case "pu":
			v = f.Momenta[index].X
		case "pv":
			v = f.Momenta[index].Y
		case "pw":
			v = f.Momenta[index].Z
		default:
			return nil, fmt.Errorf("unknown component %q", component)
		}
		out = append(out, v)
	}
	return out, nil
}

// Population rebuilds the particles of one frame. A negative frame counts
// back from the last one. Mass and charge are not recorded and stay zero.
func (t *Trajectory) Population(frame int) ([]particle.Particle, error) {
	if frame < 0 {
		frame += len(t.Frames)
	}
	if frame < 0 || frame >= len(t.Frames) {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", frame, len(t.Frames))
	}
	f := t.Frames[frame]
	if len(f.Momenta) != len(f.Positions) {
		return nil, fmt.Errorf("%w: frame %d has %d positions and %d momenta",
			ErrMalformedTrajectory, frame, len(f.Positions), len(f.Momenta))
	}

	pop := make([]particle.Particle, len(f.Positions))
	for i, x := range f.Positions {
		p := f.Momenta[i]
		pop[i] = particle.New(x.X, x.Y, x.Z, p.X, p.Y, p.Z, 0, 0)
		if i < len(t.Species) {
			pop[i].Sort = t.Species[i]
		}
	}
	return pop, nil
}

func (t *Trajectory) Times() []float64 {
	out := make([]float64, len(t.Frames))
	for i, f := range t.Frames {
		out[i] = f.Time
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
