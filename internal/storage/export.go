package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/sim"
)

type ExportFrame struct {
	Time      float64      `json:"time"`
	Positions [][3]float64 `json:"positions"`
	Momenta   [][3]float64 `json:"momenta"`
}

type ExportData struct {
	Name        string             `json:"name"`
	Backend     string             `json:"backend"`
	Field       string             `json:"field"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	Species     []string           `json:"species"`
	Frames      []ExportFrame      `json:"frames"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

func ExportJSON(path string, cfg *config.Config, backend string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return writeExport(file, cfg, backend, result)
}

func ExportJSONStdout(cfg *config.Config, backend string, result *sim.Result) error {
	return writeExport(os.Stdout, cfg, backend, result)
}

func writeExport(w io.Writer, cfg *config.Config, backend string, result *sim.Result) error {
	data := ExportData{
		Name:        cfg.Name,
		Backend:     backend,
		Field:       cfg.Field.Kind,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Steps:       result.StepsTaken,
		Frames:      make([]ExportFrame, len(result.Frames)),
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	for _, sp := range SpeciesOf(cfg) {
		data.Species = append(data.Species, sp.String())
	}
	for i, f := range result.Frames {
		ef := ExportFrame{
			Time:      f.Time,
			Positions: make([][3]float64, len(f.Positions)),
			Momenta:   make([][3]float64, len(f.Momenta)),
		}
		for j, p := range f.Positions {
			ef.Positions[j] = [3]float64{p.X, p.Y, p.Z}
		}
		for j, p := range f.Momenta {
			ef.Momenta[j] = [3]float64{p.X, p.Y, p.Z}
		}
		data.Frames[i] = ef
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
