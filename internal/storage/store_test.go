package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

func testRun() (*config.Config, *sim.Result) {
	cfg := config.DefaultConfig()
	cfg.Name = "test"
	cfg.Seed = 42
	cfg.Species = append(cfg.Species, config.SpeciesConfig{
		Species: particle.Proton, Count: 1, Mass: 1836, QM: 1,
	})

	result := &sim.Result{
		Frames: []sim.Frame{
			{
				Time:      0,
				Positions: []particle.Vector3{{X: 0}, {X: 1}},
				Momenta:   []particle.Vector3{{X: 1}, {Y: 0.5}},
			},
			{
				Time:      0.01,
				Positions: []particle.Vector3{{X: 0.0070710678118654755, Y: -0.0000353}, {X: 1, Y: 0.004}},
				Momenta:   []particle.Vector3{{X: 0.99995, Y: -0.0099998}, {X: 0.0001, Y: 0.5}},
			},
		},
		Metrics:     map[string]float64{"kinetic_energy": 1.5},
		EnergyDrift: 1e-15,
		StepsTaken:  1,
		Errors:      []error{errors.New("boom")},
	}
	return cfg, result
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg, result := testRun()
	runID, err := st.Save(cfg, "serial", result)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "test_"))

	meta, err := st.Load(runID)
	require.NoError(t, err)

	assert.Equal(t, "test", meta.Name)
	assert.Equal(t, "serial", meta.Backend)
	assert.Equal(t, 1, meta.Steps)
	assert.Equal(t, 2, meta.Frames)
	assert.Equal(t, 1.5, meta.Metrics["kinetic_energy"])
	assert.Equal(t, []string{"boom"}, meta.Errors)
	require.NotNil(t, meta.Config)
	assert.Equal(t, int64(42), meta.Config.Seed)
	assert.Equal(t, cfg.Species, meta.Config.Species)

	traj, err := st.LoadTrajectory(runID)
	require.NoError(t, err)
	assert.Equal(t, result.Frames, traj.Frames)
	assert.Equal(t, []particle.Species{particle.Electron, particle.Proton}, traj.Species)
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	cfg, result := testRun()
	first, err := st.Save(cfg, "serial", result)
	require.NoError(t, err)
	second, err := st.Save(cfg, "cpu", result)
	require.NoError(t, err)

	// stray directories without metadata are ignored
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	cfg, result := testRun()
	runID, err := st.Save(cfg, "serial", result)
	require.NoError(t, err)

	runDir := filepath.Join(tmpDir, runID)
	assert.FileExists(t, filepath.Join(runDir, "metadata.json"))
	assert.FileExists(t, filepath.Join(runDir, "trajectory.csv"))

	data, err := os.ReadFile(filepath.Join(runDir, "trajectory.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "time,particle,species,x,y,z,pu,pv,pw", lines[0])
	assert.Len(t, lines, 5)
	assert.Equal(t, "0,1,proton,1,0,0,0,0.5,0", lines[2])
}

func TestReadTrajectoryCSV_Malformed(t *testing.T) {
	header := "time,particle,species,x,y,z,pu,pv,pw\n"
	tests := []struct {
		name string
		body string
	}{
		{"bad float", "0,0,electron,abc,0,0,0,0,0\n"},
		{"bad index", "0,one,electron,0,0,0,0,0,0\n"},
		{"missing first particle", "0,1,electron,0,0,0,0,0,0\n"},
		{"out of order", "0,0,electron,0,0,0,0,0,0\n0,2,electron,0,0,0,0,0,0\n"},
		{"unknown species", "0,0,muon,0,0,0,0,0,0\n"},
		{"short row", "0,0,electron\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTrajectoryCSV(strings.NewReader(header + tt.body))
			assert.ErrorIs(t, err, ErrMalformedTrajectory)
		})
	}
}

func TestReadTrajectoryCSV_Empty(t *testing.T) {
	traj, err := ReadTrajectoryCSV(strings.NewReader("time,particle,species,x,y,z,pu,pv,pw\n"))
	require.NoError(t, err)
	assert.Empty(t, traj.Frames)
}

func TestTrajectorySeries(t *testing.T) {
	_, result := testRun()
	traj := &Trajectory{Frames: result.Frames}

	xs, err := traj.Series(1, "y")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.004}, xs)

	pv, err := traj.Series(1, "pv")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, pv)

	assert.Equal(t, []float64{0, 0.01}, traj.Times())

	_, err = traj.Series(5, "x")
	assert.Error(t, err)
	_, err = traj.Series(0, "energy")
	assert.Error(t, err)
}

func TestTrajectoryPopulation(t *testing.T) {
	_, result := testRun()
	traj := &Trajectory{
		Frames:  result.Frames,
		Species: []particle.Species{particle.Electron, particle.Proton},
	}

	pop, err := traj.Population(-1)
	require.NoError(t, err)
	require.Len(t, pop, 2)
	assert.Equal(t, particle.Proton, pop[1].Sort)
	assert.Equal(t, result.Frames[1].Positions[1], pop[1].Position())
	assert.Equal(t, result.Frames[1].Momenta[1], pop[1].Momentum())
	assert.Equal(t, pop[1].Position(), pop[1].NextPosition())

	first, err := traj.Population(0)
	require.NoError(t, err)
	assert.Equal(t, particle.Vector3{X: 1}, first[0].Momentum())

	_, err = traj.Population(2)
	assert.Error(t, err)
	_, err = traj.Population(-3)
	assert.Error(t, err)

	traj.Frames[0].Momenta = traj.Frames[0].Momenta[:1]
	_, err = traj.Population(0)
	assert.ErrorIs(t, err, ErrMalformedTrajectory)
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	cfg, result := testRun()
	require.NoError(t, ExportJSON(path, cfg, "serial", result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out ExportData
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "test", out.Name)
	assert.Equal(t, config.FieldUniform, out.Field)
	assert.Equal(t, []string{"electron", "proton"}, out.Species)
	require.Len(t, out.Frames, 2)
	assert.Equal(t, [3]float64{0, 0.5, 0}, out.Frames[0].Momenta[1])
}

func TestWriteExport_Buffer(t *testing.T) {
	var buf bytes.Buffer
	cfg, result := testRun()
	require.NoError(t, writeExport(&buf, cfg, "cpu", result))
	assert.Contains(t, buf.String(), `"backend": "cpu"`)
}
