package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/experiment"
	"github.com/LyesMestiri/atom/internal/metrics"
	"github.com/LyesMestiri/atom/internal/sim"
	"github.com/LyesMestiri/atom/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. Exactly one of Preset and
// Config names the base run; Overrides are applied on top.
type ScenarioStep struct {
	Preset    string             `yaml:"preset"`
	Config    string             `yaml:"config"`
	Overrides map[string]float64 `yaml:"overrides"`
	Backend   string             `yaml:"backend"`
	SaveAs    string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step. RunID is set when the
// step was saved.
type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// RunScenario executes all steps in order. Steps with save_as are written to
// store when it is non-nil. A nil logger discards progress messages.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "name", cfg.Name, "field", cfg.Field.Kind)

		exp, err := experiment.Prepare(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		exp.GetSimulator().WithLogger(logger)

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: cfg.Name, Result: result}
		if step.SaveAs != "" && store != nil {
			cfg.Name = step.SaveAs
			sr.Name = step.SaveAs
			if sr.RunID, err = store.Save(cfg, exp.GetSimulator().Backend().Name(), result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			logger.Info("saved step", "step", i+1, "run", sr.RunID)
		}

		results = append(results, sr)
	}

	return results, nil
}

func (s ScenarioStep) resolve() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case s.Preset != "" && s.Config != "":
		return nil, fmt.Errorf("both preset %q and config %q given", s.Preset, s.Config)
	case s.Preset != "":
		cfg, err = config.GetPreset(s.Preset)
	case s.Config != "":
		cfg, err = config.Load(s.Config)
	default:
		return nil, fmt.Errorf("step needs a preset or a config")
	}
	if err != nil {
		return nil, err
	}

	for name, v := range s.Overrides {
		if err := SetParam(cfg, name, v); err != nil {
			return nil, err
		}
	}
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	return cfg, nil
}

// SetParam sets one numeric run or field parameter by name.
func SetParam(cfg *config.Config, name string, v float64) error {
	f := &cfg.Field
	switch name {
	case "dt":
		cfg.Dt = v
	case "duration":
		cfg.Duration = v
	case "seed":
		cfg.Seed = int64(v)
	case "record_every":
		cfg.RecordEvery = int(v)
	case "b0":
		f.B0 = v
	case "length":
		f.Length = v
	case "amplitude":
		f.Amplitude = v
	case "k":
		f.K = v
	case "omega":
		f.Omega = v
	case "ex", "ey", "ez":
		f.E[name[1]-'x'] = v
	case "hx", "hy", "hz":
		f.H[name[1]-'x'] = v
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	EnergyDrift float64
	MeanGamma   float64
	Stable      bool
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *log.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := SetParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		result, err := runOnce(ctx, cfg)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:  paramVal,
			EnergyDrift: result.EnergyDrift,
			MeanGamma:   result.Metrics["mean_gamma"],
			Stable:      result.Metrics["stability"] == 1,
		})

		logger.Info("sweep", "step", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	Seed      int64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID     int
	Seed        int64
	EnergyDrift float64
	Stable      bool // every particle stayed finite and bounded
}

// RunMonteCarlo repeats the base run with a different population seed per
// trial. A zero seed draws one from the clock.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, logger *log.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := mc.Base.Clone()
		cfg.Seed = seed + int64(trial)

		result, err := runOnce(ctx, cfg)
		if err != nil {
			return nil, err
		}

		results = append(results, MonteCarloResult{
			TrialID:     trial,
			Seed:        cfg.Seed,
			EnergyDrift: result.EnergyDrift,
			Stable:      result.Metrics["stability"] == 1,
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo", "done", trial+1, "of", mc.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func runOnce(ctx context.Context, cfg *config.Config) (*sim.Result, error) {
	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry(),
		metrics.NewMeanGamma(), metrics.NewStability(metrics.DefaultStabilityThreshold)); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}
