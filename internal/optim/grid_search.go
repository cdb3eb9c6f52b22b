package optim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"

	"github.com/charmbracelet/log"

	"github.com/LyesMestiri/atom/internal/automation"
	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/experiment"
	"github.com/LyesMestiri/atom/internal/sim"
)

// EnergyDrift selects the absolute relative energy drift of a run as the
// objective. Any other objective name is looked up in the run's metrics.
const EnergyDrift = "energy_drift"

var ErrNoCandidate = errors.New("optim: no grid point produced a finite objective")

// GridSearch minimises an objective over the cartesian product of parameter
// values. Parameter names are those accepted by automation.SetParam.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *log.Logger
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: log.New(io.Discard)}, nil
}

func (g *GridSearch) WithLogger(l *log.Logger) *GridSearch {
	if l != nil {
		g.logger = l
	}
	return g
}

// Points is the number of runs a search performs.
func (g *GridSearch) Points() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base once per grid point and returns the parameters with the
// smallest objective. Points that fail validation or diverge are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective string) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, objective, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	objective string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := g.evaluate(ctx, base, current, objective)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Debug("grid point skipped", "params", current, "err", err)
			return nil
		}
		g.logger.Debug("grid point", "params", current, objective, val)

		if val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64, objective string) (float64, error) {
	cfg := base.Clone()
	for name, v := range params {
		if err := automation.SetParam(cfg, name, v); err != nil {
			return 0, err
		}
	}

	exp, err := experiment.Prepare(cfg)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	return objectiveOf(result, objective)
}

func objectiveOf(result *sim.Result, objective string) (float64, error) {
	var v float64
	if objective == EnergyDrift {
		v = math.Abs(result.EnergyDrift)
	} else {
		m, ok := result.Metrics[objective]
		if !ok {
			return 0, fmt.Errorf("optim: unknown objective %s", objective)
		}
		v = m
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("optim: objective %s is not finite", objective)
	}
	return v, nil
}
