package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/fractal"
)

var ErrEmptyGrid = errors.New("optim: empty grid")

// Trial is one point of the grid and how its run scored.
type Trial struct {
	Params map[string]float64
	Score  float64
	Result *fractal.Result
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Workers bounds concurrent runs; <= 0 uses every core.
	Workers int
	// Maximize ranks higher scores first. The default ranks lower first.
	Maximize bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs one fold per grid point and ranks the trials by metricName.
// A trial that fails keeps its error and sorts last. Search itself only
// fails on an empty grid or a cancelled ctx.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (*fractal.Runner, error),
	metricName string,
) ([]Trial, error) {
	points := g.points()
	if len(points) == 0 {
		return nil, ErrEmptyGrid
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	trials := make([]Trial, len(points))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, params := range points {
		trials[i].Params = params
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trials[i].Score, trials[i].Result, trials[i].Err = run(ctx, build, params, metricName)
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.rank(trials)
	return trials, nil
}

func run(ctx context.Context, build func(map[string]float64) (*fractal.Runner, error), params map[string]float64, metricName string) (float64, *fractal.Result, error) {
	r, err := build(params)
	if err != nil {
		return math.NaN(), nil, err
	}
	defer r.Engine().Backend().Cleanup()

	result, err := r.Run(ctx)
	if err != nil {
		return math.NaN(), result, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return math.NaN(), result, fmt.Errorf("optim: run has no metric %q", metricName)
	}
	return val, result, nil
}

// points expands the grid in order, last parameter fastest.
func (g *GridSearch) points() []map[string]float64 {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return nil
	}
	var out []map[string]float64
	g.expand(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.expand(depth+1, newParams, out)
	}
}

func (g *GridSearch) rank(trials []Trial) {
	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if g.Maximize {
			return a.Score > b.Score
		}
		return a.Score < b.Score
	})
}

// Best returns the top ranked trial. ok is false when every trial failed.
func Best(trials []Trial) (Trial, bool) {
	if len(trials) == 0 || trials[0].Err != nil {
		return Trial{}, false
	}
	return trials[0], true
}

// Apply sets the named config fields. Angles are in radians.
func Apply(cfg *config.Config, params map[string]float64) error {
	for name, v := range params {
		switch name {
		case "angle":
			cfg.Angle = v
		case "angle_step":
			cfg.AngleStep = v
		case "steps":
			cfg.Steps = int(v)
		case "line_length":
			cfg.LineLength = v
		case "area_length":
			cfg.AreaLength = v
		case "margin":
			cfg.Margin = v
		default:
			return fmt.Errorf("optim: unknown parameter %q", name)
		}
	}
	return cfg.Validate()
}
