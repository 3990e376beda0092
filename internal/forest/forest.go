// Package forest fits bagged regression trees and scores them with R².
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Config controls the ensemble.
type Config struct {
	Trees           int    // number of bootstrap trees
	MaxDepth        int    // 0 means unlimited
	MinSamplesSplit int    // nodes smaller than this become leaves
	MinSamplesLeaf  int    // minimum rows on each side of a split
	Seed            uint64 // bootstrap seed
	Workers         int    // concurrent tree fits, 0 means GOMAXPROCS
}

// DefaultConfig mirrors a stock random-forest regressor with 100 estimators.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

var (
	ErrEmptyDataset   = errors.New("forest: empty dataset")
	ErrShapeMismatch  = errors.New("forest: feature and target lengths differ")
	ErrRaggedFeatures = errors.New("forest: rows have different widths")
)

// Forest is a fitted ensemble. Safe for concurrent prediction.
type Forest struct {
	trees    []*tree
	features int
}

// Fit trains cfg.Trees regression trees, each on a bootstrap sample of rows.
func Fit(ctx context.Context, x [][]float64, y []float64, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(x), len(y))
	}
	width := len(x[0])
	for _, row := range x {
		if len(row) != width {
			return nil, ErrRaggedFeatures
		}
	}

	if cfg.Trees <= 0 {
		cfg.Trees = DefaultConfig().Trees
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Seeds are drawn up front so the ensemble does not depend on scheduling.
	master := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	seeds := make([]uint64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*tree, cfg.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			sample := make([]int, len(x))
			for j := range sample {
				sample[j] = rng.IntN(len(x))
			}
			b := &builder{x: x, y: y, cfg: cfg}
			b.build(sample, 0)
			trees[i] = &tree{nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{trees: trees, features: width}, nil
}

// Trees returns the ensemble size.
func (f *Forest) Trees() int { return len(f.trees) }

// Predict averages the tree predictions for one row.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// PredictAll predicts every row of x.
func (f *Forest) PredictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}

// Score returns the coefficient of determination of the predictions on (x, y).
func (f *Forest) Score(x [][]float64, y []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, ErrShapeMismatch
	}
	return stat.RSquaredFrom(f.PredictAll(x), y, nil), nil
}

// TrainTestSplit shuffles row indices with seed and returns the train and
// test partitions. testFraction is clamped so both sides are non-empty when n >= 2.
func TrainTestSplit(n int, testFraction float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 1 && n >= 2 {
		nTest = 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return perm[nTest:], perm[:nTest]
}
