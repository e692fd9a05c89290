package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"pointadapt/internal/dataset"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source provides indexed samples, such as *dataset.Dataset.
type Source interface {
	Len() int
	Item(i int) (dataset.Item, error)
}

// Failure records a sample that was skipped.
type Failure struct {
	Index int    `yaml:"index"`
	Stem  string `yaml:"stem,omitempty"`
	Error string `yaml:"error"`
}

// Report summarises a run.
type Report struct {
	Total     int       `yaml:"total"`
	Succeeded int       `yaml:"succeeded"`
	Failures  []Failure `yaml:"failures,omitempty"`
}

// Runner fans samples out over a bounded worker pool. Every sample draws
// from NewRand(seed, index), so output does not depend on scheduling.
type Runner struct {
	asm     *Assembler
	seed    uint64
	workers int
	log     *zap.Logger
}

// NewRunner uses the seed and worker count from the assembler's config.
func NewRunner(asm *Assembler) *Runner {
	cfg := asm.Config()
	return &Runner{asm: asm, seed: cfg.Seed, workers: max(1, cfg.Workers), log: asm.log}
}

// Train assembles every sample of src and hands each to sink. sink may be
// called from several goroutines at once.
func (r *Runner) Train(ctx context.Context, src Source, sink func(TrainSample) error) (Report, error) {
	return run(ctx, r, src, r.asm.Train, sink)
}

// Validate is Train for validation samples.
func (r *Runner) Validate(ctx context.Context, src Source, sink func(ValSample) error) (Report, error) {
	return run(ctx, r, src, r.asm.Validate, sink)
}

func run[T any](
	ctx context.Context,
	r *Runner,
	src Source,
	process func(dataset.Item, *rand.Rand) (T, error),
	sink func(T) error,
) (Report, error) {
	n := src.Len()
	report := Report{Total: n}
	var mu sync.Mutex

	fail := func(index int, stem string, err error) {
		mu.Lock()
		report.Failures = append(report.Failures, Failure{Index: index, Stem: stem, Error: err.Error()})
		mu.Unlock()
		r.log.Warn("sample failed", zap.Int("index", index), zap.String("stem", stem), zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := src.Item(i)
			if err != nil {
				fail(i, "", err)
				return nil
			}
			item.Index = i

			out, err := process(item, NewRand(r.seed, i))
			if err != nil {
				if Skippable(err) {
					fail(i, item.Stem, err)
					return nil
				}
				return fmt.Errorf("sample %d: %w", i, err)
			}
			if err := sink(out); err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}

			mu.Lock()
			report.Succeeded++
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	sort.Slice(report.Failures, func(a, b int) bool {
		return report.Failures[a].Index < report.Failures[b].Index
	})
	return report, err
}
