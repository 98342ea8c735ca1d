package pedestrian

import (
	"context"
	"image"
	"math/rand"

	"golang.org/x/sync/errgroup"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

// Loader batches a Source. Each call to ForEach is one full pass, so a Loader
// can be reused across epochs. Samples are loaded by up to NumWorkers
// goroutines and the next batch is prefetched while the current one is being
// consumed.
type Loader struct {
	Source     Source
	BatchSize  int
	Shuffle    bool
	NumWorkers int
	Rng        *rand.Rand
}

// Len returns the number of batches per pass.
func (l *Loader) Len() int {
	bs := l.batchSize()
	return (l.Source.Len() + bs - 1) / bs
}

func (l *Loader) batchSize() int {
	if l.BatchSize < 1 {
		return 1
	}
	return l.BatchSize
}

func (l *Loader) workers() int {
	if l.NumWorkers < 1 {
		return 1
	}
	return l.NumWorkers
}

func (l *Loader) order() []int {
	if l.Shuffle && l.Rng != nil {
		return l.Rng.Perm(l.Source.Len())
	}
	order := make([]int, l.Source.Len())
	for i := range order {
		order[i] = i
	}
	return order
}

func (l *Loader) load(ctx context.Context, indices []int) ([]*Sample, error) {
	samples := make([]*Sample, len(indices))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers())
	for i, idx := range indices {
		i, idx := i, idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := l.Source.Get(idx)
			if err != nil {
				return err
			}
			samples[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// ForEach calls fn once per batch, in order, with the batch collated as
// parallel lists of images and targets. The first error stops the pass.
func (l *Loader) ForEach(ctx context.Context, fn func(images []image.Image, targets []*ds.DetectionTarget) error) error {
	order := l.order()
	bs := l.batchSize()

	g, ctx := errgroup.WithContext(ctx)
	batches := make(chan []*Sample, 1)

	g.Go(func() error {
		defer close(batches)
		for start := 0; start < len(order); start += bs {
			end := start + bs
			if end > len(order) {
				end = len(order)
			}
			samples, err := l.load(ctx, order[start:end])
			if err != nil {
				return err
			}
			select {
			case batches <- samples:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for samples := range batches {
			if err := ctx.Err(); err != nil {
				return err
			}
			images, targets := Collate(samples)
			if err := fn(images, targets); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// Collate turns a list of samples into parallel lists of images and targets.
func Collate(samples []*Sample) ([]image.Image, []*ds.DetectionTarget) {
	images := make([]image.Image, len(samples))
	targets := make([]*ds.DetectionTarget, len(samples))
	for i, s := range samples {
		images[i] = s.Image
		targets[i] = s.Target
	}
	return images, targets
}
