package pedestrian

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
)

// Subset exposes the samples of Source at Indices.
type Subset struct {
	Source  Source
	Indices []int
}

func (s *Subset) Len() int {
	return len(s.Indices)
}

func (s *Subset) Get(idx int) (*Sample, error) {
	if idx < 0 || idx >= len(s.Indices) {
		return nil, commons.NewError(commons.IndexOutOfRange, "subset index %d out of range [0, %d)", idx, len(s.Indices))
	}
	return s.Source.Get(s.Indices[idx])
}

// SplitHoldout permutes the indices of train and test (two views of the same
// samples, usually with different transforms) and keeps the last holdout
// permuted indices for the test split.
func SplitHoldout(train, test Source, holdout int, rng *rand.Rand) (*Subset, *Subset, error) {
	if train.Len() != test.Len() {
		return nil, nil, errors.Errorf("train and test views differ in length: %d != %d", train.Len(), test.Len())
	}
	n := train.Len()
	if holdout < 0 || holdout >= n {
		return nil, nil, errors.Errorf("cannot hold out %d of %d samples", holdout, n)
	}
	indices := rng.Perm(n)
	cut := n - holdout
	return &Subset{Source: train, Indices: indices[:cut]}, &Subset{Source: test, Indices: indices[cut:]}, nil
}
