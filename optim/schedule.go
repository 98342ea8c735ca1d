package optim

import (
	"math"

	"github.com/unixpickle/anynet/anysgd"
)

var (
	_ anysgd.Rater = (*StepLR)(nil)
	_ anysgd.Rater = (*LinearWarmup)(nil)
)

// StepLR decays the learning rate by gamma every stepSize calls to Step:
// lr = base * gamma^floor(epoch / stepSize).
type StepLR struct {
	opt      Optimizer
	baseLR   float64
	stepSize int
	gamma    float64
	epoch    int
}

func NewStepLR(opt Optimizer, stepSize int, gamma float64) *StepLR {
	if stepSize < 1 {
		stepSize = 1
	}
	return &StepLR{
		opt:      opt,
		baseLR:   opt.LearningRate(),
		stepSize: stepSize,
		gamma:    gamma,
	}
}

// Rate returns the learning rate of the given epoch.
func (s *StepLR) Rate(epoch float64) float64 {
	return s.baseLR * math.Pow(s.gamma, math.Floor(epoch/float64(s.stepSize)))
}

func (s *StepLR) Step() {
	s.epoch++
	s.opt.SetLearningRate(s.Rate(float64(s.epoch)))
}

// Epoch returns how many times Step has been called.
func (s *StepLR) Epoch() int {
	return s.epoch
}

// LinearWarmup ramps the learning rate from factor*lr up to lr over iters
// calls to Step and restores the target rate afterwards.
type LinearWarmup struct {
	opt    Optimizer
	target float64
	factor float64
	iters  int
	it     int
}

// NewLinearWarmup immediately sets the learning rate to factor*lr.
func NewLinearWarmup(opt Optimizer, factor float64, iters int) *LinearWarmup {
	w := &LinearWarmup{
		opt:    opt,
		target: opt.LearningRate(),
		factor: factor,
		iters:  iters,
	}
	w.opt.SetLearningRate(w.Rate(0))
	return w
}

// Rate returns the learning rate after it warm-up iterations.
func (w *LinearWarmup) Rate(it float64) float64 {
	if it >= float64(w.iters) {
		return w.target
	}
	alpha := it / float64(w.iters)
	return w.target * (w.factor*(1-alpha) + alpha)
}

func (w *LinearWarmup) Step() {
	w.it++
	w.opt.SetLearningRate(w.Rate(float64(w.it)))
}

// Done reports whether the warm-up finished.
func (w *LinearWarmup) Done() bool {
	return w.it >= w.iters
}
