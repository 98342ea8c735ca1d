// Package optim holds the optimizers and learning rate schedules used by both
// training drivers, built on anysgd.
package optim

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet/anysgd"

	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// Optimizer updates parameters from the gradient accumulated in Grad.
type Optimizer interface {
	// Grad is the buffer backward passes accumulate into.
	Grad() anydiff.Grad
	// ZeroGrad clears Grad.
	ZeroGrad()
	// Step performs a single update using the current gradients.
	Step()
	LearningRate() float64
	SetLearningRate(lr float64)
}

// Scheduler adjusts the learning rate of an optimizer.
type Scheduler interface {
	Step()
}

// SGDOptions mirrors the hyperparameters of the tutorials' SGD optimizers.
type SGDOptions struct {
	LR          float64
	Momentum    float64
	WeightDecay float64
}

// SGD implements stochastic gradient descent with optional momentum and L2
// weight decay: v = momentum*v + (grad + wd*param); param -= lr * v. The
// velocity is kept by anysgd.Momentum.
type SGD struct {
	params   []*tensor.Param
	opts     SGDOptions
	grad     anydiff.Grad
	momentum anysgd.Transformer
	steps    int
}

func NewSGD(params []*tensor.Param, opts SGDOptions) (*SGD, error) {
	if opts.LR < 0 {
		return nil, errors.Errorf("invalid learning rate: %v", opts.LR)
	}
	if opts.Momentum < 0 {
		return nil, errors.Errorf("invalid momentum value: %v", opts.Momentum)
	}
	if opts.WeightDecay < 0 {
		return nil, errors.Errorf("invalid weight_decay value: %v", opts.WeightDecay)
	}
	if len(params) == 0 {
		return nil, errors.New("optimizer got an empty parameter list")
	}
	o := &SGD{
		params: params,
		opts:   opts,
		grad:   tensor.NewGrad(params),
	}
	if opts.Momentum != 0 {
		o.momentum = &anysgd.Momentum{Momentum: opts.Momentum}
	}
	return o, nil
}

func (o *SGD) Grad() anydiff.Grad {
	return o.grad
}

func (o *SGD) ZeroGrad() {
	tensor.ZeroGrad(o.grad)
}

// Step consumes the gradient: it is left scaled and must be zeroed before
// the next backward pass.
//
// TODO: restrict embedding updates to looked up rows once the mapper can
// scatter into the weights directly; today every row is visited.
func (o *SGD) Step() {
	o.steps++
	c := tensor.Creator
	if o.opts.WeightDecay != 0 {
		wd := c.MakeNumeric(o.opts.WeightDecay)
		for _, p := range o.params {
			decay := p.Var.Vector.Copy()
			decay.Scale(wd)
			o.grad[p.Var].Add(decay)
		}
	}
	g := o.grad
	if o.momentum != nil {
		g = o.momentum.Transform(g)
	}
	rate := c.MakeNumeric(-o.opts.LR)
	for _, p := range o.params {
		step := g[p.Var]
		step.Scale(rate)
		p.Var.Vector.Add(step)
	}
}

func (o *SGD) LearningRate() float64 {
	return o.opts.LR
}

func (o *SGD) SetLearningRate(lr float64) {
	o.opts.LR = lr
}

// Steps returns the number of updates performed so far.
func (o *SGD) Steps() int {
	return o.steps
}
