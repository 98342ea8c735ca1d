// Package nn holds the layers whose parameters are owned by this repository:
// the text classifier layers and the replaceable detection heads. The math
// runs in anynet and anydiff.
package nn

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"

	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// Linear computes y = x W^T + b with W shaped [out, in].
type Linear struct {
	Weight *tensor.Param
	Bias   *tensor.Param

	fc *anynet.FC
}

// NewLinear creates a linear layer with weight and bias drawn uniformly from
// [-1/sqrt(in), 1/sqrt(in)).
func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		Weight: tensor.New(name+".weight", out, in),
		Bias:   tensor.New(name+".bias", out),
	}
	bound := float32(1 / math.Sqrt(float64(in)))
	l.Weight.Uniform(rng, -bound, bound)
	l.Bias.Uniform(rng, -bound, bound)
	l.fc = &anynet.FC{
		InCount:  in,
		OutCount: out,
		Weights:  l.Weight.Var,
		Biases:   l.Bias.Var,
	}
	return l
}

func (l *Linear) InFeatures() int  { return l.Weight.Shape[1] }
func (l *Linear) OutFeatures() int { return l.Weight.Shape[0] }

func (l *Linear) Parameters() []*tensor.Param {
	return []*tensor.Param{l.Weight, l.Bias}
}

// Apply maps a batch of rows, flattened as [batch, in], to [batch, out].
func (l *Linear) Apply(in anydiff.Res, batch int) anydiff.Res {
	return l.fc.Apply(in, batch)
}
