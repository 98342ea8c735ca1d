package nn

import (
	"math"
	"math/rand"

	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// ConvTranspose2d holds the parameters of a transposed convolution with a
// square kernel. Weight is shaped [in, out, k, k]; the convolution itself runs
// in the model runtime.
type ConvTranspose2d struct {
	Weight *tensor.Param
	Bias   *tensor.Param
}

// NewConvTranspose2d initializes the weight with kaiming normal (fan out,
// relu gain) and the bias with zeros.
func NewConvTranspose2d(name string, in, out, kernel int, rng *rand.Rand) *ConvTranspose2d {
	c := &ConvTranspose2d{
		Weight: tensor.New(name+".weight", in, out, kernel, kernel),
		Bias:   tensor.New(name+".bias", out),
	}
	c.Weight.Normal(rng, kaimingStd(in*kernel*kernel))
	return c
}

func (c *ConvTranspose2d) InChannels() int  { return c.Weight.Shape[0] }
func (c *ConvTranspose2d) OutChannels() int { return c.Weight.Shape[1] }

func (c *ConvTranspose2d) Parameters() []*tensor.Param {
	return []*tensor.Param{c.Weight, c.Bias}
}

// Conv2d holds the parameters of a convolution with a square kernel. Weight is
// shaped [out, in, k, k].
type Conv2d struct {
	Weight *tensor.Param
	Bias   *tensor.Param
}

func NewConv2d(name string, in, out, kernel int, rng *rand.Rand) *Conv2d {
	c := &Conv2d{
		Weight: tensor.New(name+".weight", out, in, kernel, kernel),
		Bias:   tensor.New(name+".bias", out),
	}
	c.Weight.Normal(rng, kaimingStd(out*kernel*kernel))
	return c
}

func (c *Conv2d) InChannels() int  { return c.Weight.Shape[1] }
func (c *Conv2d) OutChannels() int { return c.Weight.Shape[0] }

func (c *Conv2d) Parameters() []*tensor.Param {
	return []*tensor.Param{c.Weight, c.Bias}
}

func kaimingStd(fanOut int) float32 {
	return float32(math.Sqrt(2 / float64(fanOut)))
}
