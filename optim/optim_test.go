package optim

import (
	"math"
	"testing"

	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

func almost(t *testing.T, act, exp float64) {
	t.Helper()
	if math.Abs(act-exp) > 1e-6 {
		t.Fatalf("exp: %v got: %v", exp, act)
	}
}

func setGrad(t *testing.T, opt *SGD, p *tensor.Param, g ...float32) {
	t.Helper()
	opt.ZeroGrad()
	opt.Grad()[p.Var].Add(tensor.Vector(g))
}

func TestSGDPlainStep(t *testing.T) {
	p := tensor.New("w", 2)
	ok(t, p.CopyFrom([]float32{1, 2}))

	opt, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: 0.1})
	ok(t, err)
	setGrad(t, opt, p, 0.5, -1)
	opt.Step()
	almost(t, float64(p.Data()[0]), 0.95)
	almost(t, float64(p.Data()[1]), 2.1)
	equals(t, opt.Steps(), 1)
}

func TestSGDMomentumAndWeightDecay(t *testing.T) {
	p := tensor.New("w", 1)
	ok(t, p.CopyFrom([]float32{1}))
	opt, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: 0.1, Momentum: 0.9, WeightDecay: 0.5})
	ok(t, err)

	setGrad(t, opt, p, 1)
	opt.Step() // v = 1 + 0.5 = 1.5, w = 1 - 0.15
	almost(t, float64(p.Data()[0]), 0.85)

	setGrad(t, opt, p, 1)
	opt.Step() // v = 0.9*1.5 + 1 + 0.425 = 2.775, w = 0.85 - 0.2775
	almost(t, float64(p.Data()[0]), 0.5725)
}

func TestSGDZeroGradientLeavesRowsAlone(t *testing.T) {
	p := tensor.New("embedding", 3, 1)
	p.Fill(1)

	opt, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: 0.5})
	ok(t, err)
	setGrad(t, opt, p, 0, 2, 0)
	opt.Step()
	equals(t, p.Data(), []float32{1, 0, 1})

	opt.ZeroGrad()
	equals(t, tensor.Floats(opt.Grad()[p.Var]), []float32{0, 0, 0})
}

func TestSGDRejectsInvalidOptions(t *testing.T) {
	p := tensor.New("w", 1)
	if _, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: -1}); err == nil {
		t.Fatal("expected invalid learning rate error")
	}
	if _, err := NewSGD(nil, SGDOptions{LR: 1}); err == nil {
		t.Fatal("expected empty parameter list error")
	}
}

func TestStepLR(t *testing.T) {
	p := tensor.New("w", 1)
	opt, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: 0.005})
	ok(t, err)
	sched := NewStepLR(opt, 3, 0.1)

	want := []float64{0.005, 0.005, 0.0005, 0.0005, 0.0005, 0.00005}
	for i, lr := range want {
		sched.Step()
		if math.Abs(opt.LearningRate()-lr) > 1e-12 {
			t.Fatalf("epoch %d: lr %v want %v", i+1, opt.LearningRate(), lr)
		}
	}
}

func TestLinearWarmup(t *testing.T) {
	p := tensor.New("w", 1)
	opt, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: 1})
	ok(t, err)

	w := NewLinearWarmup(opt, 0.001, 4)
	almost(t, opt.LearningRate(), 0.001)
	w.Step()
	almost(t, opt.LearningRate(), 0.001*0.75+0.25)
	for !w.Done() {
		w.Step()
	}
	almost(t, opt.LearningRate(), 1)
	almost(t, w.Rate(2), 0.001*0.5+0.5)
}

func TestStepLRRate(t *testing.T) {
	p := tensor.New("w", 1)
	opt, err := NewSGD([]*tensor.Param{p}, SGDOptions{LR: 4})
	ok(t, err)
	sched := NewStepLR(opt, 1, 0.9)
	almost(t, sched.Rate(0), 4)
	almost(t, sched.Rate(2), 4*0.81)
	equals(t, sched.Epoch(), 0)
}
