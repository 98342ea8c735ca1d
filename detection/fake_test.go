package detection

import (
	"context"
	"image"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
	"github.com/vamsi1609/pytorch-deep-learning/device"
	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// fakeModel is a quadratic stand-in for a detector: its loss is the mean
// squared value of the head parameters, and it predicts the boxes it was
// told to.
type fakeModel struct {
	heads     *RoIHeads
	train     bool
	closed    bool
	forwards  int
	nan       bool
	onForward func()
	predict   []ds.Detection
	lastLoss  float64
	pending   bool
}

func (m *fakeModel) Train(train bool)            { m.train = train }
func (m *fakeModel) RoIHeads() *RoIHeads         { return m.heads }
func (m *fakeModel) Parameters() []*tensor.Param { return m.heads.Parameters() }
func (m *fakeModel) To(device.Device) error      { return nil }
func (m *fakeModel) Close() error                { m.closed = true; return nil }

func (m *fakeModel) Forward(_ context.Context, images []image.Image, _ []*ds.DetectionTarget) (Losses, error) {
	m.forwards++
	if m.onForward != nil {
		m.onForward()
	}
	if m.nan {
		return Losses{"loss_classifier": math.NaN()}, nil
	}
	var sq float64
	n := 0
	for _, p := range m.Parameters() {
		for _, v := range p.Data() {
			sq += float64(v) * float64(v)
			n++
		}
	}
	m.pending = true
	m.lastLoss = sq / float64(n)
	return Losses{"loss_classifier": m.lastLoss / 2, "loss_mask": m.lastLoss / 2}, nil
}

func (m *fakeModel) Backward(grad anydiff.Grad) error {
	n := tensor.Count(m.Parameters())
	for _, p := range m.Parameters() {
		g := p.Var.Vector.Copy()
		g.Scale(tensor.Creator.MakeNumeric(2 / float64(n)))
		grad[p.Var].Add(g)
	}
	m.pending = false
	return nil
}

func (m *fakeModel) Predict(_ context.Context, images []image.Image) ([][]ds.Detection, error) {
	out := make([][]ds.Detection, len(images))
	for i := range out {
		out[i] = m.predict
	}
	return out, nil
}

type fakeProvider struct {
	boxIn, maskIn, hidden, classes int
	model                          *fakeModel
}

func (p *fakeProvider) Pretrained(context.Context, string) (Model, error) {
	rng := rand.New(rand.NewSource(1))
	heads := &RoIHeads{BoxPredictor: NewFastRCNNPredictor(p.boxIn, p.classes, rng)}
	if p.maskIn > 0 {
		heads.MaskPredictor = NewMaskRCNNPredictor(p.maskIn, p.hidden, p.classes, rng)
	}
	p.model = &fakeModel{heads: heads, train: true}
	return p.model, nil
}

// sliceSource replays fixed batches.
type sliceSource struct {
	batches [][]*ds.DetectionTarget
}

func (s *sliceSource) Len() int { return len(s.batches) }

func (s *sliceSource) ForEach(ctx context.Context, fn func([]image.Image, []*ds.DetectionTarget) error) error {
	for _, targets := range s.batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		images := make([]image.Image, len(targets))
		for i := range images {
			images[i] = image.NewRGBA(image.Rect(0, 0, 4, 4))
		}
		if err := fn(images, targets); err != nil {
			return err
		}
	}
	return nil
}

func pedestrianTarget(id int64, boxes ...ds.Box) *ds.DetectionTarget {
	t := &ds.DetectionTarget{ImageID: id}
	for _, b := range boxes {
		t.Boxes = append(t.Boxes, b)
		t.Labels = append(t.Labels, 1)
		t.Masks = append(t.Masks, ds.NewBinaryMask(4, 4))
		t.Area = append(t.Area, b.Area())
		t.IsCrowd = append(t.IsCrowd, 0)
	}
	return t
}
