// Package detection builds Mask R-CNN style instance segmentation models with
// replaceable prediction heads and drives their fine-tuning.
package detection

import (
	"context"
	"image"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"github.com/unixpickle/anydiff"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
	"github.com/vamsi1609/pytorch-deep-learning/device"
	"github.com/vamsi1609/pytorch-deep-learning/nn"
	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// HiddenLayer is the channel width of the replacement mask head.
const HiddenLayer = 256

// Losses holds the named loss terms of one training forward pass, e.g.
// loss_classifier, loss_box_reg, loss_mask, loss_objectness and
// loss_rpn_box_reg.
type Losses map[string]float64

// Total is the sum of all terms.
func (l Losses) Total() float64 {
	var total float64
	for _, v := range l {
		total += v
	}
	return total
}

// Names returns the loss names in a stable order.
func (l Losses) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FastRCNNPredictor maps pooled region features to per-class scores and box
// regression deltas.
type FastRCNNPredictor struct {
	ClsScore *nn.Linear
	BBoxPred *nn.Linear
}

func NewFastRCNNPredictor(inFeatures, numClasses int, rng *rand.Rand) *FastRCNNPredictor {
	return &FastRCNNPredictor{
		ClsScore: nn.NewLinear("roi_heads.box_predictor.cls_score", inFeatures, numClasses, rng),
		BBoxPred: nn.NewLinear("roi_heads.box_predictor.bbox_pred", inFeatures, numClasses*4, rng),
	}
}

func (p *FastRCNNPredictor) NumClasses() int {
	return p.ClsScore.OutFeatures()
}

func (p *FastRCNNPredictor) Parameters() []*tensor.Param {
	return append(p.ClsScore.Parameters(), p.BBoxPred.Parameters()...)
}

// MaskRCNNPredictor upsamples mask features 2x and predicts one mask logit map
// per class.
type MaskRCNNPredictor struct {
	Conv5Mask     *nn.ConvTranspose2d
	MaskFCNLogits *nn.Conv2d
}

func NewMaskRCNNPredictor(inChannels, hidden, numClasses int, rng *rand.Rand) *MaskRCNNPredictor {
	return &MaskRCNNPredictor{
		Conv5Mask:     nn.NewConvTranspose2d("roi_heads.mask_predictor.conv5_mask", inChannels, hidden, 2, rng),
		MaskFCNLogits: nn.NewConv2d("roi_heads.mask_predictor.mask_fcn_logits", hidden, numClasses, 1, rng),
	}
}

func (p *MaskRCNNPredictor) NumClasses() int {
	return p.MaskFCNLogits.OutChannels()
}

func (p *MaskRCNNPredictor) Parameters() []*tensor.Param {
	return append(p.Conv5Mask.Parameters(), p.MaskFCNLogits.Parameters()...)
}

// RoIHeads are the replaceable per-region heads of a model. MaskPredictor is
// nil for box-only detectors.
type RoIHeads struct {
	BoxPredictor  *FastRCNNPredictor
	MaskPredictor *MaskRCNNPredictor
}

func (h *RoIHeads) Parameters() []*tensor.Param {
	var params []*tensor.Param
	if h.BoxPredictor != nil {
		params = append(params, h.BoxPredictor.Parameters()...)
	}
	if h.MaskPredictor != nil {
		params = append(params, h.MaskPredictor.Parameters()...)
	}
	return params
}

// Model is a two-stage detector. In training mode Forward returns the loss
// terms of a batch and Backward accumulates their gradients into grad, keyed
// by the parameter variables; in evaluation mode Predict returns detections.
type Model interface {
	Train(train bool)
	Forward(ctx context.Context, images []image.Image, targets []*ds.DetectionTarget) (Losses, error)
	Backward(grad anydiff.Grad) error
	Predict(ctx context.Context, images []image.Image) ([][]ds.Detection, error)
	Parameters() []*tensor.Param
	RoIHeads() *RoIHeads
	To(d device.Device) error
	Close() error
}

// ModelProvider hands out COCO pretrained models by architecture name, e.g.
// maskrcnn_resnet50_fpn.
type ModelProvider interface {
	Pretrained(ctx context.Context, arch string) (Model, error)
}

func checkClasses(numClasses int) error {
	if numClasses < 2 {
		return errors.Errorf("need at least 2 classes (background included), got %d", numClasses)
	}
	return nil
}

// BuildFasterRCNN loads a pretrained detector and replaces its box predictor
// with one sized for numClasses. Everything else stays pretrained.
func BuildFasterRCNN(ctx context.Context, provider ModelProvider, arch string, numClasses int, rng *rand.Rand) (Model, error) {
	if err := checkClasses(numClasses); err != nil {
		return nil, err
	}
	model, err := provider.Pretrained(ctx, arch)
	if err != nil {
		return nil, errors.Wrapf(err, "load pretrained %s", arch)
	}
	heads := model.RoIHeads()
	if heads == nil || heads.BoxPredictor == nil {
		model.Close()
		return nil, errors.Errorf("%s has no box predictor", arch)
	}
	inFeatures := heads.BoxPredictor.ClsScore.InFeatures()
	heads.BoxPredictor = NewFastRCNNPredictor(inFeatures, numClasses, rng)
	return model, nil
}

// BuildInstanceSegmentation loads a pretrained Mask R-CNN and replaces both
// its box predictor and its mask predictor for numClasses, keeping the input
// widths of the pretrained heads.
func BuildInstanceSegmentation(ctx context.Context, provider ModelProvider, arch string, numClasses, hidden int, rng *rand.Rand) (Model, error) {
	model, err := BuildFasterRCNN(ctx, provider, arch, numClasses, rng)
	if err != nil {
		return nil, err
	}
	heads := model.RoIHeads()
	if heads.MaskPredictor == nil {
		model.Close()
		return nil, errors.Errorf("%s has no mask predictor", arch)
	}
	if hidden < 1 {
		hidden = HiddenLayer
	}
	inChannels := heads.MaskPredictor.Conv5Mask.InChannels()
	heads.MaskPredictor = NewMaskRCNNPredictor(inChannels, hidden, numClasses, rng)
	return model, nil
}
