package pedestrian

import (
	"image"
	"image/color"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

func TestTwoSampleScenario(t *testing.T) {
	root := newFixture(t, 12, 10,
		pedMask(12, 10, instanceRect{1, image.Rect(1, 1, 4, 8)}, instanceRect{2, image.Rect(6, 2, 11, 9)}),
		pedMask(12, 10, instanceRect{1, image.Rect(0, 0, 2, 2)}),
	)
	dataset, err := NewDataset(root, nil)
	ok(t, err)
	equals(t, dataset.Len(), 2)

	first, err := dataset.Get(0)
	ok(t, err)
	ok(t, first.Target.Validate())
	equals(t, first.Target.NumInstances(), 2)
	equals(t, first.Target.Boxes, []ds.Box{{1, 1, 3, 7}, {6, 2, 10, 8}})
	equals(t, first.Target.Labels, []int64{1, 1})
	equals(t, first.Target.Area, []float32{12, 24})
	equals(t, first.Target.IsCrowd, []int64{0, 0})
	equals(t, first.Target.ImageID, int64(0))
	equals(t, first.Target.Masks[0].Count(), 3*7)
	equals(t, first.Image.Bounds().Size(), image.Pt(12, 10))

	second, err := dataset.Get(1)
	ok(t, err)
	equals(t, second.Target.NumInstances(), 1)
	equals(t, second.Target.ImageID, int64(1))
}

func TestDatasetLengthIsImageCount(t *testing.T) {
	masks := make([]*image.Paletted, 5)
	for i := range masks {
		masks[i] = pedMask(4, 4, instanceRect{1, image.Rect(0, 0, 1, 1)})
	}
	dataset, err := NewDataset(newFixture(t, 4, 4, masks...), nil)
	ok(t, err)
	equals(t, dataset.Len(), 5)
}

func TestSampleCountMismatch(t *testing.T) {
	root := newFixture(t, 4, 4, pedMask(4, 4, instanceRect{1, image.Rect(0, 0, 1, 1)}))
	writePNG(t, filepath.Join(root, ImagesDir, "extra.png"), image.NewRGBA(image.Rect(0, 0, 4, 4)))

	_, err := NewDataset(root, nil)
	equals(t, errors.Is(err, commons.ErrSampleCountMismatch), true)
}

func TestMissingDirectory(t *testing.T) {
	root, err := ioutil.TempDir("", "empty")
	ok(t, err)
	defer os.RemoveAll(root)

	_, err = NewDataset(root, nil)
	notEquals(t, err, nil)
}

func TestGetOutOfRange(t *testing.T) {
	dataset, err := NewDataset(newFixture(t, 4, 4, pedMask(4, 4, instanceRect{1, image.Rect(0, 0, 1, 1)})), nil)
	ok(t, err)

	_, err = dataset.Get(1)
	equals(t, errors.Is(err, commons.ErrIndexOutOfRange), true)
	_, err = dataset.Get(-1)
	equals(t, errors.Is(err, commons.ErrIndexOutOfRange), true)
}

func TestBackgroundOnlyMaskHasNoInstances(t *testing.T) {
	dataset, err := NewDataset(newFixture(t, 4, 4, pedMask(4, 4)), nil)
	ok(t, err)
	s, err := dataset.Get(0)
	ok(t, err)
	ok(t, s.Target.Validate())
	equals(t, s.Target.NumInstances(), 0)
}

func TestBoundingBoxEmptyMask(t *testing.T) {
	_, err := BoundingBox(ds.NewBinaryMask(3, 3))
	equals(t, errors.Is(err, commons.ErrEmptyInstance), true)
}

func TestInstanceIDsSkipBackgroundAndGaps(t *testing.T) {
	m := NewLabelMask(pedMask(6, 1,
		instanceRect{3, image.Rect(0, 0, 1, 1)},
		instanceRect{1, image.Rect(2, 0, 3, 1)},
	))
	equals(t, m.InstanceIDs(), []uint8{1, 3})
}

func TestGrayMask(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 2))
	g.SetGray(2, 1, color.Gray{Y: 5})
	m := NewLabelMask(g)
	equals(t, m.InstanceIDs(), []uint8{5})
	box, err := BoundingBox(m.Instance(5))
	ok(t, err)
	equals(t, box, ds.Box{2, 1, 2, 1})
}

// Random masks: every per-instance field has one entry per id and boxes are
// well ordered with area (xmax-xmin)*(ymax-ymin).
func TestTargetInvariantsOnRandomMasks(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		w, h := 5+rng.Intn(20), 5+rng.Intn(20)
		lm := LabelMask{Width: w, Height: h, Pix: make([]uint8, w*h)}
		for i := range lm.Pix {
			if rng.Intn(3) == 0 {
				lm.Pix[i] = uint8(1 + rng.Intn(6))
			}
		}
		target, err := BuildTarget(lm, trial)
		ok(t, err)
		n := len(lm.InstanceIDs())
		equals(t, len(target.Boxes), n)
		equals(t, len(target.Labels), n)
		equals(t, len(target.Masks), n)
		equals(t, len(target.Area), n)
		equals(t, len(target.IsCrowd), n)
		for i, b := range target.Boxes {
			if b[0] > b[2] || b[1] > b[3] {
				t.Fatalf("box %v is not ordered", b)
			}
			equals(t, target.Area[i], (b[2]-b[0])*(b[3]-b[1]))
		}
	}
}
