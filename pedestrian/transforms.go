package pedestrian

import (
	"image"
	"math/rand"
	"sync"

	"github.com/disintegration/imaging"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

// Transform rewrites an image and its target together.
type Transform interface {
	Apply(img image.Image, target *ds.DetectionTarget) (image.Image, *ds.DetectionTarget, error)
}

// Compose applies transforms in order.
type Compose []Transform

func (c Compose) Apply(img image.Image, target *ds.DetectionTarget) (image.Image, *ds.DetectionTarget, error) {
	var err error
	for _, t := range c {
		img, target, err = t.Apply(img, target)
		if err != nil {
			return nil, nil, err
		}
	}
	return img, target, nil
}

// RandomHorizontalFlip mirrors the image, its boxes and its masks with
// probability Prob. It is safe for use by concurrent loader workers.
type RandomHorizontalFlip struct {
	Prob float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomHorizontalFlip(prob float64, rng *rand.Rand) *RandomHorizontalFlip {
	return &RandomHorizontalFlip{Prob: prob, rng: rng}
}

func (f *RandomHorizontalFlip) Apply(img image.Image, target *ds.DetectionTarget) (image.Image, *ds.DetectionTarget, error) {
	f.mu.Lock()
	draw := f.rng.Float64()
	f.mu.Unlock()
	if draw >= f.Prob {
		return img, target, nil
	}
	return FlipHorizontal(img, target)
}

// FlipHorizontal mirrors img and target around the vertical center line.
// Box columns are mapped with x -> width-1-x so that boxes stay the extent
// of their flipped masks.
func FlipHorizontal(img image.Image, target *ds.DetectionTarget) (image.Image, *ds.DetectionTarget, error) {
	width := float32(img.Bounds().Dx())
	flipped := imaging.FlipH(img)

	out := &ds.DetectionTarget{
		Boxes:   make([]ds.Box, len(target.Boxes)),
		Labels:  append([]int64(nil), target.Labels...),
		Masks:   make([]ds.BinaryMask, len(target.Masks)),
		ImageID: target.ImageID,
		Area:    append([]float32(nil), target.Area...),
		IsCrowd: append([]int64(nil), target.IsCrowd...),
	}
	for i, b := range target.Boxes {
		out.Boxes[i] = ds.Box{width - 1 - b[2], b[1], width - 1 - b[0], b[3]}
	}
	for i, m := range target.Masks {
		fm := ds.NewBinaryMask(m.Width, m.Height)
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				fm.Set(m.Width-1-x, y, m.At(x, y))
			}
		}
		out.Masks[i] = fm
	}
	return flipped, out, nil
}

// GetTransform returns the augmentation chain of a split: training samples
// are flipped with probability flipProb, evaluation samples are left alone.
func GetTransform(train bool, flipProb float64, rng *rand.Rand) Transform {
	transforms := Compose{}
	if train {
		transforms = append(transforms, NewRandomHorizontalFlip(flipProb, rng))
	}
	return transforms
}
