// Package pedestrian adapts the PennFudan pedestrian dataset (PNGImages/ and
// PedMasks/ side by side) into images with detection targets.
package pedestrian

import (
	"image"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

const (
	ImagesDir = "PNGImages"
	MasksDir  = "PedMasks"
)

// Sample is one dataset item.
type Sample struct {
	Image  image.Image
	Target *ds.DetectionTarget
}

// Source is a finite, indexable sequence of samples.
type Source interface {
	Len() int
	Get(idx int) (*Sample, error)
}

// Dataset reads samples from a PennFudan style root directory. Images and
// masks are paired by their position in sorted order.
type Dataset struct {
	root       string
	transforms Transform
	imgs       []string
	masks      []string
}

// NewDataset lists both directories of root. transforms may be nil.
func NewDataset(root string, transforms Transform) (*Dataset, error) {
	imgs, err := listFiles(filepath.Join(root, ImagesDir))
	if err != nil {
		return nil, err
	}
	masks, err := listFiles(filepath.Join(root, MasksDir))
	if err != nil {
		return nil, err
	}
	if len(imgs) != len(masks) {
		return nil, commons.NewError(commons.SampleCountMismatch,
			"%s has %d images but %s has %d masks", ImagesDir, len(imgs), MasksDir, len(masks))
	}
	log.Debug("[Dataset] Found ", len(imgs), " samples in ", root)
	return &Dataset{root: root, transforms: transforms, imgs: imgs, masks: masks}, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *Dataset) Len() int {
	return len(d.imgs)
}

// Get loads image idx and builds its target. The target is derived from the
// mask on every call.
func (d *Dataset) Get(idx int) (*Sample, error) {
	if idx < 0 || idx >= len(d.imgs) {
		return nil, commons.NewError(commons.IndexOutOfRange, "index %d out of range [0, %d)", idx, len(d.imgs))
	}
	imgPath := filepath.Join(d.root, ImagesDir, d.imgs[idx])
	maskPath := filepath.Join(d.root, MasksDir, d.masks[idx])

	img, err := imaging.Open(imgPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", imgPath)
	}
	maskImg, err := imaging.Open(maskPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open mask %s", maskPath)
	}
	if img.Bounds().Size() != maskImg.Bounds().Size() {
		return nil, errors.Errorf("image %s is %v but mask %s is %v",
			d.imgs[idx], img.Bounds().Size(), d.masks[idx], maskImg.Bounds().Size())
	}

	target, err := BuildTarget(NewLabelMask(maskImg), idx)
	if err != nil {
		return nil, err
	}

	if d.transforms != nil {
		img, target, err = d.transforms.Apply(img, target)
		if err != nil {
			return nil, errors.Wrapf(err, "transform sample %d", idx)
		}
	}
	return &Sample{Image: img, Target: target}, nil
}
