package pedestrian

import (
	"image"
	"image/color"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

// Background is the mask value reserved for pixels without a pedestrian.
const Background uint8 = 0

// PedestrianLabel is the class id of every annotated instance. Class 0 is
// the background.
const PedestrianLabel int64 = 1

// LabelMask is a color-encoded segmentation mask: each pixel holds the id of
// the instance it belongs to.
type LabelMask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewLabelMask reads the instance ids out of a decoded mask image. Paletted
// masks (the PennFudan format) carry the id as palette index, gray masks as
// luminance.
func NewLabelMask(img image.Image) LabelMask {
	b := img.Bounds()
	m := LabelMask{Width: b.Dx(), Height: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			px, py := x+b.Min.X, y+b.Min.Y
			var v uint8
			switch src := img.(type) {
			case *image.Paletted:
				v = src.ColorIndexAt(px, py)
			case *image.Gray:
				v = src.GrayAt(px, py).Y
			default:
				v = color.GrayModel.Convert(img.At(px, py)).(color.Gray).Y
			}
			m.Pix[y*m.Width+x] = v
		}
	}
	return m
}

// InstanceIDs returns the distinct ids present in the mask in ascending
// order, without the background.
func (m LabelMask) InstanceIDs() []uint8 {
	var seen [256]bool
	for _, v := range m.Pix {
		seen[v] = true
	}
	ids := make([]uint8, 0)
	for v := 0; v < len(seen); v++ {
		if seen[v] && uint8(v) != Background {
			ids = append(ids, uint8(v))
		}
	}
	return ids
}

// Instance returns the binary mask of the pixels equal to id.
func (m LabelMask) Instance(id uint8) ds.BinaryMask {
	out := ds.NewBinaryMask(m.Width, m.Height)
	for i, v := range m.Pix {
		if v == id {
			out.Pix[i] = 1
		}
	}
	return out
}

// BoundingBox returns the extent of the set pixels of mask: min/max column
// as xmin/xmax and min/max row as ymin/ymax. A mask without set pixels has no
// box and is rejected with commons.ErrEmptyInstance.
func BoundingBox(mask ds.BinaryMask) (ds.Box, error) {
	xmin, ymin := mask.Width, mask.Height
	xmax, ymax := -1, -1
	for y := 0; y < mask.Height; y++ {
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x, v := range row {
			if v == 0 {
				continue
			}
			if x < xmin {
				xmin = x
			}
			if x > xmax {
				xmax = x
			}
			if y < ymin {
				ymin = y
			}
			if y > ymax {
				ymax = y
			}
		}
	}
	if xmax < 0 {
		return ds.Box{}, commons.ErrEmptyInstance
	}
	return ds.Box{float32(xmin), float32(ymin), float32(xmax), float32(ymax)}, nil
}

// BuildTarget derives the detection target of image idx from its mask.
func BuildTarget(mask LabelMask, idx int) (*ds.DetectionTarget, error) {
	ids := mask.InstanceIDs()
	n := len(ids)
	target := &ds.DetectionTarget{
		Boxes:   make([]ds.Box, 0, n),
		Labels:  make([]int64, 0, n),
		Masks:   make([]ds.BinaryMask, 0, n),
		ImageID: int64(idx),
		Area:    make([]float32, 0, n),
		IsCrowd: make([]int64, 0, n),
	}
	for _, id := range ids {
		inst := mask.Instance(id)
		box, err := BoundingBox(inst)
		if err != nil {
			return nil, commons.WrapError(commons.EmptyInstance, err, "image %d instance %d", idx, id)
		}
		target.Boxes = append(target.Boxes, box)
		target.Labels = append(target.Labels, PedestrianLabel)
		target.Masks = append(target.Masks, inst)
		target.Area = append(target.Area, box.Area())
		target.IsCrowd = append(target.IsCrowd, 0)
	}
	return target, nil
}
