package datastructures

import (
	"github.com/pkg/errors"
)

// Box is an axis aligned bounding box in pixel coordinates: xmin, ymin, xmax, ymax.
type Box [4]float32

func (b Box) Width() float32  { return b[2] - b[0] }
func (b Box) Height() float32 { return b[3] - b[1] }

// Area is (xmax - xmin) * (ymax - ymin).
func (b Box) Area() float32 {
	return b.Width() * b.Height()
}

// BinaryMask is a per-instance pixel grid holding 0 or 1, stored row major.
type BinaryMask struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Pix    []uint8 `json:"-"`
}

func NewBinaryMask(width, height int) BinaryMask {
	return BinaryMask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (m BinaryMask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

func (m BinaryMask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m BinaryMask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// DetectionTarget is the training target of a single image.
type DetectionTarget struct {
	Boxes   []Box        `json:"boxes"`
	Labels  []int64      `json:"labels"`
	Masks   []BinaryMask `json:"masks"`
	ImageID int64        `json:"image_id"`
	Area    []float32    `json:"area"`
	IsCrowd []int64      `json:"iscrowd"`
}

// NumInstances returns the number of annotated instances.
func (t *DetectionTarget) NumInstances() int {
	return len(t.Boxes)
}

// Validate checks that every per-instance field has one entry per instance.
func (t *DetectionTarget) Validate() error {
	n := len(t.Boxes)
	if len(t.Labels) != n || len(t.Masks) != n || len(t.Area) != n || len(t.IsCrowd) != n {
		return errors.Errorf("target %d: inconsistent instance count (boxes=%d labels=%d masks=%d area=%d iscrowd=%d)",
			t.ImageID, n, len(t.Labels), len(t.Masks), len(t.Area), len(t.IsCrowd))
	}
	return nil
}

// Detection is a single predicted instance.
type Detection struct {
	Box   Box         `json:"box"`
	Label int64       `json:"label"`
	Name  string      `json:"name,omitempty"`
	Score float32     `json:"score"`
	Mask  *BinaryMask `json:"-"`
}

type ModelInfo struct {
	Build          int32    `json:"build"`
	Created        string   `json:"created"`
	TrainedOn      []string `json:"trained_on"`
	BasedOn        string   `json:"based_on"`
	NumClasses     int      `json:"num_classes"`
	BoxInFeatures  int      `json:"box_in_features"`
	MaskInChannels int      `json:"mask_in_channels"`
	HiddenLayer    int      `json:"hidden_layer"`
}

type PredictionRequest struct {
	Uuid     string `json:"uuid"`
	Filename string `json:"filename"`
	Created  int64  `json:"created"`
	Type     string `json:"type"`
}

type PredictionResult struct {
	Uuid       string      `json:"uuid"`
	Detections []Detection `json:"detections"`
	ModelInfo  ModelInfo   `json:"model_info"`
	Error      string      `json:"error,omitempty"`
}

// EpochReport summarizes one pass over a split.
type EpochReport struct {
	Epoch    int     `json:"epoch"`
	Split    string  `json:"split"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
	Seconds  float64 `json:"seconds"`
}
