package detection

import (
	"sort"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

// DefaultIoUThreshold is the overlap at which a detection counts as a hit.
const DefaultIoUThreshold = 0.5

// Summary is the outcome of an evaluation pass.
type Summary struct {
	AveragePrecision float64 `json:"ap"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	NumGroundTruth   int     `json:"num_ground_truth"`
	NumDetections    int     `json:"num_detections"`
}

type scored struct {
	score float32
	hit   bool
}

// Evaluator accumulates box matches over many images. Within an image,
// detections are matched greedily by descending score to the unmatched
// ground truth box of the same label with the highest IoU. Crowd boxes are
// neither counted nor penalized.
type Evaluator struct {
	IoUThreshold float64

	records []scored
	numGT   int
}

func NewEvaluator(iouThreshold float64) *Evaluator {
	return &Evaluator{IoUThreshold: iouThreshold}
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b ds.Box) float64 {
	ix := minf(a[2], b[2]) - maxf(a[0], b[0])
	iy := minf(a[3], b[3]) - maxf(a[1], b[1])
	var inter float64
	if ix > 0 && iy > 0 {
		inter = float64(ix) * float64(iy)
	}
	union := float64(a.Area()) + float64(b.Area()) - inter
	if union <= 0 {
		if a == b {
			return 1
		}
		return 0
	}
	return inter / union
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Add matches the detections of one image against its target.
func (e *Evaluator) Add(detections []ds.Detection, target *ds.DetectionTarget) {
	crowd := func(i int) bool {
		return i < len(target.IsCrowd) && target.IsCrowd[i] != 0
	}
	for i := range target.Boxes {
		if !crowd(i) {
			e.numGT++
		}
	}

	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return detections[order[i]].Score > detections[order[j]].Score
	})

	matched := make([]bool, len(target.Boxes))
	for _, di := range order {
		det := detections[di]
		// real boxes win over crowd regions regardless of overlap
		best, bestIoU := -1, e.IoUThreshold
		bestCrowd, bestCrowdIoU := -1, e.IoUThreshold
		for gi, gt := range target.Boxes {
			if target.Labels[gi] != det.Label {
				continue
			}
			iou := IoU(det.Box, gt)
			switch {
			case crowd(gi):
				if iou >= bestCrowdIoU {
					bestCrowd, bestCrowdIoU = gi, iou
				}
			case !matched[gi] && iou >= bestIoU:
				best, bestIoU = gi, iou
			}
		}
		if best < 0 && bestCrowd >= 0 {
			continue
		}
		if best >= 0 {
			matched[best] = true
		}
		e.records = append(e.records, scored{score: det.Score, hit: best >= 0})
	}
}

// Summarize computes all-point interpolated AP together with precision and
// recall over every detection added so far.
func (e *Evaluator) Summarize() Summary {
	records := append([]scored(nil), e.records...)
	sort.SliceStable(records, func(i, j int) bool { return records[i].score > records[j].score })

	s := Summary{NumGroundTruth: e.numGT, NumDetections: len(records)}
	if len(records) == 0 || e.numGT == 0 {
		return s
	}

	precision := make([]float64, len(records))
	recall := make([]float64, len(records))
	tp := 0
	for i, r := range records {
		if r.hit {
			tp++
		}
		precision[i] = float64(tp) / float64(i+1)
		recall[i] = float64(tp) / float64(e.numGT)
	}
	s.Precision = precision[len(precision)-1]
	s.Recall = recall[len(recall)-1]

	for i := len(precision) - 2; i >= 0; i-- {
		if precision[i+1] > precision[i] {
			precision[i] = precision[i+1]
		}
	}
	prev := 0.0
	for i := range records {
		s.AveragePrecision += (recall[i] - prev) * precision[i]
		prev = recall[i]
	}
	return s
}
