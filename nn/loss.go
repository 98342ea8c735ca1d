package nn

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"

	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// CrossEntropyLoss is softmax cross entropy averaged over the batch:
// anynet's log softmax followed by its negative dot product cost against
// one-hot targets.
type CrossEntropyLoss struct{}

// Apply returns the mean loss of logits, flattened as [len(labels), classes].
func (CrossEntropyLoss) Apply(logits anydiff.Res, labels []int, classes int) (anydiff.Res, error) {
	n := len(labels)
	if n == 0 {
		return nil, errors.New("nn: empty batch")
	}
	if logits.Output().Len() != n*classes {
		return nil, errors.Errorf("nn: %d logits for %d labels of %d classes", logits.Output().Len(), n, classes)
	}
	target := make([]float32, n*classes)
	for b, label := range labels {
		if label < 0 || label >= classes {
			return nil, errors.Errorf("nn: label %d outside [0, %d)", label, classes)
		}
		target[b*classes+label] = 1
	}
	logProbs := anynet.LogSoftmax.Apply(logits, n)
	costs := anynet.DotCost{}.Cost(tensor.Vector(target), logProbs, n)
	return anydiff.Scale(anydiff.Sum(costs), tensor.Creator.MakeNumeric(1/float64(n))), nil
}

// Rows splits a flattened [len/cols, cols] output into rows.
func Rows(res anydiff.Res, cols int) [][]float32 {
	data := tensor.Floats(res.Output())
	rows := make([][]float32, len(data)/cols)
	for i := range rows {
		rows[i] = data[i*cols : (i+1)*cols]
	}
	return rows
}

// Scalar returns the single value of res.
func Scalar(res anydiff.Res) float64 {
	return float64(tensor.Floats(res.Output())[0])
}

// Argmax returns the index of the largest value of each row.
func Argmax(rows [][]float32) []int {
	out := make([]int, len(rows))
	for b, row := range rows {
		best := 0
		for c, v := range row {
			if v > row[best] {
				best = c
			}
		}
		out[b] = best
	}
	return out
}
