package detection

import (
	"context"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
	"github.com/vamsi1609/pytorch-deep-learning/metrics"
	"github.com/vamsi1609/pytorch-deep-learning/optim"
)

// BatchSource is a restartable, finite sequence of collated batches.
type BatchSource interface {
	Len() int
	ForEach(ctx context.Context, fn func(images []image.Image, targets []*ds.DetectionTarget) error) error
}

// Session ties a model to its optimizer, schedules and data for a
// fine-tuning run. Out receives the progress lines; nil discards them.
type Session struct {
	Model     Model
	Optimizer optim.Optimizer
	Scheduler optim.Scheduler
	Train     BatchSource
	Test      BatchSource

	PrintFreq      int
	WarmupFactor   float64
	WarmupMaxIters int
	IoUThreshold   float64

	Out     io.Writer
	Metrics *metrics.Training
}

// EpochResult is the outcome of one train + evaluate round.
type EpochResult struct {
	Train ds.EpochReport
	Eval  Summary
}

func (s *Session) out() io.Writer {
	if s.Out == nil {
		return ioutil.Discard
	}
	return s.Out
}

func (s *Session) printFreq() int {
	if s.PrintFreq < 1 {
		return 1
	}
	return s.PrintFreq
}

// TrainOneEpoch runs one pass over the training batches. The first epoch
// warms the learning rate up linearly over min(WarmupMaxIters, batches-1)
// iterations. A non-finite loss aborts the pass.
func (s *Session) TrainOneEpoch(ctx context.Context, epoch int) (ds.EpochReport, error) {
	s.Model.Train(true)

	total := s.Train.Len()
	var warmup *optim.LinearWarmup
	if epoch == 0 {
		iters := s.WarmupMaxIters
		if total-1 < iters {
			iters = total - 1
		}
		if iters > 0 {
			warmup = optim.NewLinearWarmup(s.Optimizer, s.WarmupFactor, iters)
		}
	}

	header := fmt.Sprintf("Epoch: [%d]", epoch)
	width := len(fmt.Sprint(total))
	start := time.Now()
	var sum float64
	i := 0
	err := s.Train.ForEach(ctx, func(images []image.Image, targets []*ds.DetectionTarget) error {
		iterStart := time.Now()
		s.Optimizer.ZeroGrad()

		losses, err := s.Model.Forward(ctx, images, targets)
		if err != nil {
			return errors.Wrapf(err, "forward batch %d", i)
		}
		loss := losses.Total()
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return commons.WrapError(commons.NonFiniteLoss, commons.ErrNonFiniteLoss,
				"loss is %v at epoch %d batch %d (%s)", loss, epoch, i, formatLosses(losses))
		}
		if err := s.Model.Backward(s.Optimizer.Grad()); err != nil {
			return errors.Wrapf(err, "backward batch %d", i)
		}
		s.Optimizer.Step()
		s.Metrics.ObserveStep(s.Optimizer.LearningRate())
		lr := s.Optimizer.LearningRate()
		if warmup != nil {
			warmup.Step()
		}

		sum += loss
		if i%s.printFreq() == 0 || i == total-1 {
			fmt.Fprintf(s.out(), "%s  [%*d/%d]  lr: %.6f  loss: %.4f (%.4f)  %s  time: %.4f\n",
				header, width, i, total, lr, loss, sum/float64(i+1), formatLosses(losses), time.Since(iterStart).Seconds())
		}
		i++
		return nil
	})
	if err != nil {
		return ds.EpochReport{}, err
	}

	elapsed := time.Since(start)
	fmt.Fprintf(s.out(), "%s Total time: %s\n", header, elapsed.Round(time.Second))
	report := ds.EpochReport{Epoch: epoch, Split: "train", Seconds: elapsed.Seconds()}
	if i > 0 {
		report.Loss = sum / float64(i)
	}
	s.Metrics.ObserveEpoch(report)
	return report, nil
}

func formatLosses(losses Losses) string {
	parts := make([]string, 0, len(losses))
	for _, name := range losses.Names() {
		parts = append(parts, fmt.Sprintf("%s: %.4f", name, losses[name]))
	}
	return strings.Join(parts, "  ")
}

// Evaluate predicts every test batch in evaluation mode and matches the
// detections against the targets. It never touches the parameters.
func (s *Session) Evaluate(ctx context.Context) (Summary, error) {
	s.Model.Train(false)
	defer s.Model.Train(true)

	threshold := s.IoUThreshold
	if threshold <= 0 {
		threshold = DefaultIoUThreshold
	}
	evaluator := NewEvaluator(threshold)

	start := time.Now()
	err := s.Test.ForEach(ctx, func(images []image.Image, targets []*ds.DetectionTarget) error {
		detections, err := s.Model.Predict(ctx, images)
		if err != nil {
			return errors.Wrap(err, "predict")
		}
		if len(detections) != len(targets) {
			return errors.Errorf("model returned %d results for %d images", len(detections), len(targets))
		}
		for j := range targets {
			evaluator.Add(detections[j], targets[j])
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	summary := evaluator.Summarize()
	fmt.Fprintf(s.out(), "Test: Total time: %s\n", time.Since(start).Round(time.Second))
	fmt.Fprintf(s.out(), "Average Precision (AP) @[ IoU=%.2f | area= all ] = %.3f\n", threshold, summary.AveragePrecision)
	fmt.Fprintf(s.out(), "Precision = %.3f  Recall = %.3f  (%d detections, %d ground truth boxes)\n",
		summary.Precision, summary.Recall, summary.NumDetections, summary.NumGroundTruth)
	s.Metrics.ObserveAveragePrecision(summary.AveragePrecision)
	return summary, nil
}

// Run trains for numEpochs epochs, stepping the scheduler and evaluating
// after each. The first error aborts the run.
func (s *Session) Run(ctx context.Context, numEpochs int) ([]EpochResult, error) {
	results := make([]EpochResult, 0, numEpochs)
	for epoch := 0; epoch < numEpochs; epoch++ {
		report, err := s.TrainOneEpoch(ctx, epoch)
		if err != nil {
			return results, err
		}
		if s.Scheduler != nil {
			s.Scheduler.Step()
		}
		summary, err := s.Evaluate(ctx)
		if err != nil {
			return results, err
		}
		log.Debug("[Engine] Epoch ", epoch, " done: loss ", report.Loss, " AP ", summary.AveragePrecision)
		results = append(results, EpochResult{Train: report, Eval: summary})
	}
	return results, nil
}
