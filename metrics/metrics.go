// Package metrics exposes training and serving progress to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

// Training collects per-epoch results and optimizer progress of a run. A nil
// *Training ignores every observation.
type Training struct {
	EpochLoss        prometheus.GaugeVec
	EpochAccuracy    prometheus.GaugeVec
	EpochSeconds     prometheus.GaugeVec
	AveragePrecision prometheus.Gauge
	Epoch            prometheus.Gauge
	Steps            prometheus.Counter
	LearningRate     prometheus.Gauge
}

func NewTraining(pipeline string) *Training {
	constLabels := prometheus.Labels{"pipeline": pipeline}
	return &Training{
		EpochLoss: *prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "training_epoch_loss",
				Help:        "Mean loss of the last epoch per split.",
				ConstLabels: constLabels,
			}, []string{"split"}),
		EpochAccuracy: *prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "training_epoch_accuracy",
				Help:        "Accuracy of the last epoch per split.",
				ConstLabels: constLabels,
			}, []string{"split"}),
		EpochSeconds: *prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "training_epoch_seconds",
				Help:        "Wall time of the last epoch per split.",
				ConstLabels: constLabels,
			}, []string{"split"}),
		AveragePrecision: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "training_box_average_precision",
				Help:        "Box AP at IoU 0.5 of the last evaluation.",
				ConstLabels: constLabels,
			}),
		Epoch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "training_epoch",
				Help:        "Index of the last finished epoch.",
				ConstLabels: constLabels,
			}),
		Steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "training_optimizer_steps_total",
				Help:        "Number of optimizer steps taken.",
				ConstLabels: constLabels,
			}),
		LearningRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "training_learning_rate",
				Help:        "Current learning rate.",
				ConstLabels: constLabels,
			}),
	}
}

func (t *Training) Describe(descs chan<- *prometheus.Desc) {
	t.EpochLoss.Describe(descs)
	t.EpochAccuracy.Describe(descs)
	t.EpochSeconds.Describe(descs)
	t.AveragePrecision.Describe(descs)
	t.Epoch.Describe(descs)
	t.Steps.Describe(descs)
	t.LearningRate.Describe(descs)
}

func (t *Training) Collect(c chan<- prometheus.Metric) {
	t.EpochLoss.Collect(c)
	t.EpochAccuracy.Collect(c)
	t.EpochSeconds.Collect(c)
	t.AveragePrecision.Collect(c)
	t.Epoch.Collect(c)
	t.Steps.Collect(c)
	t.LearningRate.Collect(c)
}

// ObserveStep records one optimizer step taken at learning rate lr.
func (t *Training) ObserveStep(lr float64) {
	if t == nil {
		return
	}
	t.Steps.Inc()
	t.LearningRate.Set(lr)
}

func (t *Training) ObserveEpoch(r ds.EpochReport) {
	if t == nil {
		return
	}
	t.Epoch.Set(float64(r.Epoch))
	t.EpochLoss.WithLabelValues(r.Split).Set(r.Loss)
	t.EpochAccuracy.WithLabelValues(r.Split).Set(r.Accuracy)
	t.EpochSeconds.WithLabelValues(r.Split).Set(r.Seconds)
}

func (t *Training) ObserveAveragePrecision(ap float64) {
	if t == nil {
		return
	}
	t.AveragePrecision.Set(ap)
}

// Predictions collects the serving side: accepted requests, processed jobs
// and prediction latency.
type Predictions struct {
	Requests  prometheus.CounterVec
	Processed prometheus.CounterVec
	Latency   prometheus.Histogram
}

func NewPredictions() *Predictions {
	return &Predictions{
		Requests: *prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predict_requests_total",
				Help: "Prediction requests by HTTP outcome.",
			}, []string{"code"}),
		Processed: *prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predict_jobs_processed_total",
				Help: "Prediction jobs handled by the workers.",
			}, []string{"status"}),
		Latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "predict_latency_seconds",
				Help:    "Time spent running the model on one image.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			}),
	}
}

func (p *Predictions) Describe(descs chan<- *prometheus.Desc) {
	p.Requests.Describe(descs)
	p.Processed.Describe(descs)
	p.Latency.Describe(descs)
}

func (p *Predictions) Collect(c chan<- prometheus.Metric) {
	p.Requests.Collect(c)
	p.Processed.Collect(c)
	p.Latency.Collect(c)
}

func (p *Predictions) ObserveRequest(code string) {
	if p == nil {
		return
	}
	p.Requests.WithLabelValues(code).Inc()
}

func (p *Predictions) ObserveJob(status string, seconds float64) {
	if p == nil {
		return
	}
	p.Processed.WithLabelValues(status).Inc()
	p.Latency.Observe(seconds)
}
