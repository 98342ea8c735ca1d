package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	ds "github.com/vamsi1609/pytorch-deep-learning/datastructures"
)

func TestTrainingRegistersAndObserves(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewTraining("text")
	ok(t, registry.Register(m))

	m.ObserveStep(4.0)
	m.ObserveStep(3.6)
	m.ObserveEpoch(ds.EpochReport{Epoch: 2, Split: "valid", Loss: 0.25, Accuracy: 0.9, Seconds: 12})
	m.ObserveAveragePrecision(0.7)

	equals(t, testutil.ToFloat64(m.Steps), float64(2))
	equals(t, testutil.ToFloat64(m.LearningRate), 3.6)
	equals(t, testutil.ToFloat64(m.EpochLoss.WithLabelValues("valid")), 0.25)
	equals(t, testutil.ToFloat64(m.EpochAccuracy.WithLabelValues("valid")), 0.9)
	equals(t, testutil.ToFloat64(m.Epoch), float64(2))
	equals(t, testutil.ToFloat64(m.AveragePrecision), 0.7)

	families, err := registry.Gather()
	ok(t, err)
	equals(t, len(families) > 0, true)
}

func TestNilCollectorsIgnoreObservations(t *testing.T) {
	var training *Training
	training.ObserveStep(1)
	training.ObserveEpoch(ds.EpochReport{})
	training.ObserveAveragePrecision(1)

	var predictions *Predictions
	predictions.ObserveRequest("202")
	predictions.ObserveJob("ok", 1)
}

func TestPredictions(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPredictions()
	ok(t, registry.Register(m))

	m.ObserveRequest("202")
	m.ObserveRequest("202")
	m.ObserveRequest("400")
	m.ObserveJob("ok", 0.2)

	equals(t, testutil.ToFloat64(m.Requests.WithLabelValues("202")), float64(2))
	equals(t, testutil.ToFloat64(m.Requests.WithLabelValues("400")), float64(1))
	equals(t, testutil.ToFloat64(m.Processed.WithLabelValues("ok")), float64(1))
}

func TestRouterServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr := NewTraining("text")
	ok(t, reg.Register(tr))
	tr.ObserveStep(4.0)

	srv := httptest.NewServer(Router(reg))
	defer srv.Close()

	resp, err := resty.New().R().Get(srv.URL + "/metrics")
	ok(t, err)
	equals(t, resp.StatusCode(), 200)
	equals(t, strings.Contains(resp.String(), "training_optimizer_steps_total"), true)
}
