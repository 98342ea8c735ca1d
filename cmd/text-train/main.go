package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	"github.com/vamsi1609/pytorch-deep-learning/config"
	"github.com/vamsi1609/pytorch-deep-learning/device"
	"github.com/vamsi1609/pytorch-deep-learning/metrics"
	"github.com/vamsi1609/pytorch-deep-learning/textclf"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	trainCSV := flag.String("train-csv", "", "Location of the AG_NEWS train.csv")
	testCSV := flag.String("test-csv", "", "Location of the AG_NEWS test.csv")
	numEpochs := flag.Int("epochs", -1, "Number of epochs to train")
	logLevel := flag.String("log-level", "", "Log level")

	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		commons.Fatal("Main", err)
	}
	c := conf.Text
	if *trainCSV != "" {
		c.TrainCSV = *trainCSV
	}
	if *testCSV != "" {
		c.TestCSV = *testCSV
	}
	if *numEpochs >= 0 {
		c.NumEpochs = *numEpochs
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}

	if err := commons.SetupLogging(conf.LogLevel, conf.SentryDSN); err != nil {
		commons.Fatal("Main", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := device.Resolve(conf.Device)
	if err != nil {
		commons.Fatal("Main", err)
	}
	// the text model has no accelerated kernels; the selection is only logged.
	device.LogSelection(dev)

	log.Info("[Main] Loading ", c.TrainCSV)
	trainSet, vocab, err := textclf.LoadAGNewsCSV(c.TrainCSV, c.NGrams, nil, c.MinFreq)
	if err != nil {
		commons.Fatal("Dataset", err)
	}
	log.Info("[Main] Loading ", c.TestCSV)
	testSet, _, err := textclf.LoadAGNewsCSV(c.TestCSV, c.NGrams, vocab, c.MinFreq)
	if err != nil {
		commons.Fatal("Dataset", err)
	}
	log.Infof("[Main] Vocabulary has %d entries, %d classes", vocab.Len(), trainSet.NumClasses)

	rng := rand.New(rand.NewSource(conf.Seed))
	trainLen := int(float64(trainSet.Len()) * c.TrainFraction)
	train, valid, err := textclf.RandomSplit(trainSet, trainLen, rng)
	if err != nil {
		commons.Fatal("Dataset", err)
	}

	model := textclf.NewTextSentiment(vocab.Len(), c.EmbedDim, trainSet.NumClasses, float32(c.InitRange), rng)

	session, err := textclf.NewSession(model, c.LearningRate, c.StepSize, c.Gamma, c.BatchSize, rng)
	if err != nil {
		commons.Fatal("Optimizer", err)
	}
	session.Out = os.Stdout
	session.Metrics = metrics.NewTraining("text")

	registry := prometheus.NewRegistry()
	registry.MustRegister(session.Metrics)
	if conf.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, conf.MetricsListen, registry); err != nil {
				log.WithError(err).Error("[Metrics] Couldn't serve metrics")
			}
		}()
	}

	if _, err := session.Run(ctx, train, valid, testSet, c.NumEpochs); err != nil {
		commons.Fatal("Train", err)
	}
}
