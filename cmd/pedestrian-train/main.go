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
	"github.com/vamsi1609/pytorch-deep-learning/detection"
	"github.com/vamsi1609/pytorch-deep-learning/device"
	"github.com/vamsi1609/pytorch-deep-learning/metrics"
	"github.com/vamsi1609/pytorch-deep-learning/optim"
	"github.com/vamsi1609/pytorch-deep-learning/pedestrian"
	"github.com/vamsi1609/pytorch-deep-learning/tfmodel"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	requestedDevice := flag.String("device", "", "Device to train on (auto, cpu, cuda, cuda:N)")
	root := flag.String("root", "", "Location of the PennFudanPed dataset")
	numEpochs := flag.Int("epochs", -1, "Number of epochs to train")
	logLevel := flag.String("log-level", "", "Log level")

	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		commons.Fatal("Main", err)
	}
	if *requestedDevice != "" {
		conf.Device = *requestedDevice
	}
	if *root != "" {
		conf.Detection.Root = *root
	}
	if *numEpochs >= 0 {
		conf.Detection.NumEpochs = *numEpochs
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
	device.LogSelection(dev)

	c := conf.Detection
	// the flip and the loaders run on different goroutines, so each gets
	// its own source.
	flipRng := rand.New(rand.NewSource(conf.Seed))
	splitRng := rand.New(rand.NewSource(conf.Seed + 1))
	loaderRng := rand.New(rand.NewSource(conf.Seed + 2))
	headRng := rand.New(rand.NewSource(conf.Seed + 3))

	log.Info("[Main] Loading dataset from ", c.Root)
	trainSet, err := pedestrian.NewDataset(c.Root, pedestrian.GetTransform(true, c.FlipProb, flipRng))
	if err != nil {
		commons.Fatal("Dataset", err)
	}
	testSet, err := pedestrian.NewDataset(c.Root, pedestrian.GetTransform(false, c.FlipProb, flipRng))
	if err != nil {
		commons.Fatal("Dataset", err)
	}
	train, test, err := pedestrian.SplitHoldout(trainSet, testSet, c.Holdout, splitRng)
	if err != nil {
		commons.Fatal("Dataset", err)
	}
	log.Infof("[Main] %d training and %d test samples", train.Len(), test.Len())

	provider := tfmodel.NewProvider(c.ModelZoo, headRng)
	model, err := detection.BuildInstanceSegmentation(ctx, provider, c.Arch, c.NumClasses, c.HiddenLayer, headRng)
	if err != nil {
		commons.Fatal("Model", err)
	}
	defer model.Close()
	if err := model.To(dev); err != nil {
		commons.Fatal("Model", err)
	}

	sgd, err := optim.NewSGD(model.Parameters(), optim.SGDOptions{
		LR:          c.LearningRate,
		Momentum:    c.Momentum,
		WeightDecay: c.WeightDecay,
	})
	if err != nil {
		commons.Fatal("Optimizer", err)
	}

	trainMetrics := metrics.NewTraining("pedestrian")
	registry := prometheus.NewRegistry()
	registry.MustRegister(trainMetrics)
	if conf.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, conf.MetricsListen, registry); err != nil {
				log.WithError(err).Error("[Metrics] Couldn't serve metrics")
			}
		}()
	}

	session := &detection.Session{
		Model:     model,
		Optimizer: sgd,
		Scheduler: optim.NewStepLR(sgd, c.StepSize, c.Gamma),
		Train: &pedestrian.Loader{
			Source:     train,
			BatchSize:  c.BatchSize,
			Shuffle:    true,
			NumWorkers: c.NumWorkers,
			Rng:        loaderRng,
		},
		Test: &pedestrian.Loader{
			Source:     test,
			BatchSize:  c.TestBatchSize,
			NumWorkers: c.NumWorkers,
		},
		PrintFreq:      c.PrintFreq,
		WarmupFactor:   c.WarmupFactor,
		WarmupMaxIters: c.WarmupMaxIters,
		IoUThreshold:   detection.DefaultIoUThreshold,
		Out:            os.Stdout,
		Metrics:        trainMetrics,
	}
	if _, err := session.Run(ctx, c.NumEpochs); err != nil {
		commons.Fatal("Train", err)
	}
	log.Info("[Main] That's it!")
}
