package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	"github.com/vamsi1609/pytorch-deep-learning/config"
	"github.com/vamsi1609/pytorch-deep-learning/metrics"
	"github.com/vamsi1609/pytorch-deep-learning/predict"
	"github.com/vamsi1609/pytorch-deep-learning/tfmodel"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	redisAddress := flag.String("redis-address", "", "Address to the Redis server")
	redisMaxConnections := flag.Int("redis-max-connections", 0, "Max connections to Redis")
	maxWorkerQueueSize := flag.Int("max-worker-queue-size", 0, "The size of job queue")
	maxWorkers := flag.Int("max-workers", 0, "The number of workers to start")
	modelDir := flag.String("model-dir", "", "Location of the exported detection model")
	pollInterval := flag.Duration("poll-interval", 100*time.Millisecond, "Wait between polls of an empty queue")

	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		commons.Fatal("Main", err)
	}
	if *redisAddress != "" {
		conf.Redis.Address = *redisAddress
	}
	if *redisMaxConnections > 0 {
		conf.Redis.MaxConnections = *redisMaxConnections
	}
	if *maxWorkerQueueSize > 0 {
		conf.Predict.MaxQueueSize = *maxWorkerQueueSize
	}
	if *maxWorkers > 0 {
		conf.Predict.MaxWorkers = *maxWorkers
	}
	if *modelDir != "" {
		conf.Predict.ModelDir = *modelDir
	}

	if err := commons.SetupLogging(conf.LogLevel, conf.SentryDSN); err != nil {
		commons.Fatal("Main", err)
	}
	log.Debug("[Main] Starting Prediction Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := commons.NewRedisPool(conf.Redis.Address, conf.Redis.MaxConnections)
	defer pool.Close()

	jobs := metrics.NewPredictions()
	registry := prometheus.NewRegistry()
	registry.MustRegister(jobs)
	if conf.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, conf.MetricsListen, registry); err != nil {
				log.WithError(err).Error("[Metrics] Couldn't serve metrics")
			}
		}()
	}

	factory := func() (predict.Predictor, error) {
		p := tfmodel.NewPredictor(conf.Predict.ScoreThreshold)
		if err := p.Load(conf.Predict.ModelDir); err != nil {
			return nil, err
		}
		return p, nil
	}

	dispatcher := predict.NewDispatcher(predict.NewRedisQueue(pool), factory,
		conf.Predict.MaxWorkers, conf.Predict.MaxQueueSize, conf.Predict.ResultTTLSecond, jobs)
	log.Debug("[Main] Starting Dispatcher...")
	if err := dispatcher.Start(ctx); err != nil {
		commons.Fatal("Main", err)
	}
	defer dispatcher.Stop()

	if err := dispatcher.Poll(ctx, *pollInterval); err != nil && err != context.Canceled {
		commons.Fatal("Main", err)
	}
	log.Info("[Main] Shutting down")
}
