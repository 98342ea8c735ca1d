package main

import (
	"flag"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	"github.com/vamsi1609/pytorch-deep-learning/config"
	"github.com/vamsi1609/pytorch-deep-learning/metrics"
	"github.com/vamsi1609/pytorch-deep-learning/predict"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	releaseMode := flag.Bool("release", false, "Run in release mode")
	redisAddress := flag.String("redis-address", "", "Address to the Redis server")
	redisMaxConnections := flag.Int("redis-max-connections", 0, "Max connections to Redis")
	predictionsDir := flag.String("predictions-dir", "", "Location of the temporary saved images for predictions")
	listen := flag.String("listen", "", "Address to listen on")

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
	if *predictionsDir != "" {
		conf.Predict.PredictionsDir = *predictionsDir
	}
	if *listen != "" {
		conf.Predict.Listen = *listen
	}

	if err := commons.SetupLogging(conf.LogLevel, conf.SentryDSN); err != nil {
		commons.Fatal("Main", err)
	}

	if *releaseMode {
		log.Info("[Main] Starting gin in release mode")
		gin.SetMode(gin.ReleaseMode)
	}

	if err := predict.EnsurePredictionsDir(conf.Predict.PredictionsDir); err != nil {
		commons.Fatal("Main", err)
	}

	pool := commons.NewRedisPool(conf.Redis.Address, conf.Redis.MaxConnections)
	defer pool.Close()

	requests := metrics.NewPredictions()
	registry := prometheus.NewRegistry()
	registry.MustRegister(requests)

	server := &predict.Server{
		Queue:          predict.NewRedisQueue(pool),
		PredictionsDir: conf.Predict.PredictionsDir,
		Metrics:        requests,
		Gatherer:       registry,
	}

	log.Info("[Main] Listening on ", conf.Predict.Listen)
	if err := server.Router().Run(conf.Predict.Listen); err != nil {
		commons.Fatal("Main", err)
	}
}
