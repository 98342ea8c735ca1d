package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
	"github.com/vamsi1609/pytorch-deep-learning/config"
	"github.com/vamsi1609/pytorch-deep-learning/datasource"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	which := flag.String("dataset", "all", "Dataset to fetch (pennfudan, agnews, all)")

	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		commons.Fatal("Main", err)
	}
	if err := commons.SetupLogging(conf.LogLevel, conf.SentryDSN); err != nil {
		commons.Fatal("Main", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := conf.Fetch
	fetcher := datasource.NewFetcher(datasource.S3Config{
		Endpoint:        c.S3Endpoint,
		Region:          c.S3Region,
		AccessKeyID:     c.S3AccessKeyID,
		AccessKeySecret: c.S3AccessKeySecret,
	})

	type source struct{ name, uri, dir string }
	var sources []source
	switch *which {
	case "pennfudan":
		sources = []source{{"pennfudan", c.PennFudanURL, c.PennFudanDir}}
	case "agnews":
		sources = []source{{"agnews", c.AGNewsURL, c.AGNewsDir}}
	case "all":
		sources = []source{{"pennfudan", c.PennFudanURL, c.PennFudanDir}, {"agnews", c.AGNewsURL, c.AGNewsDir}}
	default:
		log.Fatal("[Main] Unknown dataset: ", *which)
	}

	for _, s := range sources {
		log.Info("[Main] Fetching ", s.name, " from ", s.uri)
		path, err := fetcher.FetchAndExtract(ctx, s.uri, s.dir)
		if err != nil {
			commons.Fatal("Fetch", err)
		}
		log.Info("[Main] ", s.name, " ready in ", path)
	}
}
