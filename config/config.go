// Package config holds the hyperparameters and service settings of the
// training and serving binaries. Defaults reproduce the tutorials' values; a
// YAML file may override any of them.
package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/vamsi1609/pytorch-deep-learning/datasource"
)

type Conf struct {
	Device    string `json:"device" yaml:"device"`
	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	SentryDSN string `json:"sentryDSN" yaml:"sentryDSN"`
	Seed      int64  `json:"seed" yaml:"seed"`
	// MetricsListen serves /metrics from the training binaries when set.
	MetricsListen string           `json:"metricsListen" yaml:"metricsListen"`
	Detection     *DetectionConfig `json:"detection" yaml:"detection"`
	Text          *TextConfig      `json:"text" yaml:"text"`
	Redis         *RedisConfig     `json:"redis" yaml:"redis"`
	Predict       *PredictConfig   `json:"predict" yaml:"predict"`
	Fetch         *FetchConfig     `json:"fetch" yaml:"fetch"`
}

// DetectionConfig configures the pedestrian fine-tuning run.
type DetectionConfig struct {
	Root           string  `json:"root" yaml:"root"`
	ModelZoo       string  `json:"modelZoo" yaml:"modelZoo"`
	Arch           string  `json:"arch" yaml:"arch"`
	NumClasses     int     `json:"numClasses" yaml:"numClasses"`
	HiddenLayer    int     `json:"hiddenLayer" yaml:"hiddenLayer"`
	BatchSize      int     `json:"batchSize" yaml:"batchSize"`
	TestBatchSize  int     `json:"testBatchSize" yaml:"testBatchSize"`
	NumWorkers     int     `json:"numWorkers" yaml:"numWorkers"`
	Holdout        int     `json:"holdout" yaml:"holdout"`
	LearningRate   float64 `json:"learningRate" yaml:"learningRate"`
	Momentum       float64 `json:"momentum" yaml:"momentum"`
	WeightDecay    float64 `json:"weightDecay" yaml:"weightDecay"`
	StepSize       int     `json:"stepSize" yaml:"stepSize"`
	Gamma          float64 `json:"gamma" yaml:"gamma"`
	NumEpochs      int     `json:"numEpochs" yaml:"numEpochs"`
	PrintFreq      int     `json:"printFreq" yaml:"printFreq"`
	FlipProb       float64 `json:"flipProb" yaml:"flipProb"`
	WarmupFactor   float64 `json:"warmupFactor" yaml:"warmupFactor"`
	WarmupMaxIters int     `json:"warmupMaxIters" yaml:"warmupMaxIters"`
}

// TextConfig configures the AG_NEWS text classification run.
type TextConfig struct {
	TrainCSV      string  `json:"trainCSV" yaml:"trainCSV"`
	TestCSV       string  `json:"testCSV" yaml:"testCSV"`
	NGrams        int     `json:"ngrams" yaml:"ngrams"`
	BatchSize     int     `json:"batchSize" yaml:"batchSize"`
	EmbedDim      int     `json:"embedDim" yaml:"embedDim"`
	LearningRate  float64 `json:"learningRate" yaml:"learningRate"`
	StepSize      int     `json:"stepSize" yaml:"stepSize"`
	Gamma         float64 `json:"gamma" yaml:"gamma"`
	NumEpochs     int     `json:"numEpochs" yaml:"numEpochs"`
	TrainFraction float64 `json:"trainFraction" yaml:"trainFraction"`
	InitRange     float64 `json:"initRange" yaml:"initRange"`
	MinFreq       int     `json:"minFreq" yaml:"minFreq"`
}

type RedisConfig struct {
	Address        string `json:"address" yaml:"address"`
	MaxConnections int    `json:"maxConnections" yaml:"maxConnections"`
}

// PredictConfig configures the prediction API and workers.
type PredictConfig struct {
	ModelDir        string  `json:"modelDir" yaml:"modelDir"`
	PredictionsDir  string  `json:"predictionsDir" yaml:"predictionsDir"`
	MaxWorkers      int     `json:"maxWorkers" yaml:"maxWorkers"`
	MaxQueueSize    int     `json:"maxQueueSize" yaml:"maxQueueSize"`
	ScoreThreshold  float32 `json:"scoreThreshold" yaml:"scoreThreshold"`
	ResultTTLSecond int     `json:"resultTTLSecond" yaml:"resultTTLSecond"`
	Listen          string  `json:"listen" yaml:"listen"`
}

// FetchConfig locates the dataset archives. URLs may be http(s):// or s3://.
type FetchConfig struct {
	PennFudanURL      string `json:"pennFudanURL" yaml:"pennFudanURL"`
	PennFudanDir      string `json:"pennFudanDir" yaml:"pennFudanDir"`
	AGNewsURL         string `json:"agNewsURL" yaml:"agNewsURL"`
	AGNewsDir         string `json:"agNewsDir" yaml:"agNewsDir"`
	S3Endpoint        string `json:"s3Endpoint" yaml:"s3Endpoint"`
	S3Region          string `json:"s3Region" yaml:"s3Region"`
	S3AccessKeyID     string `json:"s3AccessKeyID" yaml:"s3AccessKeyID"`
	S3AccessKeySecret string `json:"s3AccessKeySecret" yaml:"s3AccessKeySecret"`
}

// Default returns the configuration hard-coded in the tutorials.
func Default() *Conf {
	return &Conf{
		Device:   "auto",
		LogLevel: "info",
		Seed:     1,
		Detection: &DetectionConfig{
			Root:           "PennFudanPed",
			ModelZoo:       "models",
			Arch:           "maskrcnn_resnet50_fpn",
			NumClasses:     2,
			HiddenLayer:    256,
			BatchSize:      2,
			TestBatchSize:  1,
			NumWorkers:     4,
			Holdout:        50,
			LearningRate:   0.005,
			Momentum:       0.9,
			WeightDecay:    0.0005,
			StepSize:       3,
			Gamma:          0.1,
			NumEpochs:      10,
			PrintFreq:      10,
			FlipProb:       0.5,
			WarmupFactor:   1.0 / 1000,
			WarmupMaxIters: 1000,
		},
		Text: &TextConfig{
			TrainCSV:      "data/ag_news_csv/train.csv",
			TestCSV:       "data/ag_news_csv/test.csv",
			NGrams:        2,
			BatchSize:     16,
			EmbedDim:      32,
			LearningRate:  4.0,
			StepSize:      1,
			Gamma:         0.9,
			NumEpochs:     5,
			TrainFraction: 0.95,
			InitRange:     0.5,
			MinFreq:       1,
		},
		Redis: &RedisConfig{
			Address:        ":6379",
			MaxConnections: 10,
		},
		Predict: &PredictConfig{
			ModelDir:        "models/pedestrian/",
			PredictionsDir:  "../predictions/",
			MaxWorkers:      5,
			MaxQueueSize:    100,
			ScoreThreshold:  0.5,
			ResultTTLSecond: 3600,
			Listen:          ":8081",
		},
		Fetch: &FetchConfig{
			PennFudanURL: datasource.PennFudanURL,
			PennFudanDir: ".",
			AGNewsURL:    datasource.AGNewsURL,
			AGNewsDir:    "data",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Conf, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate rejects values no run could make progress with.
func (c *Conf) Validate() error {
	if d := c.Detection; d != nil {
		if d.NumClasses < 2 {
			return errors.Errorf("detection.numClasses must include background, got %d", d.NumClasses)
		}
		if d.BatchSize < 1 || d.TestBatchSize < 1 {
			return errors.New("detection batch sizes must be positive")
		}
		if d.NumEpochs < 0 {
			return errors.Errorf("detection.numEpochs must not be negative, got %d", d.NumEpochs)
		}
	}
	if t := c.Text; t != nil {
		if t.BatchSize < 1 {
			return errors.Errorf("text.batchSize must be positive, got %d", t.BatchSize)
		}
		if t.TrainFraction <= 0 || t.TrainFraction > 1 {
			return errors.Errorf("text.trainFraction must be in (0, 1], got %v", t.TrainFraction)
		}
		if t.NumEpochs < 0 {
			return errors.Errorf("text.numEpochs must not be negative, got %d", t.NumEpochs)
		}
	}
	return nil
}
