// Package datasource downloads and unpacks the tutorial datasets.
package datasource

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	PennFudanURL = "https://www.cis.upenn.edu/~jshi/ped_html/PennFudanPed.zip"
	AGNewsURL    = "https://s3.amazonaws.com/fast-ai-nlp/ag_news_csv.tgz"
)

// S3Config addresses an S3 compatible store. Empty credentials fall back to
// the default AWS credential chain.
type S3Config struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	AccessKeyID     string `yaml:"accessKeyID" json:"accessKeyID"`
	AccessKeySecret string `yaml:"accessKeySecret" json:"accessKeySecret"`
}

// Fetcher downloads http(s):// and s3:// URIs to local files.
type Fetcher struct {
	HTTP *resty.Client
	S3   S3Config
}

func NewFetcher(s3Conf S3Config) *Fetcher {
	return &Fetcher{HTTP: resty.New(), S3: s3Conf}
}

func (f *Fetcher) s3Client() (*s3.S3, error) {
	config := &aws.Config{}
	if f.S3.Endpoint != "" {
		config.Endpoint = aws.String(f.S3.Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}
	region := f.S3.Region
	if region == "" {
		region = "us-east-1"
	}
	config.Region = aws.String(region)
	if f.S3.AccessKeyID != "" {
		config.Credentials = credentials.NewStaticCredentials(f.S3.AccessKeyID, f.S3.AccessKeySecret, "")
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "create s3 session")
	}
	return s3.New(sess), nil
}

// Fetch downloads uri to dst, creating parent directories.
func (f *Fetcher) Fetch(ctx context.Context, uri, dst string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return errors.Wrapf(err, "parse %s", uri)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	log.Info("[Fetch] ", uri, " -> ", dst)

	switch u.Scheme {
	case "http", "https":
		resp, err := f.HTTP.R().
			SetContext(ctx).
			SetOutput(dst).
			Get(uri)
		if err != nil {
			return errors.Wrapf(err, "download %s", uri)
		}
		if resp.IsError() {
			os.Remove(dst)
			return errors.Errorf("download %s: %s", uri, resp.Status())
		}
		return nil
	case "s3":
		client, err := f.s3Client()
		if err != nil {
			return err
		}
		file, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer file.Close()

		downloader := s3manager.NewDownloaderWithClient(client)
		_, err = downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
			Bucket: aws.String(u.Host),
			Key:    aws.String(strings.TrimLeft(u.Path, "/")),
		})
		if err != nil {
			os.Remove(dst)
			return errors.Wrapf(err, "download %s", uri)
		}
		return nil
	default:
		return errors.Errorf("unsupported scheme %q in %s", u.Scheme, uri)
	}
}

// FetchAndExtract downloads uri into dir and unpacks it there when it is an
// archive. It returns the path of the downloaded file.
func (f *Fetcher) FetchAndExtract(ctx context.Context, uri, dir string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "parse %s", uri)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", errors.Errorf("cannot name the download of %s", uri)
	}
	dst := filepath.Join(dir, name)
	if err := f.Fetch(ctx, uri, dst); err != nil {
		return "", err
	}
	if IsArchive(dst) {
		if err := Extract(dst, dir); err != nil {
			return dst, err
		}
	}
	return dst, nil
}
