package s3client

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"cnis.health/nse/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

type Config struct {
	BucketName  string `envconfig:"CNIS_ARCHIVE_BUCKET" required:"true"`
	Region      string `envconfig:"CNIS_AWS_REGION" default:"ap-south-1"`
	Endpoint    string `envconfig:"CNIS_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"CNIS_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"CNIS_AWS_ACCESS_KEY" default:""`
	KeyPrefix   string `envconfig:"CNIS_ARCHIVE_PREFIX" default:"screenings"`
}

// Client archives screening records as JSON objects.
type Client struct {
	cfg        Config
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	log        zerolog.Logger
}

func New() (*Client, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig uses static credentials when both keys are set and the default
// AWS credential chain otherwise. A custom endpoint switches to path-style
// addressing, as S3-compatible stores expect.
func NewWithConfig(cfg Config) (*Client, error) {
	clientLogger := logger.NewLogger("S3Client").With().Str("bucket", cfg.BucketName).Logger()
	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithMaxRetries(4).
		WithLogger(&s3Logger{logger.NewLogger("S3-SDK")}).
		WithLogLevel(aws.LogOff)
	if cfg.AccessKeyID != "" && cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKey, ""))
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, err
	}
	clientLogger.Info().Msg("S3 session initialized")
	return &Client{
		cfg:        cfg,
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
		log:        clientLogger,
	}, nil
}

// Key places a record under its creation date.
func (client *Client) Key(recordID string, createdAt time.Time) string {
	return path.Join(client.cfg.KeyPrefix, createdAt.UTC().Format("2006/01/02"), recordID+".json")
}

func (client *Client) Archive(ctx context.Context, key string, body []byte) error {
	client.log.Debug().Str("key", key).Msg("Uploading the file")
	_, err := client.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(client.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		client.log.Error().Err(err).Str("key", key).Msg("Failed to upload file")
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}

func (client *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer([]byte{})
	size, err := client.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(client.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		client.log.Error().Err(err).Str("key", key).Msg("Failed to download file")
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	client.log.Debug().Str("key", key).Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

type s3Logger struct {
	log zerolog.Logger
}

func (l *s3Logger) Log(v ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(v...))
}
