package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "derivflow/config"
	"derivflow/logger"
)

// Mirror uploads snapshot partitions to S3 so downstream consumers can read
// them without touching the collector host.
type Mirror struct {
	config appconfig.S3Config
	client *s3.Client
	log    *logger.Log
}

// NewMirror configures the AWS SDK and validates credentials up front.
func NewMirror(cfg appconfig.S3Config) (*Mirror, error) {
	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_mirror").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.WithComponent("s3_mirror").WithFields(logger.Fields{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Info("s3 mirror initialized")

	return &Mirror{config: cfg, client: client, log: log}, nil
}

// Upload pushes one snapshot partition under date=YYYY-MM-DD/.
func (m *Mirror) Upload(ctx context.Context, sourceKey string, day time.Weekday, captured time.Time, data []byte) error {
	key := path.Join(
		m.config.Prefix,
		fmt.Sprintf("date=%s", captured.Format("2006-01-02")),
		fmt.Sprintf("%s_%s.csv", day.String(), sourceKey),
	)

	log := m.log.WithComponent("s3_mirror").WithFields(logger.Fields{
		"s3_key":    key,
		"data_size": len(data),
	})

	input := &s3.PutObjectInput{
		Bucket:      aws.String(m.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"source":    sourceKey,
			"partition": day.String(),
		},
	}

	if _, err := m.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", m.config.Bucket, err)
	}

	logger.IncrementMirrorUpload(len(data))
	log.Debug("snapshot mirrored to S3")
	return nil
}
