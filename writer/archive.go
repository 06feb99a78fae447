package writer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "ratesflow/config"
	"ratesflow/logger"
)

// RawArchiver uploads fetched payloads to S3 before normalization, so a bad
// run can be replayed against the exact upstream bytes. It is optional;
// archive failures are logged and never fail the pipeline.
type RawArchiver struct {
	client *s3.Client
	bucket string
	prefix string
	log    *logger.Log
}

func NewRawArchiver(ctx context.Context, cfg *appconfig.Config) (*RawArchiver, error) {
	log := logger.GetLogger()

	s3Cfg := cfg.Storage.S3

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if s3Cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(s3Cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration for archive: %w", err)
	}

	log.WithComponent("raw_archiver").WithFields(logger.Fields{
		"bucket": s3Cfg.Bucket,
		"prefix": s3Cfg.Prefix,
	}).Info("raw archiver initialized")

	return &RawArchiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: s3Cfg.Bucket,
		prefix: s3Cfg.Prefix,
		log:    log,
	}, nil
}

// Archive stores one payload under {prefix}/{source}/{utc timestamp}.json.
func (a *RawArchiver) Archive(ctx context.Context, source string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	key := a.objectKey(source, time.Now().UTC())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archiving payload to s3://%s/%s: %w", a.bucket, key, err)
	}

	a.log.WithComponent("raw_archiver").WithFields(logger.Fields{
		"key":   key,
		"bytes": len(payload),
	}).Info("raw payload archived")
	return nil
}

func (a *RawArchiver) objectKey(source string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", a.prefix, source, now.Format("20060102T150405Z"))
}
