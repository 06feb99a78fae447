package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	appconfig "ratesflow/config"
	"ratesflow/logger"
	"ratesflow/models"
)

// maxBatchItems is the BatchWriteItem request ceiling.
const maxBatchItems = 25

// unprocessedRetries bounds the redrive of items the service returned as
// unprocessed before they are dropped with a warning.
const unprocessedRetries = 3

// StoreWriter persists normalized points into the time-series table. Writes
// are plain puts keyed on (metricId, timestamp); re-running a pipeline over
// an overlapping window overwrites the same keys, which is the intended
// idempotence mechanism.
type StoreWriter struct {
	client *dynamodb.Client
	table  string
	log    *logger.Log
}

// NewStoreWriter configures the AWS SDK the same way the rest of the service
// does, then probes the table with DescribeTable. A failed probe is a
// StoreUnavailable error; callers treat it as fatal before any fetch runs.
func NewStoreWriter(ctx context.Context, cfg *appconfig.Config) (*StoreWriter, error) {
	log := logger.GetLogger()

	storeCfg := cfg.Storage.DynamoDB

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if storeCfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(storeCfg.Region))
	}
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				storeCfg.AccessKeyID,
				storeCfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS configuration: %v", models.ErrStoreUnavailable, err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if storeCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
		}
	})

	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(storeCfg.Table),
	}); err != nil {
		return nil, fmt.Errorf("%w: describe table %q: %v", models.ErrStoreUnavailable, storeCfg.Table, err)
	}

	log.WithComponent("store_writer").WithFields(logger.Fields{
		"table":  storeCfg.Table,
		"region": storeCfg.Region,
	}).Info("store writer initialized")

	return &StoreWriter{
		client: client,
		table:  storeCfg.Table,
		log:    log,
	}, nil
}

// WriteBatch stores every point as one item and returns the count of items
// submitted. An empty input returns 0 without error. A malformed point is
// skipped with a warning; it never aborts the batch.
func (w *StoreWriter) WriteBatch(ctx context.Context, points []models.NormalizedPoint) (int, error) {
	batchID := uuid.New().String()
	log := w.log.WithComponent("store_writer").WithFields(logger.Fields{
		"table":    w.table,
		"batch_id": batchID,
	})

	if len(points) == 0 {
		log.Info("no points to store; nothing written")
		return 0, nil
	}

	requests := make([]types.WriteRequest, 0, len(points))
	for _, p := range points {
		item, err := buildItem(p)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"metric_id": p.MetricID,
				"timestamp": p.TimestampMs,
			}).Warn("skipping malformed point")
			continue
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	written := 0
	for start := 0; start < len(requests); start += maxBatchItems {
		end := start + maxBatchItems
		if end > len(requests) {
			end = len(requests)
		}
		chunk := requests[start:end]

		if err := w.submitChunk(ctx, chunk); err != nil {
			return written, fmt.Errorf("batch write failed after %d items: %w", written, err)
		}
		written += len(chunk)
	}

	log.WithFields(logger.Fields{"items_written": written}).Info("batch write completed")
	log.LogMetric("store_writer", "items_written", written, "counter", logger.Fields{"table": w.table})
	return written, nil
}

// submitChunk writes one BatchWriteItem request and redrives unprocessed
// items until they drain or the retry bound is hit.
func (w *StoreWriter) submitChunk(ctx context.Context, chunk []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{w.table: chunk}

	for attempt := 0; attempt <= unprocessedRetries; attempt++ {
		out, err := w.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return err
		}

		if len(out.UnprocessedItems) == 0 || len(out.UnprocessedItems[w.table]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 200 * time.Millisecond):
		}
	}

	return fmt.Errorf("%d items still unprocessed after %d retries", len(pending[w.table]), unprocessedRetries)
}

// buildItem maps a point onto the table schema: metricId (partition),
// timestamp (sort), value as an exact decimal number, sourceDate, and unit
// only when the metric carries one.
func buildItem(p models.NormalizedPoint) (map[string]types.AttributeValue, error) {
	if p.MetricID == "" {
		return nil, fmt.Errorf("%w: empty metric id", models.ErrValueCoercion)
	}

	item := map[string]types.AttributeValue{
		"metricId":   &types.AttributeValueMemberS{Value: p.MetricID},
		"timestamp":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", p.TimestampMs)},
		"value":      &types.AttributeValueMemberN{Value: p.Value.String()},
		"sourceDate": &types.AttributeValueMemberS{Value: p.SourceDate},
	}
	if p.Unit != "" {
		item["unit"] = &types.AttributeValueMemberS{Value: p.Unit}
	}
	return item, nil
}
