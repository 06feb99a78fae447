package writer

import (
	"context"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"ratesflow/logger"
	"ratesflow/models"
)

func point(metricID string, ts int64, value, unit string) models.NormalizedPoint {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return models.NormalizedPoint{
		MetricID:    metricID,
		TimestampMs: ts,
		Value:       d,
		SourceDate:  "2024-01-02",
		Unit:        unit,
	}
}

func TestBuildItem(t *testing.T) {
	item, err := buildItem(point("SOFR_1M_Term", 1704153600000, "5.34712", "%"))
	if err != nil {
		t.Fatalf("buildItem failed: %v", err)
	}

	if got := item["metricId"].(*types.AttributeValueMemberS).Value; got != "SOFR_1M_Term" {
		t.Fatalf("unexpected metricId %q", got)
	}
	if got := item["timestamp"].(*types.AttributeValueMemberN).Value; got != "1704153600000" {
		t.Fatalf("unexpected timestamp %q", got)
	}
	if got := item["value"].(*types.AttributeValueMemberN).Value; got != "5.34712" {
		t.Fatalf("value lost exactness: %q", got)
	}
	if got := item["unit"].(*types.AttributeValueMemberS).Value; got != "%" {
		t.Fatalf("unexpected unit %q", got)
	}
}

func TestBuildItemOmitsEmptyUnit(t *testing.T) {
	item, err := buildItem(point("SOFR_Index", 1704153600000, "1.10724392", ""))
	if err != nil {
		t.Fatalf("buildItem failed: %v", err)
	}
	if _, ok := item["unit"]; ok {
		t.Fatalf("unit attribute must be omitted when empty")
	}
}

func TestBuildItemRejectsEmptyMetricID(t *testing.T) {
	if _, err := buildItem(point("", 1704153600000, "1", "")); err == nil {
		t.Fatalf("expected error for empty metric id")
	}
}

func TestBuildItemIdempotentKey(t *testing.T) {
	a, err := buildItem(point("SOFR_Overnight", 1704153600000, "5.38", "%"))
	if err != nil {
		t.Fatalf("buildItem failed: %v", err)
	}
	b, err := buildItem(point("SOFR_Overnight", 1704153600000, "5.38", "%"))
	if err != nil {
		t.Fatalf("buildItem failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same point must build the same item: %v vs %v", a, b)
	}
}

func TestWriteBatchEmptyInput(t *testing.T) {
	w := &StoreWriter{table: "RealTimeChartData", log: logger.GetLogger()}
	written, err := w.WriteBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("WriteBatch on empty input returned error: %v", err)
	}
	if written != 0 {
		t.Fatalf("expected 0 items written, got %d", written)
	}
}
