package processor

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ratesflow/config"
	"ratesflow/logger"
	"ratesflow/models"
)

// ChartNormalizer turns raw price bars into normalized points for one
// configured metric. Bars without a trade time or with a non-numeric close
// are skipped individually.
type ChartNormalizer struct {
	config   *config.Config
	metricID string
	unit     string
	log      *logger.Log
}

func NewChartNormalizer(cfg *config.Config) *ChartNormalizer {
	return &ChartNormalizer{
		config:   cfg,
		metricID: cfg.ChartMetricID(),
		unit:     cfg.Metric.Unit,
		log:      logger.GetLogger(),
	}
}

// Normalize converts each usable bar into a point and returns the points in
// ascending timestamp order. The sort is stable, so bars sharing a timestamp
// keep their source order.
func (n *ChartNormalizer) Normalize(bars []models.RawBar) []models.NormalizedPoint {
	log := n.log.WithComponent("chart_normalizer").WithFields(logger.Fields{"metric_id": n.metricID})

	if len(bars) == 0 {
		log.Info("no price bars to normalize")
		return nil
	}

	points := make([]models.NormalizedPoint, 0, len(bars))
	skipped := 0
	for _, bar := range bars {
		if bar.TradeTimeMs == nil {
			log.Debug("skipping bar with missing tradeTimeinMills")
			skipped++
			continue
		}

		value, err := parseCloseValue(bar.Close)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"close": bar.Close.String()}).Debug("skipping bar with non-numeric close")
			skipped++
			continue
		}

		ts := time.UnixMilli(*bar.TradeTimeMs).UTC()
		points = append(points, models.NormalizedPoint{
			MetricID:    n.metricID,
			TimestampMs: *bar.TradeTimeMs,
			Value:       value,
			SourceDate:  ts.Format("2006-01-02 15:04:05 MST"),
			Unit:        n.unit,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TimestampMs < points[j].TimestampMs
	})

	log.WithFields(logger.Fields{
		"bars":    len(bars),
		"points":  len(points),
		"skipped": skipped,
	}).Info("chart bars normalized")
	return points
}

// parseCloseValue coerces a close value to decimal, stripping a percent sign
// when the publisher formats the value as a percentage string.
func parseCloseValue(close models.FlexNumber) (decimal.Decimal, error) {
	raw := close.String()
	if strings.Contains(raw, "%") {
		close = models.NewFlexNumber(strings.ReplaceAll(raw, "%", ""))
	}
	return close.Decimal()
}
