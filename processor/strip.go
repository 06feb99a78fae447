package processor

import (
	"strings"
	"time"

	"ratesflow/config"
	"ratesflow/logger"
	"ratesflow/models"
)

// maxStripDays bounds normalization to the most recent day records; older
// entries in the payload are ignored.
const maxStripDays = 5

// canonicalFixingHour marks the 10:00 fixing preferred when a term reports
// multiple same-day candidates.
const canonicalFixingHour = "T10:00"

var termMetrics = map[string]string{
	"1M": models.MetricSOFR1MTerm,
	"3M": models.MetricSOFR3MTerm,
	"6M": models.MetricSOFR6MTerm,
	"1Y": models.MetricSOFR1YTerm,
}

// recognizedTerms fixes the emission order of term points within a day.
var recognizedTerms = []string{"1M", "3M", "6M", "1Y"}

// StripNormalizer turns the raw strip-rate payload into normalized points.
// Sentinel and unparseable values suppress individual points, never the run.
type StripNormalizer struct {
	config *config.Config
	log    *logger.Log
}

func NewStripNormalizer(cfg *config.Config) *StripNormalizer {
	return &StripNormalizer{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Normalize walks the first maxStripDays day records and emits one point per
// available metric. A nil response yields zero points.
func (n *StripNormalizer) Normalize(resp *models.StripResponse) []models.NormalizedPoint {
	log := n.log.WithComponent("strip_normalizer")

	if resp == nil || len(resp.ResultsStrip) == 0 {
		log.Info("no day records to normalize")
		return nil
	}

	days := resp.ResultsStrip
	if len(days) > maxStripDays {
		days = days[:maxStripDays]
	}

	var points []models.NormalizedPoint
	for _, day := range days {
		points = append(points, n.normalizeDay(day)...)
	}

	log.WithFields(logger.Fields{
		"days":   len(days),
		"points": len(points),
	}).Info("strip payload normalized")
	return points
}

func (n *StripNormalizer) normalizeDay(day models.RawDayRecord) []models.NormalizedPoint {
	log := n.log.WithComponent("strip_normalizer").WithFields(logger.Fields{"date": day.Date})

	dayTime, err := time.Parse("2006-01-02", strings.TrimSpace(day.Date))
	if err != nil {
		log.WithError(err).Warn("skipping day record with unparseable date")
		return nil
	}
	// Date-only labels peg to midnight UTC.
	timestampMs := dayTime.UTC().UnixMilli()
	sourceDate := dayTime.UTC().Format("2006-01-02")

	var points []models.NormalizedPoint

	appendPoint := func(metricID string, value models.FlexNumber, unit string) {
		if !value.Present() {
			return
		}
		if value.IsSentinel() {
			log.WithFields(logger.Fields{"metric_id": metricID}).Debug("sentinel value; point suppressed")
			return
		}
		d, err := value.Decimal()
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"metric_id": metricID}).Warn("value coercion failed; point suppressed")
			return
		}
		points = append(points, models.NormalizedPoint{
			MetricID:    metricID,
			TimestampMs: timestampMs,
			Value:       d,
			SourceDate:  sourceDate,
			Unit:        unit,
		})
	}

	appendPoint(models.MetricSOFROvernight, day.Overnight, "%")
	for _, term := range recognizedTerms {
		if rate, ok := n.selectTermRate(day.Date, term, day.Rates.SofrRatesFixing); ok {
			appendPoint(termMetrics[term], rate.Price, "%")
		}
	}
	appendPoint(models.MetricSOFR30DAvg, day.Average30Day, "%")
	appendPoint(models.MetricSOFR90DAvg, day.Average90Day, "%")
	appendPoint(models.MetricSOFR180DAvg, day.Average180Day, "%")
	// The index carries no unit attribute.
	appendPoint(models.MetricSOFRIndex, day.Index, "")

	return points
}

// selectTermRate picks exactly one candidate for the term. A single
// candidate wins outright. With several, same-day candidates are preferred,
// and among those the canonical 10:00 fixing. When no candidate matches the
// day's date label at all, the first listed candidate is taken; that choice
// is inherited legacy behaviour, so it is surfaced as a warning.
func (n *StripNormalizer) selectTermRate(date, term string, candidates []models.RawTermRate) (models.RawTermRate, bool) {
	var matching []models.RawTermRate
	for _, c := range candidates {
		if c.Term == term {
			matching = append(matching, c)
		}
	}

	if len(matching) == 0 {
		return models.RawTermRate{}, false
	}
	if len(matching) == 1 {
		return matching[0], true
	}

	var sameDay []models.RawTermRate
	for _, c := range matching {
		if strings.HasPrefix(c.Timestamp, date) {
			sameDay = append(sameDay, c)
		}
	}

	if len(sameDay) > 0 {
		for _, c := range sameDay {
			if strings.Contains(c.Timestamp, canonicalFixingHour) {
				return c, true
			}
		}
		return sameDay[0], true
	}

	n.log.WithComponent("strip_normalizer").WithFields(logger.Fields{
		"date":       date,
		"term":       term,
		"candidates": len(matching),
	}).Warn("no same-day candidate for term; falling back to first listed rate")
	return matching[0], true
}
