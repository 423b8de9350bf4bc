package analytics

import (
	"fmt"
	"math"
	"sort"

	"thinkwise/models"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ScoreStats summarizes one score dimension across a set of ideas
type ScoreStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CategoryStats aggregates scores within one idea category
type CategoryStats struct {
	Category string     `json:"category"`
	Count    int        `json:"count"`
	Value    ScoreStats `json:"value"`
	Effort   ScoreStats `json:"effort"`
	Combined ScoreStats `json:"combined"`
}

// QuadrantCounts places ranked ideas on the value/effort grid at the
// 0.5 midpoints. Quick wins are high value, low effort.
type QuadrantCounts struct {
	QuickWins int `json:"quick_wins"` // value >= 0.5, effort < 0.5
	BigBets   int `json:"big_bets"`   // value >= 0.5, effort >= 0.5
	FillIns   int `json:"fill_ins"`   // value < 0.5, effort < 0.5
	MoneyPits int `json:"money_pits"` // value < 0.5, effort >= 0.5
}

// Terciles are the combined-score cut points splitting ranked ideas
// into bottom/middle/top thirds.
type Terciles struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Report is the full analytics payload computed over a user's analyses
type Report struct {
	TotalIdeas   int `json:"total_ideas"`
	RankedIdeas  int `json:"ranked_ideas"`
	SkippedIdeas int `json:"skipped_ideas"`

	Value    ScoreStats `json:"value"`
	Effort   ScoreStats `json:"effort"`
	Combined ScoreStats `json:"combined"`

	// Pearson correlations across ranked ideas; 0 when undefined
	// (fewer than two ideas or a constant dimension)
	ValueEffortCorrelation   float64 `json:"value_effort_correlation"`
	CombinedValueCorrelation float64 `json:"combined_value_correlation"`

	ByCategory     map[string]CategoryStats `json:"by_category"`
	Quadrants      QuadrantCounts           `json:"quadrants"`
	Terciles       Terciles                 `json:"terciles"`
	ScoreHistogram map[string]int           `json:"score_histogram"`
	IdeasOverTime  map[string]int           `json:"ideas_over_time"`
}

// Histogram bucket labels over combined score, lowest first
var histogramBuckets = []string{"0.00-0.25", "0.25-0.50", "0.50-0.75", "0.75-1.00"}

// Analyze computes the analytics report over a user's stored analyses.
// Score statistics cover ranked outcomes only; totals and the timeline
// count everything.
func Analyze(records []*models.AnalysisRecord) *Report {
	report := &Report{
		TotalIdeas:     len(records),
		ByCategory:     make(map[string]CategoryStats),
		ScoreHistogram: make(map[string]int, len(histogramBuckets)),
		IdeasOverTime:  make(map[string]int),
	}
	for _, bucket := range histogramBuckets {
		report.ScoreHistogram[bucket] = 0
	}

	var values, efforts, combined []float64
	byCategory := make(map[string][]*models.AnalysisRecord)

	for _, record := range records {
		report.IdeasOverTime[timelineKey(record)]++

		if !record.Ranked {
			report.SkippedIdeas++
			continue
		}
		report.RankedIdeas++

		values = append(values, record.ValueScore)
		efforts = append(efforts, record.EffortScore)
		combined = append(combined, record.CombinedScore)

		category := record.Category
		if category == "" {
			category = models.DefaultCategory
		}
		byCategory[category] = append(byCategory[category], record)

		report.ScoreHistogram[bucketFor(record.CombinedScore)]++

		switch {
		case record.ValueScore >= 0.5 && record.EffortScore < 0.5:
			report.Quadrants.QuickWins++
		case record.ValueScore >= 0.5:
			report.Quadrants.BigBets++
		case record.EffortScore < 0.5:
			report.Quadrants.FillIns++
		default:
			report.Quadrants.MoneyPits++
		}
	}

	report.Value = summarize(values)
	report.Effort = summarize(efforts)
	report.Combined = summarize(combined)
	report.ValueEffortCorrelation = correlation(values, efforts)
	report.CombinedValueCorrelation = correlation(combined, values)
	report.Terciles = terciles(combined)

	for category, group := range byCategory {
		report.ByCategory[category] = summarizeCategory(category, group)
	}

	return report
}

func summarizeCategory(category string, records []*models.AnalysisRecord) CategoryStats {
	values := make([]float64, 0, len(records))
	efforts := make([]float64, 0, len(records))
	combined := make([]float64, 0, len(records))
	for _, record := range records {
		values = append(values, record.ValueScore)
		efforts = append(efforts, record.EffortScore)
		combined = append(combined, record.CombinedScore)
	}

	return CategoryStats{
		Category: category,
		Count:    len(records),
		Value:    summarize(values),
		Effort:   summarize(efforts),
		Combined: summarize(combined),
	}
}

// summarize computes descriptive statistics for one dimension. Empty
// input yields the zero stats rather than an error.
func summarize(data []float64) ScoreStats {
	result := ScoreStats{Count: len(data)}
	if len(data) == 0 {
		return result
	}

	// montanaflynn/stats only errors on empty input, which is guarded above
	result.Mean, _ = stats.Mean(data)
	result.Median, _ = stats.Median(data)
	result.StdDev, _ = stats.StandardDeviation(data)
	result.Min, _ = stats.Min(data)
	result.Max, _ = stats.Max(data)
	return result
}

// correlation is the Pearson correlation of the two dimensions, 0 when
// undefined
func correlation(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// terciles returns the 33rd/67th percentile cut points of the combined
// scores
func terciles(combined []float64) Terciles {
	if len(combined) == 0 {
		return Terciles{}
	}

	sorted := make([]float64, len(combined))
	copy(sorted, combined)
	sort.Float64s(sorted)

	return Terciles{
		Lower: stat.Quantile(1.0/3.0, stat.Empirical, sorted, nil),
		Upper: stat.Quantile(2.0/3.0, stat.Empirical, sorted, nil),
	}
}

func bucketFor(score float64) string {
	switch {
	case score < 0.25:
		return histogramBuckets[0]
	case score < 0.5:
		return histogramBuckets[1]
	case score < 0.75:
		return histogramBuckets[2]
	default:
		return histogramBuckets[3]
	}
}

// timelineKey buckets a record into its submission month, falling back
// to the analysis time when the upload carried no timestamp
func timelineKey(record *models.AnalysisRecord) string {
	ts := record.CreatedAt
	if record.SubmittedAt != nil && !record.SubmittedAt.IsZero() {
		ts = *record.SubmittedAt
	}
	if ts.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month()))
}
