package bot

import (
	"fmt"
	"time"

	"github.com/go-analyze/charts"

	"github.com/spendify/spendify-bot/internal/overview"
)

// GenerateTrendChart creates a bar chart of the 12-month spending series.
// Returns PNG image as bytes.
func GenerateTrendChart(series []overview.MonthBucket) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no months to chart")
	}

	values := make([]float64, 0, len(series))
	labels := make([]string, 0, len(series))
	for _, bucket := range series {
		values = append(values, bucket.Total.InexactFloat64())
		labels = append(labels, bucket.Label)
	}

	p, err := charts.BarRender(
		[][]float64{values},
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Monthly Spending - Last 12 Months",
		}),
		charts.XAxisLabelsOptionFunc(labels),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// GenerateCategoryChart creates a pie chart of spending by category.
// Returns PNG image as bytes.
func GenerateCategoryChart(summaries []overview.CategorySummary) ([]byte, error) {
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no categories to chart")
	}

	values := make([]float64, 0, len(summaries))
	names := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		values = append(values, summary.Total.InexactFloat64())
		names = append(names, summary.CategoryName)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Spending by Category",
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// chartFilename creates a filename like "trend_2026-08.png".
func chartFilename(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s.png", kind, now.Format("2006-01"))
}
