package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/adoptrack/pkg/merge"
	"github.com/Sumatoshi-tech/adoptrack/pkg/metrics"
)

const (
	htmlTopUsers        = 20
	consistencyBuckets  = 10
	consistencyBucketPc = 10
)

// WriteHTML renders the visual report: daily active users over the window,
// the consistency distribution, the platform split and the most active
// users.
func WriteHTML(w io.Writer, summary *metrics.Summary, population []*merge.User) error {
	page := components.NewPage()
	page.PageTitle = "AI Adoption Report " + summary.Window.String()
	page.SetLayout(components.PageFlexLayout)

	page.AddCharts(
		dailyActiveUsersChart(summary, population),
		consistencyDistributionChart(summary, population),
		platformSplitChart(summary),
		topUsersChart(population),
	)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	return nil
}

// dailyActiveUsersChart plots DAU for every calendar day in the window.
func dailyActiveUsersChart(summary *metrics.Summary, population []*merge.User) components.Charter {
	activeByDay := make(map[string]int)

	for _, user := range population {
		for _, day := range user.ActiveDays() {
			activeByDay[day]++
		}
	}

	var (
		labels []string
		values []opts.LineData
	)

	for _, day := range summary.Window.Days() {
		key := day.Format("2006-01-02")
		labels = append(labels, key)
		values = append(values, opts.LineData{Value: activeByDay[key]})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Daily Active Users"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "users"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("active users", values)

	return line
}

// consistencyDistributionChart buckets per-user consistency rates into
// 10-point bands.
func consistencyDistributionChart(summary *metrics.Summary, population []*merge.User) components.Charter {
	buckets := make([]int, consistencyBuckets)

	for _, user := range population {
		rate := metrics.ConsistencyRate(user, summary.BusinessDays)

		idx := int(rate) / consistencyBucketPc
		if idx >= consistencyBuckets {
			idx = consistencyBuckets - 1
		}

		buckets[idx]++
	}

	labels := make([]string, consistencyBuckets)
	values := make([]opts.BarData, consistencyBuckets)

	for i, count := range buckets {
		labels[i] = fmt.Sprintf("%d-%d%%", i*consistencyBucketPc, (i+1)*consistencyBucketPc)
		values[i] = opts.BarData{Value: count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Consistency Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "users"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("users", values)

	return bar
}

func platformSplitChart(summary *metrics.Summary) components.Charter {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Platform Usage"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	inactive := summary.TotalUsers - summary.GitHubOnly - summary.WorkbenchOnly - summary.BothPlatforms

	pie.AddSeries("platforms", []opts.PieData{
		{Name: "GitHub only", Value: summary.GitHubOnly},
		{Name: "Workbench only", Value: summary.WorkbenchOnly},
		{Name: "Both platforms", Value: summary.BothPlatforms},
		{Name: "Inactive", Value: inactive},
	})

	return pie
}

// topUsersChart shows the most active users by distinct active days.
func topUsersChart(population []*merge.User) components.Charter {
	limit := min(htmlTopUsers, len(population))
	top := make([]*merge.User, limit)
	copy(top, population[:limit])

	// Horizontal-style readability: most active at the top of the axis.
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].DaysActive() < top[j].DaysActive()
	})

	var (
		labels []string
		values []opts.BarData
	)

	for _, user := range top {
		labels = append(labels, user.Identity)
		values = append(values, opts.BarData{Value: user.DaysActive()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Most Active Users"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "active days"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("active days", values)

	return bar
}
