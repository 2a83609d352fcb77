package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Sumatoshi-tech/adoptrack/pkg/merge"
	"github.com/Sumatoshi-tech/adoptrack/pkg/metrics"
)

// perUserHeader is the stable column set of the per-user block. Append-only:
// downstream spreadsheets reference these columns by name.
var perUserHeader = []string{
	"Email",
	"Chapter",
	"Squad",
	"GitHub Login",
	"Days Active",
	"Consistency Rate (%)",
	"GitHub Requests",
	"Workbench Requests",
	"Embedding Requests",
	"Total Requests",
	"Code Generated",
	"Code Accepted",
	"LOC Added",
	"LOC Deleted",
	"Spend",
	"Used Agent",
	"Used Roo",
	"Prompt Caching",
	"Models Breakdown",
	"Features Breakdown",
}

// WriteCSV renders the summary block followed by one row per user.
func WriteCSV(w io.Writer, summary *metrics.Summary, population []*merge.User) error {
	writer := csv.NewWriter(w)

	writeSummaryRows(writer, summary)

	_ = writer.Write([]string{"PER-USER ADOPTION STATISTICS"})
	_ = writer.Write(perUserHeader)

	for _, user := range population {
		_ = writer.Write(userRow(user, summary.BusinessDays))
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}

	return nil
}

func writeSummaryRows(writer *csv.Writer, summary *metrics.Summary) {
	row := func(cells ...string) { _ = writer.Write(cells) }

	row("ADOPTION SUMMARY STATISTICS")
	row("Metric", "Value")
	row("Report Period", summary.Window.String())
	row("Business Days in Period", strconv.Itoa(summary.BusinessDays))
	row("Total Users", strconv.Itoa(summary.TotalUsers))
	row("Monthly Active Users (MAU)", strconv.Itoa(summary.MAU))
	row("Adoption Rate (%)", formatPct(summary.AdoptionRate()))
	row()

	row("CONSISTENCY METRICS")
	row("Median User Consistency (%)", formatPct(summary.MedianConsistency))
	row("Mean User Consistency (%)", formatPct(summary.MeanConsistency))
	row("75th Percentile Consistency (%)", formatPct(summary.P75Consistency))
	row("90th Percentile Consistency (%)", formatPct(summary.P90Consistency))
	row("Users with 15+ Active Days", countWithPct(summary.Users15PlusDays, summary.Pct15PlusDays()))
	row("Users with 20+ Active Days", countWithPct(summary.Users20PlusDays, summary.Pct20PlusDays()))
	row("Users at 80%+ Consistency", countWithPct(summary.UsersHighConsistency, summary.PctHighConsistency()))
	row()

	row("INTENSITY METRICS")
	row("Total Requests", strconv.FormatInt(summary.TotalRequests, 10))
	row("Requests per Active User-Day", formatPct(summary.RequestsPerActiveUserDay()))
	row("Median Requests per User", formatPct(summary.MedianRequestsPerUser))
	row("75th Percentile Requests per User", formatPct(summary.P75RequestsPerUser))
	row("GitHub Acceptance Rate (%)", formatPct(summary.AcceptanceRate()))
	row("GitHub LOC Added", strconv.FormatInt(summary.TotalLOCAdded, 10))
	row("GitHub LOC Deleted", strconv.FormatInt(summary.TotalLOCDeleted, 10))
	row("GitHub Net LOC", strconv.FormatInt(summary.NetLOC(), 10))
	row("Total Spend", strconv.FormatFloat(summary.TotalSpend, 'f', 2, 64))
	row()

	row("PLATFORM USAGE")
	row("GitHub Only Users", strconv.Itoa(summary.GitHubOnly))
	row("Workbench Only Users", strconv.Itoa(summary.WorkbenchOnly))
	row("Both Platforms Users", strconv.Itoa(summary.BothPlatforms))
	row("GitHub Agent Users", strconv.Itoa(summary.AgentUsers))
	row("Roo Users", strconv.Itoa(summary.RooUsers))
	row("Embedding/Indexing Users", strconv.Itoa(summary.EmbeddingUsers))
	row("Prompt Caching Users", strconv.Itoa(summary.PromptCachingUsers))
	row()
}

func userRow(user *merge.User, businessDays int) []string {
	return []string{
		user.Identity,
		user.Member.Chapter,
		user.Member.Squad,
		user.Login,
		strconv.Itoa(user.DaysActive()),
		formatPct(metrics.ConsistencyRate(user, businessDays)),
		strconv.FormatInt(user.GitHubRequests, 10),
		strconv.FormatInt(user.WorkbenchRequests, 10),
		strconv.FormatInt(user.EmbeddingRequests, 10),
		strconv.FormatInt(user.TotalRequests(), 10),
		strconv.FormatInt(user.CodeGenerated, 10),
		strconv.FormatInt(user.CodeAccepted, 10),
		strconv.FormatInt(user.LOCAdded, 10),
		strconv.FormatInt(user.LOCDeleted, 10),
		strconv.FormatFloat(user.Spend, 'f', 2, 64),
		yesNo(user.UsedAgent),
		yesNo(user.UsedRoo),
		yesNo(user.UsesPromptCaching()),
		formatBreakdown(user.ModelRequests),
		formatBreakdown(user.FeatureRequests),
	}
}

// formatPct renders a percentage or rate with one decimal place.
func formatPct(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}

func countWithPct(count int, pct float64) string {
	return fmt.Sprintf("%d (%s%%)", count, formatPct(pct))
}
