package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
	"github.com/Sumatoshi-tech/adoptrack/pkg/merge"
	"github.com/Sumatoshi-tech/adoptrack/pkg/metrics"
)

// textTopUsers is the fallback cap for the per-user table in terminal
// output; the full population goes to the CSV.
const textTopUsers = 15

// WriteText renders a human-readable report to w: summary tables, the top
// users and the run diagnostics. topUsers caps the per-user table; zero or
// negative falls back to the built-in cap. noColor disables ANSI styling.
func WriteText(
	w io.Writer,
	summary *metrics.Summary,
	population []*merge.User,
	stats *observability.RunStats,
	topUsers int,
	noColor bool,
) {
	heading := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow, color.Bold)

	if noColor {
		heading.DisableColor()
		warn.DisableColor()
	}

	heading.Fprintf(w, "AI Adoption Report — %s\n\n", summary.Window.String())

	writeSummaryTable(w, summary)
	fmt.Fprintln(w)

	writeTopUsersTable(w, summary, population, topUsers)
	fmt.Fprintln(w)

	writeDiagnostics(w, warn, stats)
}

func writeSummaryTable(w io.Writer, summary *metrics.Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Summary")
	tw.AppendHeader(table.Row{"Metric", "Value"})

	tw.AppendRows([]table.Row{
		{"Business Days", summary.BusinessDays},
		{"Total Users", humanize.Comma(int64(summary.TotalUsers))},
		{"Monthly Active Users", humanize.Comma(int64(summary.MAU))},
		{"Adoption Rate", formatPct(summary.AdoptionRate()) + "%"},
		{"Median Consistency", formatPct(summary.MedianConsistency) + "%"},
		{"P75 Consistency", formatPct(summary.P75Consistency) + "%"},
		{"P90 Consistency", formatPct(summary.P90Consistency) + "%"},
		{"Users 15+ Days", countWithPct(summary.Users15PlusDays, summary.Pct15PlusDays())},
		{"Users 20+ Days", countWithPct(summary.Users20PlusDays, summary.Pct20PlusDays())},
		{"Users 80%+ Consistency", countWithPct(summary.UsersHighConsistency, summary.PctHighConsistency())},
		{"Total Requests", humanize.Comma(summary.TotalRequests)},
		{"Requests / Active User-Day", formatPct(summary.RequestsPerActiveUserDay())},
		{"GitHub Only / Workbench Only / Both", fmt.Sprintf("%d / %d / %d",
			summary.GitHubOnly, summary.WorkbenchOnly, summary.BothPlatforms)},
		{"Agent / Roo / Embedding / Caching", fmt.Sprintf("%d / %d / %d / %d",
			summary.AgentUsers, summary.RooUsers, summary.EmbeddingUsers, summary.PromptCachingUsers)},
		{"Total Spend", "$" + humanize.CommafWithDigits(summary.TotalSpend, 2)},
	})

	tw.Render()
}

func writeTopUsersTable(w io.Writer, summary *metrics.Summary, population []*merge.User, topUsers int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Top Users")
	tw.AppendHeader(table.Row{"User", "Days", "Consistency", "GitHub", "Workbench", "Flags"})

	if topUsers <= 0 {
		topUsers = textTopUsers
	}

	limit := min(topUsers, len(population))

	for _, user := range population[:limit] {
		tw.AppendRow(table.Row{
			user.Identity,
			user.DaysActive(),
			formatPct(metrics.ConsistencyRate(user, summary.BusinessDays)) + "%",
			humanize.Comma(user.GitHubRequests),
			humanize.Comma(user.WorkbenchRequests),
			userFlags(user),
		})
	}

	tw.Render()
}

func userFlags(user *merge.User) string {
	flags := ""

	if user.UsedAgent {
		flags += "A"
	}

	if user.UsedRoo {
		flags += "R"
	}

	if user.UsedEmbedding {
		flags += "E"
	}

	if user.UsesPromptCaching() {
		flags += "C"
	}

	return flags
}

// writeDiagnostics surfaces the zero-loss accounting after every run. An
// unbalanced run means records vanished without a tallied reason and the
// report cannot be trusted.
func writeDiagnostics(w io.Writer, warn *color.Color, stats *observability.RunStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Run Diagnostics")
	tw.AppendHeader(table.Row{"Counter", "Count"})

	tw.AppendRows([]table.Row{
		{"Input Records", stats.InputRecords},
		{"Normalized", stats.Normalized},
		{"Rejected: missing identity", stats.MissingIdentity},
		{"Rejected: missing date", stats.MissingDate},
		{"Rejected: unparseable date", stats.UnparseableDate},
		{"Rejected: out of window", stats.OutOfWindow},
		{"Rejected: bad payload", stats.BadPayload},
		{"Warned: counters coerced to zero", stats.CoercedCounters},
		{"Warned: login-fallback identities", stats.FallbackIdentities},
		{"Excluded by roster", stats.RosterExcluded},
	})

	tw.Render()

	if !stats.Balanced() {
		warn.Fprintf(w, "WARNING: %d input records are unaccounted for (%d normalized + %d rejected)\n",
			stats.InputRecords-stats.Normalized-stats.TotalRejected(),
			stats.Normalized, stats.TotalRejected())
	}
}
