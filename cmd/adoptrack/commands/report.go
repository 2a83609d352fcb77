// Package commands implements CLI command handlers for adoptrack.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adoptrack/internal/config"
	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
	"github.com/Sumatoshi-tech/adoptrack/pkg/feed"
	"github.com/Sumatoshi-tech/adoptrack/pkg/identity"
	"github.com/Sumatoshi-tech/adoptrack/pkg/merge"
	"github.com/Sumatoshi-tech/adoptrack/pkg/metrics"
	"github.com/Sumatoshi-tech/adoptrack/pkg/report"
	"github.com/Sumatoshi-tech/adoptrack/pkg/timewin"
)

var (
	// ErrNoFeeds is returned when neither feed flag is provided.
	ErrNoFeeds = errors.New(
		"no input feeds. Provide at least one of --github-json or --workbench-json",
	)
	// ErrWindowConflict indicates both --month and an explicit date range were given.
	ErrWindowConflict = errors.New("--month cannot be combined with --start-date/--end-date")
	// ErrWindowMissing indicates no reporting window was selected.
	ErrWindowMissing = errors.New("select a window with --month or with --start-date and --end-date")
	// ErrWindowPartial indicates only one end of the date range was given.
	ErrWindowPartial = errors.New("--start-date and --end-date must be provided together")
)

// ReportCommand holds configuration and file paths for one report run.
type ReportCommand struct {
	githubPaths    []string
	workbenchPaths []string

	month     string
	startDate string
	endDate   string

	mappingPath string
	rosterPath  string

	csvOutput     string
	htmlOutput    string
	yamlOutput    string
	metricsOutput string
	configPath    string
	noColor       bool
	strictFlags   bool
	topUsers      int
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	rc := &ReportCommand{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build an adoption report from usage feeds",
		Long: "Ingest GitHub Copilot and Workbench usage feeds, reconcile identities,\n" +
			"deduplicate active days across platforms and compute adoption metrics.",
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().StringSliceVar(&rc.githubPaths, "github-json", nil, "GitHub Copilot usage feed (repeatable)")
	cmd.Flags().StringSliceVar(&rc.workbenchPaths, "workbench-json", nil, "Workbench API usage feed (repeatable)")

	cmd.Flags().StringVar(&rc.month, "month", "", "Reporting month, YYYY-MM")
	cmd.Flags().StringVar(&rc.startDate, "start-date", "", "Window start, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&rc.endDate, "end-date", "", "Window end, YYYY-MM-DD (inclusive)")

	cmd.Flags().StringVar(&rc.mappingPath, "mapping", "", "Login-to-email mapping JSON file")
	cmd.Flags().StringVar(&rc.rosterPath, "roster", "", "Team roster CSV file")
	cmd.Flags().BoolVar(&rc.strictFlags, "strict-roster", false, "Drop activity from identities absent from the roster")

	cmd.Flags().StringVar(&rc.csvOutput, "csv-output", "", "Write the CSV report to this path")
	cmd.Flags().StringVar(&rc.htmlOutput, "html-output", "", "Write the HTML dashboard to this path")
	cmd.Flags().StringVar(&rc.yamlOutput, "summary-yaml", "", "Write the YAML summary to this path")
	cmd.Flags().StringVar(&rc.metricsOutput, "metrics-output", "", "Write run diagnostics in Prometheus text format to this path")

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file (default: .adoptrack.yaml in CWD or $HOME)")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored terminal output")

	return cmd
}

func (rc *ReportCommand) run(cmd *cobra.Command, _ []string) error {
	if len(rc.githubPaths) == 0 && len(rc.workbenchPaths) == 0 {
		return ErrNoFeeds
	}

	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyConfigDefaults(cmd, cfg)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	window, err := rc.resolveWindow(loc)
	if err != nil {
		return err
	}

	slog.Debug("report window resolved",
		"window", window.String(), "business_days", window.BusinessDays(), "timezone", cfg.Timezone)

	stats := &observability.RunStats{}

	resolver, roster, err := rc.buildResolver(cmd, cfg, stats)
	if err != nil {
		return err
	}

	acc := merge.NewAccumulator(resolver)

	err = rc.ingestFeeds(cfg, window, loc, stats, acc)
	if err != nil {
		return err
	}

	population := acc.Finalize(roster)
	summary := metrics.Compute(population, window)

	slog.Debug("population merged",
		"users", len(population), "input_records", stats.InputRecords, "rejected", stats.TotalRejected())

	err = rc.writeMetrics(stats)
	if err != nil {
		return err
	}

	return rc.render(cmd.OutOrStdout(), summary, population, stats)
}

// applyConfigDefaults fills unset command-line values from the config file.
// A flag the user set explicitly always wins.
func (rc *ReportCommand) applyConfigDefaults(cmd *cobra.Command, cfg *config.Config) {
	if rc.csvOutput == "" {
		rc.csvOutput = cfg.Output.CSV
	}

	if rc.htmlOutput == "" {
		rc.htmlOutput = cfg.Output.HTML
	}

	if rc.yamlOutput == "" {
		rc.yamlOutput = cfg.Output.YAML
	}

	if !cmd.Flags().Changed("no-color") {
		rc.noColor = cfg.Output.NoColor
	}

	rc.topUsers = cfg.Report.TopUsers
}

// resolveWindow builds the reporting window from the month or date-range
// flags. The two selection styles are mutually exclusive.
func (rc *ReportCommand) resolveWindow(loc *time.Location) (timewin.Window, error) {
	hasRange := rc.startDate != "" || rc.endDate != ""

	switch {
	case rc.month != "" && hasRange:
		return timewin.Window{}, ErrWindowConflict
	case rc.month != "":
		return timewin.FromMonth(rc.month, loc)
	case rc.startDate != "" && rc.endDate != "":
		return timewin.FromRange(rc.startDate, rc.endDate, loc)
	case hasRange:
		return timewin.Window{}, ErrWindowPartial
	default:
		return timewin.Window{}, ErrWindowMissing
	}
}

func (rc *ReportCommand) buildResolver(
	cmd *cobra.Command,
	cfg *config.Config,
	stats *observability.RunStats,
) (*identity.Resolver, *identity.Roster, error) {
	var mapping map[string]string

	if rc.mappingPath != "" {
		data, err := os.ReadFile(rc.mappingPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read mapping %s: %w", rc.mappingPath, err)
		}

		mapping, err = identity.LoadMapping(data)
		if err != nil {
			return nil, nil, err
		}

		slog.Debug("login mapping loaded", "path", rc.mappingPath, "entries", len(mapping))
	}

	var roster *identity.Roster

	if rc.rosterPath != "" {
		file, err := os.Open(rc.rosterPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open roster %s: %w", rc.rosterPath, err)
		}
		defer file.Close()

		roster, err = identity.LoadRoster(file)
		if err != nil {
			return nil, nil, err
		}

		slog.Debug("roster loaded", "path", rc.rosterPath, "members", roster.Len())
	}

	strict := cfg.Report.StrictRoster
	if cmd.Flags().Changed("strict-roster") {
		strict = rc.strictFlags
	}

	return identity.NewResolver(mapping, roster, strict, stats), roster, nil
}

func (rc *ReportCommand) ingestFeeds(
	cfg *config.Config,
	window timewin.Window,
	loc *time.Location,
	stats *observability.RunStats,
	acc *merge.Accumulator,
) error {
	ingest := func(platform feed.Platform, aliases feed.Aliases, paths []string) error {
		for _, path := range paths {
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s feed %s: %w", platform, path, err)
			}

			normalizer := feed.NewNormalizer(platform, window, loc, stats)
			normalizer.Aliases = aliases

			records, err := feed.Read(file, normalizer)
			file.Close()

			if err != nil {
				return err
			}

			for _, rec := range records {
				acc.Add(rec)
			}

			slog.Debug("feed ingested", "platform", platform, "path", path, "records", len(records))
		}

		return nil
	}

	err := ingest(feed.GitHub, cfg.GitHubAliases(), rc.githubPaths)
	if err != nil {
		return err
	}

	return ingest(feed.Workbench, cfg.WorkbenchAliases(), rc.workbenchPaths)
}

func (rc *ReportCommand) render(
	stdout io.Writer,
	summary *metrics.Summary,
	population []*merge.User,
	stats *observability.RunStats,
) error {
	report.WriteText(stdout, summary, population, stats, rc.topUsers, rc.noColor)

	err := rc.writeFile(rc.csvOutput, "csv", func(w io.Writer) error {
		return report.WriteCSV(w, summary, population)
	})
	if err != nil {
		return err
	}

	err = rc.writeFile(rc.htmlOutput, "html", func(w io.Writer) error {
		return report.WriteHTML(w, summary, population)
	})
	if err != nil {
		return err
	}

	return rc.writeFile(rc.yamlOutput, "yaml", func(w io.Writer) error {
		return report.WriteYAML(w, summary)
	})
}

// writeMetrics dumps the run diagnostics in Prometheus text exposition
// format, for scraping via the node exporter's textfile collector.
func (rc *ReportCommand) writeMetrics(stats *observability.RunStats) error {
	if rc.metricsOutput == "" {
		return nil
	}

	registry, err := stats.Registry()
	if err != nil {
		return err
	}

	err = prometheus.WriteToTextfile(rc.metricsOutput, registry)
	if err != nil {
		return fmt.Errorf("write metrics output %s: %w", rc.metricsOutput, err)
	}

	slog.Info("report written", "format", "metrics", "path", rc.metricsOutput)

	return nil
}

// writeFile renders one artifact when its path is configured.
func (rc *ReportCommand) writeFile(path, kind string, render func(io.Writer) error) error {
	if path == "" {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s output %s: %w", kind, path, err)
	}

	renderErr := render(file)
	closeErr := file.Close()

	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("close %s output %s: %w", kind, path, closeErr)
	}

	slog.Info("report written", "format", kind, "path", path)

	return nil
}
