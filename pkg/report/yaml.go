package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/adoptrack/pkg/metrics"
)

// yamlSummary flattens the summary for machine consumption: derived
// percentages are materialized so downstream tooling does not recompute
// them.
type yamlSummary struct {
	Period       string `yaml:"period"`
	BusinessDays int    `yaml:"business_days"`

	TotalUsers   int     `yaml:"total_users"`
	MAU          int     `yaml:"monthly_active_users"`
	AdoptionRate float64 `yaml:"adoption_rate_pct"`

	Consistency struct {
		Median  float64 `yaml:"median_pct"`
		Mean    float64 `yaml:"mean_pct"`
		P75     float64 `yaml:"p75_pct"`
		P90     float64 `yaml:"p90_pct"`
		Days15  int     `yaml:"users_15_plus_days"`
		Days20  int     `yaml:"users_20_plus_days"`
		High    int     `yaml:"users_high_consistency"`
		HighPct float64 `yaml:"users_high_consistency_pct"`
	} `yaml:"consistency"`

	Intensity struct {
		TotalRequests         int64   `yaml:"total_requests"`
		ActiveUserDays        int64   `yaml:"active_user_days"`
		RequestsPerUserDay    float64 `yaml:"requests_per_active_user_day"`
		MedianRequestsPerUser float64 `yaml:"median_requests_per_user"`
		P75RequestsPerUser    float64 `yaml:"p75_requests_per_user"`
		AcceptanceRate        float64 `yaml:"acceptance_rate_pct"`
		LOCAdded              int64   `yaml:"loc_added"`
		LOCDeleted            int64   `yaml:"loc_deleted"`
		NetLOC                int64   `yaml:"net_loc"`
		TotalSpend            float64 `yaml:"total_spend"`
	} `yaml:"intensity"`

	Platforms struct {
		GitHubOnly    int `yaml:"github_only"`
		WorkbenchOnly int `yaml:"workbench_only"`
		Both          int `yaml:"both"`
		Agent         int `yaml:"agent_users"`
		Roo           int `yaml:"roo_users"`
		Embedding     int `yaml:"embedding_users"`
		PromptCaching int `yaml:"prompt_caching_users"`
	} `yaml:"platforms"`
}

// WriteYAML exports the summary block as YAML.
func WriteYAML(w io.Writer, summary *metrics.Summary) error {
	out := yamlSummary{
		Period:       summary.Window.String(),
		BusinessDays: summary.BusinessDays,
		TotalUsers:   summary.TotalUsers,
		MAU:          summary.MAU,
		AdoptionRate: summary.AdoptionRate(),
	}

	out.Consistency.Median = summary.MedianConsistency
	out.Consistency.Mean = summary.MeanConsistency
	out.Consistency.P75 = summary.P75Consistency
	out.Consistency.P90 = summary.P90Consistency
	out.Consistency.Days15 = summary.Users15PlusDays
	out.Consistency.Days20 = summary.Users20PlusDays
	out.Consistency.High = summary.UsersHighConsistency
	out.Consistency.HighPct = summary.PctHighConsistency()

	out.Intensity.TotalRequests = summary.TotalRequests
	out.Intensity.ActiveUserDays = summary.ActiveUserDays
	out.Intensity.RequestsPerUserDay = summary.RequestsPerActiveUserDay()
	out.Intensity.MedianRequestsPerUser = summary.MedianRequestsPerUser
	out.Intensity.P75RequestsPerUser = summary.P75RequestsPerUser
	out.Intensity.AcceptanceRate = summary.AcceptanceRate()
	out.Intensity.LOCAdded = summary.TotalLOCAdded
	out.Intensity.LOCDeleted = summary.TotalLOCDeleted
	out.Intensity.NetLOC = summary.NetLOC()
	out.Intensity.TotalSpend = summary.TotalSpend

	out.Platforms.GitHubOnly = summary.GitHubOnly
	out.Platforms.WorkbenchOnly = summary.WorkbenchOnly
	out.Platforms.Both = summary.BothPlatforms
	out.Platforms.Agent = summary.AgentUsers
	out.Platforms.Roo = summary.RooUsers
	out.Platforms.Embedding = summary.EmbeddingUsers
	out.Platforms.PromptCaching = summary.PromptCachingUsers

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encode yaml summary: %w", err)
	}

	return encoder.Close()
}
