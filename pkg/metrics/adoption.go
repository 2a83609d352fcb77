// Package metrics computes organization-wide adoption statistics from the
// finalized merged population. Counts are stored; percentages are derived
// on access from their source counts so the two can never drift apart.
//
// Percentiles use linear interpolation (pkg/alg/stats). Per-user
// consistency is capped at 100%: weekend activity can push distinct active
// days past the business-day denominator, and a user cannot meaningfully be
// more than fully consistent.
package metrics

import (
	"github.com/Sumatoshi-tech/adoptrack/pkg/alg/stats"
	"github.com/Sumatoshi-tech/adoptrack/pkg/merge"
	"github.com/Sumatoshi-tech/adoptrack/pkg/timewin"
)

// Adoption thresholds shared by the summary and the renderers.
const (
	ThresholdActiveDays15 = 15
	ThresholdActiveDays20 = 20
	ThresholdConsistency  = 80.0

	maxConsistency = 100.0
)

// Summary is the organization-wide adoption picture for one window.
// Percentage accessors recompute from the stored counts.
type Summary struct {
	Window       timewin.Window
	BusinessDays int

	TotalUsers int
	MAU        int

	MedianConsistency float64
	MeanConsistency   float64
	P75Consistency    float64
	P90Consistency    float64

	Users15PlusDays      int
	Users20PlusDays      int
	UsersHighConsistency int

	TotalRequests         int64
	ActiveUserDays        int64
	MedianRequestsPerUser float64
	P75RequestsPerUser    float64

	GitHubOnly    int
	WorkbenchOnly int
	BothPlatforms int

	AgentUsers         int
	RooUsers           int
	EmbeddingUsers     int
	PromptCachingUsers int

	TotalCodeGenerated int64
	TotalCodeAccepted  int64
	TotalLOCAdded      int64
	TotalLOCDeleted    int64
	TotalSpend         float64
}

// AdoptionRate returns MAU over the total population as a percentage.
func (s *Summary) AdoptionRate() float64 {
	return stats.Ratio(float64(s.MAU), float64(s.TotalUsers))
}

// Pct15PlusDays returns the 15-plus-active-days share of the population.
func (s *Summary) Pct15PlusDays() float64 {
	return stats.Ratio(float64(s.Users15PlusDays), float64(s.TotalUsers))
}

// Pct20PlusDays returns the 20-plus-active-days share of the population.
func (s *Summary) Pct20PlusDays() float64 {
	return stats.Ratio(float64(s.Users20PlusDays), float64(s.TotalUsers))
}

// PctHighConsistency returns the share of users at or above 80% consistency.
func (s *Summary) PctHighConsistency() float64 {
	return stats.Ratio(float64(s.UsersHighConsistency), float64(s.TotalUsers))
}

// AcceptanceRate returns accepted code activity over generated, as a
// percentage.
func (s *Summary) AcceptanceRate() float64 {
	return stats.Ratio(float64(s.TotalCodeAccepted), float64(s.TotalCodeGenerated))
}

// RequestsPerActiveUserDay returns request intensity normalized by the
// population's combined active days.
func (s *Summary) RequestsPerActiveUserDay() float64 {
	if s.ActiveUserDays == 0 {
		return 0
	}

	return float64(s.TotalRequests) / float64(s.ActiveUserDays)
}

// NetLOC returns added minus deleted lines of code.
func (s *Summary) NetLOC() int64 {
	return s.TotalLOCAdded - s.TotalLOCDeleted
}

// ConsistencyRate returns a user's active days over the window's business
// days as a percentage, capped at 100.
func ConsistencyRate(user *merge.User, businessDays int) float64 {
	rate := stats.Ratio(float64(user.DaysActive()), float64(businessDays))

	return stats.Clamp(rate, 0, maxConsistency)
}

// Compute derives the adoption summary from the finalized population. The
// consistency distribution covers the full population: a rostered user with
// zero active days contributes a 0% rate rather than being excluded. An
// empty population yields an all-zero summary with no division by zero.
func Compute(population []*merge.User, window timewin.Window) *Summary {
	summary := &Summary{
		Window:       window,
		BusinessDays: window.BusinessDays(),
		TotalUsers:   len(population),
	}

	consistencyRates := make([]float64, 0, len(population))
	requestsPerUser := make([]float64, 0, len(population))

	for _, user := range population {
		rate := ConsistencyRate(user, summary.BusinessDays)
		consistencyRates = append(consistencyRates, rate)

		if user.DaysActive() >= 1 {
			summary.MAU++
		}

		if user.DaysActive() >= ThresholdActiveDays15 {
			summary.Users15PlusDays++
		}

		if user.DaysActive() >= ThresholdActiveDays20 {
			summary.Users20PlusDays++
		}

		if rate >= ThresholdConsistency {
			summary.UsersHighConsistency++
		}

		summary.TotalRequests += user.TotalRequests()
		summary.ActiveUserDays += int64(user.DaysActive())

		if user.TotalRequests() > 0 {
			requestsPerUser = append(requestsPerUser, float64(user.TotalRequests()))
		}

		switch {
		case user.HasGitHub && user.HasWorkbench:
			summary.BothPlatforms++
		case user.HasGitHub:
			summary.GitHubOnly++
		case user.HasWorkbench:
			summary.WorkbenchOnly++
		}

		if user.UsedAgent {
			summary.AgentUsers++
		}

		if user.UsedRoo {
			summary.RooUsers++
		}

		if user.UsedEmbedding {
			summary.EmbeddingUsers++
		}

		if user.UsesPromptCaching() {
			summary.PromptCachingUsers++
		}

		summary.TotalCodeGenerated += user.CodeGenerated
		summary.TotalCodeAccepted += user.CodeAccepted
		summary.TotalLOCAdded += user.LOCAdded
		summary.TotalLOCDeleted += user.LOCDeleted
		summary.TotalSpend += user.Spend
	}

	summary.MedianConsistency = stats.Median(consistencyRates)
	summary.MeanConsistency = stats.Mean(consistencyRates)
	summary.P75Consistency = stats.Percentile(consistencyRates, stats.PercentileP75)
	summary.P90Consistency = stats.Percentile(consistencyRates, stats.PercentileP90)

	summary.MedianRequestsPerUser = stats.Median(requestsPerUser)
	summary.P75RequestsPerUser = stats.Percentile(requestsPerUser, stats.PercentileP75)

	return summary
}
