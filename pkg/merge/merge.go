// Package merge folds normalized activity records into one state per
// canonical user. The fold is associative and commutative: sums, set
// unions and flag ORs only, so any record order (and any combination of
// per-platform partial merges) produces identical final state.
package merge

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/adoptrack/pkg/feed"
	"github.com/Sumatoshi-tech/adoptrack/pkg/identity"
)

const dayKeyLayout = "2006-01-02"

// User is the merged per-identity state for one report run. Created on the
// first record seen for an identity, mutated additively while input lasts,
// then read-only once Finalize has run.
type User struct {
	Identity string
	Login    string
	Member   identity.Member

	GitHubRequests    int64
	WorkbenchRequests int64
	EmbeddingRequests int64
	Spend             float64

	CodeGenerated int64
	CodeAccepted  int64
	LOCAdded      int64
	LOCDeleted    int64

	CacheReadTokens     int64
	CacheCreationTokens int64

	HasGitHub     bool
	HasWorkbench  bool
	UsedAgent     bool
	UsedRoo       bool
	UsedEmbedding bool

	ModelRequests   map[string]int64
	FeatureRequests map[string]int64

	activeDays map[string]struct{}
}

// DaysActive returns the number of distinct active calendar days.
func (u *User) DaysActive() int {
	return len(u.activeDays)
}

// ActiveDays returns the distinct active days in sorted order.
func (u *User) ActiveDays() []string {
	days := make([]string, 0, len(u.activeDays))
	for day := range u.activeDays {
		days = append(days, day)
	}

	sort.Strings(days)

	return days
}

// UsesPromptCaching reports whether the user read or created any prompt
// cache tokens during the window.
func (u *User) UsesPromptCaching() bool {
	return u.CacheReadTokens > 0 || u.CacheCreationTokens > 0
}

// TotalRequests returns combined generative request volume across both
// platforms. Embedding traffic is excluded: it reflects indexing jobs, not
// hands-on usage.
func (u *User) TotalRequests() int64 {
	return u.GitHubRequests + u.WorkbenchRequests - u.EmbeddingRequests
}

func (u *User) addDay(day time.Time) {
	if u.activeDays == nil {
		u.activeDays = make(map[string]struct{})
	}

	u.activeDays[day.Format(dayKeyLayout)] = struct{}{}
}

// Accumulator owns the merge mapping for the duration of one run.
type Accumulator struct {
	users    map[string]*User
	resolver *identity.Resolver
}

// NewAccumulator creates an empty accumulator using resolver for identity
// canonicalization.
func NewAccumulator(resolver *identity.Resolver) *Accumulator {
	return &Accumulator{
		users:    make(map[string]*User),
		resolver: resolver,
	}
}

// Len returns the number of distinct identities seen so far.
func (a *Accumulator) Len() int {
	return len(a.users)
}

// Add folds one record into the mapping. Two records for the same user on
// the same day from different platforms contribute one active day, not two.
func (a *Accumulator) Add(rec feed.Record) {
	canonical, _, ok := a.resolver.Resolve(rec.Identity)
	if !ok {
		return
	}

	user := a.users[canonical]
	if user == nil {
		user = &User{Identity: canonical}
		a.users[canonical] = user
	}

	user.addDay(rec.Day)

	switch rec.Platform {
	case feed.GitHub:
		user.HasGitHub = true
		user.GitHubRequests += rec.Requests
		user.CodeGenerated += rec.CodeGenerated
		user.CodeAccepted += rec.CodeAccepted
		user.LOCAdded += rec.LOCAdded
		user.LOCDeleted += rec.LOCDeleted
		user.setLogin(rec.Identity)
	case feed.Workbench:
		user.HasWorkbench = true
		user.WorkbenchRequests += rec.Requests
		user.EmbeddingRequests += rec.EmbeddingRequests
		user.Spend += rec.Spend
		user.CacheReadTokens += rec.CacheReadTokens
		user.CacheCreationTokens += rec.CacheCreationTokens
	}

	user.UsedAgent = user.UsedAgent || rec.UsedAgent
	user.UsedRoo = user.UsedRoo || rec.UsedRoo
	user.UsedEmbedding = user.UsedEmbedding || rec.EmbeddingRequests > 0

	user.ModelRequests = mergeCounts(user.ModelRequests, rec.ModelRequests)
	user.FeatureRequests = mergeCounts(user.FeatureRequests, rec.FeatureRequests)
}

// setLogin records the platform login behind a mapped identity. The
// lexicographically first login wins so the fold stays order-independent
// when several logins map onto one email.
func (u *User) setLogin(login string) {
	if u.Login == "" || login < u.Login {
		u.Login = login
	}
}

// Merge folds the users of other into a. Used to combine per-platform
// partial accumulators built in parallel.
func (a *Accumulator) Merge(other *Accumulator) {
	for key, theirs := range other.users {
		ours := a.users[key]
		if ours == nil {
			a.users[key] = theirs

			continue
		}

		for day := range theirs.activeDays {
			if ours.activeDays == nil {
				ours.activeDays = make(map[string]struct{})
			}

			ours.activeDays[day] = struct{}{}
		}

		ours.GitHubRequests += theirs.GitHubRequests
		ours.WorkbenchRequests += theirs.WorkbenchRequests
		ours.EmbeddingRequests += theirs.EmbeddingRequests
		ours.Spend += theirs.Spend
		ours.CodeGenerated += theirs.CodeGenerated
		ours.CodeAccepted += theirs.CodeAccepted
		ours.LOCAdded += theirs.LOCAdded
		ours.LOCDeleted += theirs.LOCDeleted
		ours.CacheReadTokens += theirs.CacheReadTokens
		ours.CacheCreationTokens += theirs.CacheCreationTokens

		ours.HasGitHub = ours.HasGitHub || theirs.HasGitHub
		ours.HasWorkbench = ours.HasWorkbench || theirs.HasWorkbench
		ours.UsedAgent = ours.UsedAgent || theirs.UsedAgent
		ours.UsedRoo = ours.UsedRoo || theirs.UsedRoo
		ours.UsedEmbedding = ours.UsedEmbedding || theirs.UsedEmbedding

		if theirs.Login != "" {
			ours.setLogin(theirs.Login)
		}

		ours.ModelRequests = mergeCounts(ours.ModelRequests, theirs.ModelRequests)
		ours.FeatureRequests = mergeCounts(ours.FeatureRequests, theirs.FeatureRequests)
	}
}

// Finalize seeds zero-activity rostered users, attaches roster metadata and
// returns the population sorted by days active, then total requests, then
// identity. roster may be nil. The returned slice is the read-only handoff
// to the metrics engine; the accumulator must not be mutated afterwards.
func (a *Accumulator) Finalize(roster *identity.Roster) []*User {
	if roster != nil {
		for _, email := range roster.Emails() {
			user := a.users[email]
			if user == nil {
				user = &User{Identity: email}
				a.users[email] = user
			}

			member, _ := roster.Member(email)
			user.Member = member
		}
	}

	population := make([]*User, 0, len(a.users))
	for _, user := range a.users {
		population = append(population, user)
	}

	sort.Slice(population, func(i, j int) bool {
		left, right := population[i], population[j]
		if left.DaysActive() != right.DaysActive() {
			return left.DaysActive() > right.DaysActive()
		}

		if left.TotalRequests() != right.TotalRequests() {
			return left.TotalRequests() > right.TotalRequests()
		}

		return left.Identity < right.Identity
	})

	return population
}

func mergeCounts(dst, src map[string]int64) map[string]int64 {
	if len(src) == 0 {
		return dst
	}

	if dst == nil {
		dst = make(map[string]int64, len(src))
	}

	for key, count := range src {
		dst[key] += count
	}

	return dst
}
