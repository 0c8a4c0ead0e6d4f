package export

import (
	"strconv"

	"chainstats/internal/analytics"
	"chainstats/internal/dashboard"
)

// Metric is one scalar value of a snapshot in long form.
type Metric struct {
	Section string
	Name    string
	Value   string
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }

// Metrics flattens the scalar parts of a snapshot, section by section.
func Metrics(snap *dashboard.Snapshot) []Metric {
	var out []Metric
	add := func(section, name, value string) {
		out = append(out, Metric{Section: section, Name: name, Value: value})
	}

	add("snapshot", "id", snap.ID)
	add("snapshot", "range", string(snap.Params.Range))
	add("snapshot", "filter", string(snap.Params.Filter))
	add("snapshot", "players", itoa(snap.Players))
	add("snapshot", "events", itoa(snap.Events))

	o := snap.Overview
	add("overview", "totalUsers", itoa(o.TotalUsers))
	add("overview", "activeDaily", itoa(o.Active.Daily))
	add("overview", "activeWeekly", itoa(o.Active.Weekly))
	add("overview", "activeMonthly", itoa(o.Active.Monthly))
	add("overview", "newUsersWeekly", itoa(o.NewUsers.Weekly))
	add("overview", "totalPuzzlesPlayed", itoa(o.TotalPuzzlesPlayed))
	add("overview", "totalPuzzlesSolved", itoa(o.TotalPuzzlesSolved))
	add("overview", "totalPerfect", itoa(o.TotalPerfect))
	add("overview", "overallSolveRate", itoa(o.OverallSolveRate))
	add("overview", "averageScore", ftoa(o.AverageScore))
	add("overview", "averageMaxStreak", ftoa(o.AverageMaxStreak))
	for _, d := range analytics.Difficulties {
		c := o.CompletionRates[d]
		add("overview", string(d)+"SolveRate", itoa(c.SolveRate))
		add("overview", string(d)+"PerfectRate", itoa(c.PerfectRate))
	}
	add("overview", "bonusPlayed", itoa(o.Bonus.TotalPlayed))
	add("overview", "bonusParticipationRate", itoa(o.Bonus.ParticipationRate))
	if o.Bonus.FastestTime != nil {
		add("overview", "bonusFastestTime", ftoa(*o.Bonus.FastestTime))
	}

	f := snap.Funnel
	add("funnel", "uniqueVisitors", itoa(f.UniqueVisitors))
	add("funnel", "puzzlePlayers", itoa(f.PuzzlePlayers))
	add("funnel", "puzzlesStarted", itoa(f.PuzzlesStarted))
	add("funnel", "puzzlesCompleted", itoa(f.PuzzlesCompleted))
	add("funnel", "signupPromptsShown", itoa(f.SignupPromptsShown))
	add("funnel", "signupsCompleted", itoa(f.SignupsCompleted))
	add("funnel", "avgPuzzlesBeforeSignup", ftoa(f.AvgPuzzlesBeforeSignup))
	add("funnel", "visitorToPlayerRate", itoa(f.VisitorToPlayerRate))
	add("funnel", "completionRate", itoa(f.CompletionRate))
	add("funnel", "promptToSignupRate", itoa(f.PromptToSignupRate))
	add("funnel", "shareRate", itoa(f.ShareRate))

	a := snap.Anonymous
	add("anonymous", "totalVisitors", itoa(a.TotalVisitors))
	add("anonymous", "totalPuzzlesPlayed", itoa(a.TotalPuzzlesPlayed))
	add("anonymous", "solveRate", itoa(a.SolveRate))
	add("anonymous", "avgPuzzlesPerVisitor", ftoa(a.AvgPuzzlesPerVisitor))
	add("anonymous", "committedNonConverters", itoa(a.CommittedNonConverters))
	add("anonymous", "conversionRate", itoa(a.AllActivity.ConversionRate))

	r := snap.Retention
	add("retention", "players", itoa(r.Overall.Players))
	add("retention", "d1Retained", itoa(r.Overall.D1Retained))
	add("retention", "d7Retained", itoa(r.Overall.D7Retained))
	add("retention", "d28Retained", itoa(r.Overall.D28Retained))
	add("retention", "returnRate", itoa(r.ReturnRate))
	add("retention", "streakPlayers", itoa(r.StreakPlayers))

	e := snap.Engagement
	add("engagement", "completedDays", itoa(e.CompletedDays))
	add("engagement", "explanationViewRate", itoa(e.ExplanationViewRate))
	add("engagement", "bonusParticipationRate", itoa(e.BonusParticipationRate))
	add("engagement", "avgPuzzlesPerPlayer", ftoa(e.AvgPuzzlesPerPlayer))

	ft := snap.Features
	add("features", "archivePlays", itoa(ft.Archive.Plays))
	add("features", "themeToggles", itoa(ft.Theme.Toggles))
	add("features", "badgeViews", itoa(ft.Badges.Views))
	add("features", "badgeViewerUnlockRate", itoa(ft.Badges.ViewerUnlockRate))
	add("features", "shareClicks", itoa(ft.ShareClicks))
	return out
}

var cohortHeader = []string{"weekStart", "label", "newPlayers", "d1Retained", "d7Retained", "d28Retained"}

func cohortRow(c analytics.RetentionCohort) []string {
	return []string{c.WeekStart, c.Label, itoa(c.NewPlayers), itoa(c.D1Retained), itoa(c.D7Retained), itoa(c.D28Retained)}
}

var puzzleHeader = []string{"puzzle", "difficulty", "completions", "solved", "solveRate", "avgMoves", "avgTime"}

func puzzleRow(p analytics.PuzzleStats) []string {
	return []string{p.Key, string(p.Difficulty), itoa(p.Completions), itoa(p.Solved), itoa(p.SolveRate), ftoa(p.AvgMoves), ftoa(p.AvgTime)}
}

var trendHeader = []string{"date", "label", "played", "solved", "winRate", "visitors", "puzzlesCompleted", "signups", "shares"}

// trendRows joins the win-rate and engagement series, which share bucket dates.
func trendRows(snap *dashboard.Snapshot) [][]string {
	eng := make(map[string]analytics.EngagementPoint, len(snap.EngagementTrend.Points))
	for _, p := range snap.EngagementTrend.Points {
		eng[p.Date] = p
	}
	rows := make([][]string, 0, len(snap.WinRateTrend.Points))
	for _, w := range snap.WinRateTrend.Points {
		e := eng[w.Date]
		rows = append(rows, []string{
			w.Date, w.Label, itoa(w.Played), itoa(w.Solved), itoa(w.WinRate),
			itoa(e.Visitors), itoa(e.PuzzlesCompleted), itoa(e.Signups), itoa(e.Shares),
		})
	}
	return rows
}
