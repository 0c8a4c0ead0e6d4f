package analytics

import "sort"

type ActiveCounts struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

type StreakDistribution struct {
	OneToThree      int `json:"1-3"`
	FourToSeven     int `json:"4-7"`
	EightToFourteen int `json:"8-14"`
	FifteenPlus     int `json:"15+"`
}

type CompletionRate struct {
	OutcomeTally
	SolveRate   int `json:"solveRate"`
	PerfectRate int `json:"perfectRate"`
}

type BonusStats struct {
	TotalPlayed       int      `json:"totalPlayed"`
	TotalSolved       int      `json:"totalSolved"`
	UsersWithBonus    int      `json:"usersWithBonus"`
	ParticipationRate int      `json:"participationRate"`
	CompletionRate    int      `json:"completionRate"`
	AverageTime       float64  `json:"averageTime"`
	FastestTime       *float64 `json:"fastestTime"`
}

type AggregateMetrics struct {
	TotalUsers         int                           `json:"totalUsers"`
	Active             ActiveCounts                  `json:"active"`
	Stickiness         ActiveCounts                  `json:"stickiness"`
	NewUsers           ActiveCounts                  `json:"newUsers"`
	StreakDistribution StreakDistribution            `json:"streakDistribution"`
	CompletionRates    map[Difficulty]CompletionRate `json:"completionRates"`
	TotalPuzzlesPlayed int                           `json:"totalPuzzlesPlayed"`
	TotalPuzzlesSolved int                           `json:"totalPuzzlesSolved"`
	TotalPerfect       int                           `json:"totalPerfect"`
	OverallSolveRate   int                           `json:"overallSolveRate"`
	AverageScore       float64                       `json:"averageScore"`
	AverageMaxStreak   float64                       `json:"averageMaxStreak"`
	Bonus              BonusStats                    `json:"bonus"`
	Leaderboard        []LeaderboardEntry            `json:"leaderboard"`
}

const (
	weekWindowDays  = 7
	monthWindowDays = 30
	leaderboardSize = 10
)

// AggregateMetrics rolls every player record up into headline counts.
func (e *Engine) AggregateMetrics(ds *Dataset) AggregateMetrics {
	m := AggregateMetrics{
		TotalUsers:      len(ds.Players),
		CompletionRates: make(map[Difficulty]CompletionRate, len(Difficulties)),
		Leaderboard:     []LeaderboardEntry{},
	}

	today := e.Today()
	weekStart := e.daysAgoKey(weekWindowDays - 1)
	monthStart := e.daysAgoKey(monthWindowDays - 1)

	tiers := make(map[Difficulty]OutcomeTally, len(Difficulties))
	var bonusTime float64
	var bonusTimed int
	var fastest minTracker
	var scoreSum, maxStreakSum float64

	for i, p := range ds.Players {
		a := ds.Activity[i]

		if a.ActiveBetween(today, today) {
			m.Active.Daily++
		}
		if a.ActiveBetween(weekStart, today) {
			m.Active.Weekly++
		}
		if a.ActiveBetween(monthStart, today) {
			m.Active.Monthly++
		}

		if s := a.SignupDate; s != "" && s <= today {
			if s == today {
				m.NewUsers.Daily++
			}
			if s >= weekStart {
				m.NewUsers.Weekly++
			}
			if s >= monthStart {
				m.NewUsers.Monthly++
			}
		}

		switch s := p.CurrentStreak; {
		case s >= 15:
			m.StreakDistribution.FifteenPlus++
		case s >= 8:
			m.StreakDistribution.EightToFourteen++
		case s >= 4:
			m.StreakDistribution.FourToSeven++
		case s >= 1:
			m.StreakDistribution.OneToThree++
		}

		for _, diff := range Difficulties {
			t := a.Tiers[diff]
			sum := tiers[diff]
			sum.Attempted += t.Attempted
			sum.Solved += t.Solved
			sum.Perfect += t.Perfect
			tiers[diff] = sum
		}

		if a.HasBonus() {
			m.Bonus.UsersWithBonus++
			m.Bonus.TotalPlayed += a.Bonus.Attempted
			m.Bonus.TotalSolved += a.Bonus.Solved
		}
		for _, t := range a.BonusTimes {
			bonusTime += t
			bonusTimed++
			fastest.Observe(t)
		}

		scoreSum += float64(p.TotalScore)
		maxStreakSum += float64(p.MaxStreak)
	}

	for _, diff := range Difficulties {
		t := tiers[diff]
		m.CompletionRates[diff] = CompletionRate{
			OutcomeTally: t,
			SolveRate:    percent(t.Solved, t.Attempted),
			PerfectRate:  percent(t.Perfect, t.Attempted),
		}
		m.TotalPuzzlesPlayed += t.Attempted
		m.TotalPuzzlesSolved += t.Solved
		m.TotalPerfect += t.Perfect
	}
	m.OverallSolveRate = percent(m.TotalPuzzlesSolved, m.TotalPuzzlesPlayed)

	m.Stickiness = ActiveCounts{
		Daily:   percent(m.Active.Daily, m.TotalUsers),
		Weekly:  percent(m.Active.Weekly, m.TotalUsers),
		Monthly: percent(m.Active.Monthly, m.TotalUsers),
	}
	m.AverageScore = mean(scoreSum, m.TotalUsers)
	m.AverageMaxStreak = mean(maxStreakSum, m.TotalUsers)

	m.Bonus.ParticipationRate = percent(m.Bonus.UsersWithBonus, m.TotalUsers)
	m.Bonus.CompletionRate = percent(m.Bonus.TotalSolved, m.Bonus.TotalPlayed)
	m.Bonus.AverageTime = mean(bonusTime, bonusTimed)
	m.Bonus.FastestTime = fastest.Value()

	m.Leaderboard = scoreLeaderboard(ds.Players, leaderboardSize)
	return m
}

// scoreLeaderboard ranks players by total score, ties broken by id.
func scoreLeaderboard(players []PlayerRecord, limit int) []LeaderboardEntry {
	ranked := make([]PlayerRecord, 0, len(players))
	for _, p := range players {
		if p.TotalScore > 0 {
			ranked = append(ranked, p)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	entries := make([]LeaderboardEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, LeaderboardEntry{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Value:       p.TotalScore,
			Rank:        i + 1,
		})
	}
	return entries
}
