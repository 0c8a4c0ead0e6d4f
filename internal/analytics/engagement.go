package analytics

type EngagementMetrics struct {
	Range                  TimeRange `json:"range"`
	PuzzlesCompleted       int       `json:"puzzlesCompleted"`
	PuzzlesSolved          int       `json:"puzzlesSolved"`
	ExplanationViews       int       `json:"explanationViews"`
	ExplanationViewRate    int       `json:"explanationViewRate"`
	CompletedDays          int       `json:"completedDays"`
	BonusRoundsStarted     int       `json:"bonusRoundsStarted"`
	BonusParticipationRate int       `json:"bonusParticipationRate"`
	ArchivePuzzlesStarted  int       `json:"archivePuzzlesStarted"`
	ActivePlayers          int       `json:"activePlayers"`
	AvgPuzzlesPerPlayer    float64   `json:"avgPuzzlesPerPlayer"`
}

type visitorDay struct {
	visitor, date string
}

// Engagement reports how deep players go into a day inside r. The explanation
// rate is a ratio of event counts, not a per-visitor join.
func (e *Engine) Engagement(ds *Dataset, r TimeRange) EngagementMetrics {
	r = ParseTimeRange(string(r))
	m := EngagementMetrics{Range: r}

	tiers := make(map[visitorDay]map[Difficulty]bool)
	players := make(map[string]bool)

	for _, ev := range ds.Events {
		if !e.InRange(ev.Date, r) {
			continue
		}
		switch p := ev.Payload.(type) {
		case PuzzleCompleted:
			m.PuzzlesCompleted++
			players[ev.VisitorID] = true
			if p.Solved {
				m.PuzzlesSolved++
			}
			if p.Difficulty == DifficultyBonus || !p.Difficulty.valid() {
				continue
			}
			k := visitorDay{ev.VisitorID, ev.Date}
			if tiers[k] == nil {
				tiers[k] = make(map[Difficulty]bool, len(Difficulties))
			}
			tiers[k][p.Difficulty] = true
		case ExplanationViewed:
			m.ExplanationViews++
		case BonusRoundStarted:
			m.BonusRoundsStarted++
		case ArchivePuzzleStarted:
			m.ArchivePuzzlesStarted++
		}
	}

	for _, done := range tiers {
		if len(done) == len(Difficulties) {
			m.CompletedDays++
		}
	}

	m.ActivePlayers = len(players)
	m.ExplanationViewRate = percent(m.ExplanationViews, m.PuzzlesSolved)
	m.BonusParticipationRate = percent(m.BonusRoundsStarted, m.CompletedDays)
	m.AvgPuzzlesPerPlayer = mean(float64(m.PuzzlesCompleted), m.ActivePlayers)
	return m
}
