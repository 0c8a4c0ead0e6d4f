package analytics

type WinRateCell struct {
	Played  int `json:"played"`
	Solved  int `json:"solved"`
	WinRate int `json:"winRate"`
}

type WinRatePoint struct {
	Date         string                     `json:"date"`
	Label        string                     `json:"label"`
	Played       int                        `json:"played"`
	Solved       int                        `json:"solved"`
	WinRate      int                        `json:"winRate"`
	ByDifficulty map[Difficulty]WinRateCell `json:"byDifficulty"`
}

type WinRateTrend struct {
	Range  TimeRange      `json:"range"`
	Filter UserFilter     `json:"filter"`
	Points []WinRatePoint `json:"points"`
}

type EngagementPoint struct {
	Date             string  `json:"date"`
	Label            string  `json:"label"`
	Visitors         int     `json:"visitors"`
	PuzzlePlayers    int     `json:"puzzlePlayers"`
	PuzzlesStarted   int     `json:"puzzlesStarted"`
	PuzzlesCompleted int     `json:"puzzlesCompleted"`
	Signups          int     `json:"signups"`
	Shares           int     `json:"shares"`
	AvgPuzzles       float64 `json:"avgPuzzles"`
}

type EngagementTrend struct {
	Range  TimeRange         `json:"range"`
	Filter UserFilter        `json:"filter"`
	Points []EngagementPoint `json:"points"`
}

type ActivityPoint struct {
	Date          string `json:"date"`
	Label         string `json:"label"`
	ActivePlayers int    `json:"activePlayers"`
	NewPlayers    int    `json:"newPlayers"`
	PuzzlesPlayed int    `json:"puzzlesPlayed"`
	PuzzlesSolved int    `json:"puzzlesSolved"`
}

type ActivityTrend struct {
	Range  TimeRange       `json:"range"`
	Points []ActivityPoint `json:"points"`
}

// bucketIndex maps each bucket key to its position in the series.
func bucketIndex(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

// WinRateTrend reports the daily solve rate of completed puzzles, overall and
// per tier. Days without completions stay in the series with zero values.
func (e *Engine) WinRateTrend(ds *Dataset, r TimeRange, filter UserFilter) WinRateTrend {
	r = ParseTimeRange(string(r))
	filter = ParseUserFilter(string(filter))

	keys := e.BucketDates(r, ds.EarliestEventDate())
	idx := bucketIndex(keys)
	points := make([]WinRatePoint, len(keys))
	for i, k := range keys {
		points[i] = WinRatePoint{
			Date:         k,
			Label:        e.DateLabel(k),
			ByDifficulty: make(map[Difficulty]WinRateCell, len(trackedDifficulties)),
		}
		for _, d := range trackedDifficulties {
			points[i].ByDifficulty[d] = WinRateCell{}
		}
	}

	for _, ev := range ds.Events {
		p, ok := ev.Payload.(PuzzleCompleted)
		if !ok {
			continue
		}
		i, ok := idx[ev.Date]
		if !ok || !filter.keeps(ds.Visitors.Converted(ev.VisitorID)) {
			continue
		}
		pt := &points[i]
		pt.Played++
		if p.Solved {
			pt.Solved++
		}
		if c, ok := pt.ByDifficulty[p.Difficulty]; ok {
			c.Played++
			if p.Solved {
				c.Solved++
			}
			pt.ByDifficulty[p.Difficulty] = c
		}
	}

	for i := range points {
		pt := &points[i]
		pt.WinRate = percent(pt.Solved, pt.Played)
		for d, c := range pt.ByDifficulty {
			c.WinRate = percent(c.Solved, c.Played)
			pt.ByDifficulty[d] = c
		}
	}
	return WinRateTrend{Range: r, Filter: filter, Points: points}
}

// EngagementTrend reports daily funnel activity for the visitors kept by filter.
func (e *Engine) EngagementTrend(ds *Dataset, r TimeRange, filter UserFilter) EngagementTrend {
	r = ParseTimeRange(string(r))
	filter = ParseUserFilter(string(filter))

	keys := e.BucketDates(r, ds.EarliestEventDate())
	idx := bucketIndex(keys)
	points := make([]EngagementPoint, len(keys))
	visitors := make([]map[string]bool, len(keys))
	players := make([]map[string]bool, len(keys))
	for i, k := range keys {
		points[i] = EngagementPoint{Date: k, Label: e.DateLabel(k)}
		visitors[i] = make(map[string]bool)
		players[i] = make(map[string]bool)
	}

	for _, ev := range ds.Events {
		i, ok := idx[ev.Date]
		if !ok || !filter.keeps(ds.Visitors.Converted(ev.VisitorID)) {
			continue
		}
		pt := &points[i]
		visitors[i][ev.VisitorID] = true
		switch ev.Payload.(type) {
		case PuzzleStarted:
			pt.PuzzlesStarted++
			players[i][ev.VisitorID] = true
		case PuzzleCompleted:
			pt.PuzzlesCompleted++
			players[i][ev.VisitorID] = true
		case SignupCompleted:
			pt.Signups++
		case ShareClicked:
			pt.Shares++
		}
	}

	for i := range points {
		points[i].Visitors = len(visitors[i])
		points[i].PuzzlePlayers = len(players[i])
		points[i].AvgPuzzles = mean(float64(points[i].PuzzlesCompleted), points[i].PuzzlePlayers)
	}
	return EngagementTrend{Range: r, Filter: filter, Points: points}
}

// ActivityTrend is the per-day player summary built from saved games rather
// than events: active players, signups and puzzles played.
func (e *Engine) ActivityTrend(ds *Dataset, r TimeRange) ActivityTrend {
	r = ParseTimeRange(string(r))

	keys := e.BucketDates(r, ds.EarliestPlayerDate())
	idx := bucketIndex(keys)
	points := make([]ActivityPoint, len(keys))
	for i, k := range keys {
		points[i] = ActivityPoint{Date: k, Label: e.DateLabel(k)}
	}

	for n, p := range ds.Players {
		a := ds.Activity[n]
		if i, ok := idx[a.SignupDate]; ok {
			points[i].NewPlayers++
		}
		for _, key := range a.ActiveDates {
			i, ok := idx[key]
			if !ok {
				continue
			}
			points[i].ActivePlayers++
			day := p.DailyResults[key]
			for _, d := range trackedDifficulties {
				if o := day.Outcome(d); o != nil {
					points[i].PuzzlesPlayed++
					if o.Solved {
						points[i].PuzzlesSolved++
					}
				}
			}
		}
	}
	return ActivityTrend{Range: r, Points: points}
}
