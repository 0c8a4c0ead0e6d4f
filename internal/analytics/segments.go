package analytics

import (
	"sort"
	"time"
)

type EngagementTiers struct {
	One       int `json:"1"`
	TwoToFive int `json:"2-5"`
	SixPlus   int `json:"6+"`
}

type ScoreBucket struct {
	Threshold int `json:"threshold"`
	Count     int `json:"count"`
}

type AllActivity struct {
	TotalVisitors     int               `json:"totalVisitors"`
	ConvertedVisitors int               `json:"convertedVisitors"`
	ConversionRate    int               `json:"conversionRate"`
	Visitors          []VisitorActivity `json:"visitors"`
}

type AnonymousSegmentation struct {
	TotalVisitors              int               `json:"totalVisitors"`
	TotalPuzzlesStarted        int               `json:"totalPuzzlesStarted"`
	TotalPuzzlesPlayed         int               `json:"totalPuzzlesPlayed"`
	TotalPuzzlesSolved         int               `json:"totalPuzzlesSolved"`
	SolveRate                  int               `json:"solveRate"`
	AvgPuzzlesPerVisitor       float64           `json:"avgPuzzlesPerVisitor"`
	EngagementTiers            EngagementTiers   `json:"engagementTiers"`
	Active                     ActiveCounts      `json:"active"`
	PowerUsers                 []VisitorActivity `json:"powerUsers"`
	AvgPuzzlesForNonConverters float64           `json:"avgPuzzlesForNonConverters"`
	CommittedNonConverters     int               `json:"committedNonConverters"`
	ScoreDistribution          []ScoreBucket     `json:"scoreDistribution"`
	HighScorers                []VisitorActivity `json:"highScorers"`
	AllActivity                AllActivity       `json:"allActivity"`
}

const (
	powerUserMinPuzzles = 5
	committedMinPuzzles = 3
	scoreBucketStep     = 1000
	scoreBucketMax      = 10000
	highScorerLimit     = 10
)

// AnonymousSegmentation splits lifetime anonymous activity into visitors who
// never signed up and those who did. Only events recorded while anonymous are
// tallied; any visitor with a signup anywhere in the log is kept out of the
// unconverted figures. score may be nil, in which case every score is zero.
func (e *Engine) AnonymousSegmentation(ds *Dataset, score Scorer) AnonymousSegmentation {
	s := AnonymousSegmentation{
		PowerUsers:  []VisitorActivity{},
		HighScorers: []VisitorActivity{},
		AllActivity: AllActivity{Visitors: []VisitorActivity{}},
	}

	midnight := e.midnight()
	weekStart := midnight.AddDate(0, 0, -(weekWindowDays - 1))
	monthStart := midnight.AddDate(0, 0, -(monthWindowDays - 1))

	var unconverted []VisitorActivity
	var committedSum float64

	for _, v := range ds.Visitors.Visitors() {
		act := v.Anonymous
		if act.PuzzlesPlayed == 0 {
			continue
		}
		if score != nil {
			act.EstimatedScore = score(act)
		}

		s.AllActivity.Visitors = append(s.AllActivity.Visitors, act)
		if v.Converted {
			s.AllActivity.ConvertedVisitors++
			continue
		}
		unconverted = append(unconverted, act)

		s.TotalPuzzlesStarted += act.PuzzlesStarted
		s.TotalPuzzlesPlayed += act.PuzzlesPlayed
		s.TotalPuzzlesSolved += act.PuzzlesSolved

		switch n := act.PuzzlesPlayed; {
		case n == 1:
			s.EngagementTiers.One++
		case n <= 5:
			s.EngagementTiers.TwoToFive++
		default:
			s.EngagementTiers.SixPlus++
		}

		if lastSeenWithin(v, midnight) {
			s.Active.Daily++
		}
		if lastSeenWithin(v, weekStart) {
			s.Active.Weekly++
		}
		if lastSeenWithin(v, monthStart) {
			s.Active.Monthly++
		}

		if act.PuzzlesPlayed >= powerUserMinPuzzles {
			s.PowerUsers = append(s.PowerUsers, act)
		}
		if act.PuzzlesPlayed >= committedMinPuzzles {
			committedSum += float64(act.PuzzlesPlayed)
			s.CommittedNonConverters++
		}
	}

	s.TotalVisitors = len(unconverted)
	s.SolveRate = percent(s.TotalPuzzlesSolved, s.TotalPuzzlesPlayed)
	s.AvgPuzzlesPerVisitor = mean(float64(s.TotalPuzzlesPlayed), s.TotalVisitors)
	s.AvgPuzzlesForNonConverters = mean(committedSum, s.CommittedNonConverters)

	sortByPlayed(s.PowerUsers)
	sortByPlayed(s.AllActivity.Visitors)
	s.AllActivity.TotalVisitors = len(s.AllActivity.Visitors)
	s.AllActivity.ConversionRate = percent(s.AllActivity.ConvertedVisitors, s.AllActivity.TotalVisitors)

	s.ScoreDistribution = scoreDistribution(unconverted)
	s.HighScorers = highScorers(unconverted, highScorerLimit)
	return s
}

func sortByPlayed(list []VisitorActivity) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PuzzlesPlayed != list[j].PuzzlesPlayed {
			return list[i].PuzzlesPlayed > list[j].PuzzlesPlayed
		}
		return list[i].VisitorID < list[j].VisitorID
	})
}

// scoreDistribution counts each visitor once for every threshold reached.
func scoreDistribution(visitors []VisitorActivity) []ScoreBucket {
	buckets := make([]ScoreBucket, 0, scoreBucketMax/scoreBucketStep)
	for t := scoreBucketStep; t <= scoreBucketMax; t += scoreBucketStep {
		buckets = append(buckets, ScoreBucket{Threshold: t})
	}
	for _, v := range visitors {
		for i := range buckets {
			if v.EstimatedScore >= buckets[i].Threshold {
				buckets[i].Count++
			}
		}
	}
	return buckets
}

func highScorers(visitors []VisitorActivity, limit int) []VisitorActivity {
	out := make([]VisitorActivity, 0, len(visitors))
	for _, v := range visitors {
		if v.EstimatedScore > 0 {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EstimatedScore != out[j].EstimatedScore {
			return out[i].EstimatedScore > out[j].EstimatedScore
		}
		return out[i].VisitorID < out[j].VisitorID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func lastSeenWithin(v *VisitorSummary, since time.Time) bool {
	return v.HasSeen && !v.LastSeen.Before(since)
}
