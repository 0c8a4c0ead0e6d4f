package analytics

import "sort"

// trackedDifficulties is every tier an event can carry, bonus last.
var trackedDifficulties = []Difficulty{DifficultyEasy, DifficultyHard, DifficultyImpossible, DifficultyBonus}

type PuzzleStats struct {
	Key         string     `json:"key"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Completions int        `json:"completions"`
	Solved      int        `json:"solved"`
	SolveRate   int        `json:"solveRate"`
	AvgMoves    float64    `json:"avgMoves"`
	AvgTime     float64    `json:"avgTime"`
}

type RankedPuzzle struct {
	PuzzleStats
	Score float64 `json:"score"`
}

type PuzzleQuality struct {
	Range        TimeRange      `json:"range"`
	ByDifficulty []PuzzleStats  `json:"byDifficulty"`
	ByPuzzle     []PuzzleStats  `json:"byPuzzle"`
	Struggle     []RankedPuzzle `json:"struggle"`
	Satisfying   []RankedPuzzle `json:"satisfying"`
}

const (
	minRankedCompletions = 3
	rankingSize          = 5
	satisfyingMinSolve   = 70
	struggleMoveWeight   = 5
	satisfyMoveWeight    = 3
)

type qualityTally struct {
	difficulty  Difficulty
	completions int
	solved      int
	moves       float64
	movesN      int
	time        float64
	timeN       int
}

func (t *qualityTally) add(p PuzzleCompleted) {
	t.completions++
	if p.Solved {
		t.solved++
	}
	if p.MovesCount != nil && *p.MovesCount > 0 {
		t.moves += float64(*p.MovesCount)
		t.movesN++
	}
	if finite(p.TimeSpentSeconds) && *p.TimeSpentSeconds >= 0 {
		t.time += *p.TimeSpentSeconds
		t.timeN++
	}
}

func (t *qualityTally) stats(key string) PuzzleStats {
	return PuzzleStats{
		Key:         key,
		Difficulty:  t.difficulty,
		Completions: t.completions,
		Solved:      t.solved,
		SolveRate:   percent(t.solved, t.completions),
		AvgMoves:    mean(t.moves, t.movesN),
		AvgTime:     mean(t.time, t.timeN),
	}
}

// PuzzleQuality summarizes completed puzzles inside r by difficulty and by
// puzzle id, and ranks the puzzles players struggled with or enjoyed.
func (e *Engine) PuzzleQuality(ds *Dataset, r TimeRange) PuzzleQuality {
	r = ParseTimeRange(string(r))
	q := PuzzleQuality{
		Range:      r,
		ByPuzzle:   []PuzzleStats{},
		Struggle:   []RankedPuzzle{},
		Satisfying: []RankedPuzzle{},
	}

	byDiff := make(map[Difficulty]*qualityTally, len(trackedDifficulties))
	for _, d := range trackedDifficulties {
		byDiff[d] = &qualityTally{difficulty: d}
	}
	byPuzzle := make(map[string]*qualityTally)

	for _, ev := range ds.Events {
		p, ok := ev.Payload.(PuzzleCompleted)
		if !ok || !e.InRange(ev.Date, r) {
			continue
		}
		if t, ok := byDiff[p.Difficulty]; ok {
			t.add(p)
		}
		if p.PuzzleID == "" {
			continue
		}
		t, ok := byPuzzle[p.PuzzleID]
		if !ok {
			t = &qualityTally{difficulty: p.Difficulty}
			byPuzzle[p.PuzzleID] = t
		}
		t.add(p)
	}

	for _, d := range trackedDifficulties {
		q.ByDifficulty = append(q.ByDifficulty, byDiff[d].stats(string(d)))
	}

	var ranked []PuzzleStats
	for id, t := range byPuzzle {
		s := t.stats(id)
		q.ByPuzzle = append(q.ByPuzzle, s)
		if s.Completions >= minRankedCompletions {
			ranked = append(ranked, s)
		}
	}
	sort.Slice(q.ByPuzzle, func(i, j int) bool {
		if q.ByPuzzle[i].Completions != q.ByPuzzle[j].Completions {
			return q.ByPuzzle[i].Completions > q.ByPuzzle[j].Completions
		}
		return q.ByPuzzle[i].Key < q.ByPuzzle[j].Key
	})

	for _, s := range ranked {
		q.Struggle = append(q.Struggle, RankedPuzzle{
			PuzzleStats: s,
			Score:       round1(float64(100-s.SolveRate) + s.AvgMoves*struggleMoveWeight),
		})
		if s.SolveRate >= satisfyingMinSolve {
			q.Satisfying = append(q.Satisfying, RankedPuzzle{
				PuzzleStats: s,
				Score:       round1(float64(s.SolveRate) - s.AvgMoves*satisfyMoveWeight),
			})
		}
	}
	q.Struggle = topRanked(q.Struggle, rankingSize)
	q.Satisfying = topRanked(q.Satisfying, rankingSize)
	return q
}

func topRanked(list []RankedPuzzle, limit int) []RankedPuzzle {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].Key < list[j].Key
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
