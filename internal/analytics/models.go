package analytics

type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyHard       Difficulty = "hard"
	DifficultyImpossible Difficulty = "impossible"
	DifficultyBonus      Difficulty = "bonus"
)

// Difficulties lists the three daily tiers in display order. Bonus is tracked separately.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyHard, DifficultyImpossible}

func (d Difficulty) valid() bool {
	switch d {
	case DifficultyEasy, DifficultyHard, DifficultyImpossible, DifficultyBonus:
		return true
	}
	return false
}

type AttemptOutcome struct {
	Solved      bool     `json:"solved"`
	TriesUsed   int      `json:"triesUsed"`
	TimeSeconds *float64 `json:"timeSeconds,omitempty"`
}

// Perfect reports a solve on the first try.
func (o AttemptOutcome) Perfect() bool {
	return o.Solved && o.TriesUsed == 1
}

// DayResult holds one player's outcomes for one calendar day. A nil entry means
// the tier was not attempted.
type DayResult struct {
	Easy       *AttemptOutcome `json:"easy,omitempty"`
	Hard       *AttemptOutcome `json:"hard,omitempty"`
	Impossible *AttemptOutcome `json:"impossible,omitempty"`
	Bonus      *AttemptOutcome `json:"bonus,omitempty"`
}

func (d DayResult) Outcome(diff Difficulty) *AttemptOutcome {
	switch diff {
	case DifficultyEasy:
		return d.Easy
	case DifficultyHard:
		return d.Hard
	case DifficultyImpossible:
		return d.Impossible
	case DifficultyBonus:
		return d.Bonus
	}
	return nil
}

// Empty reports whether no tier was attempted, which counts as no activity.
func (d DayResult) Empty() bool {
	return d.Easy == nil && d.Hard == nil && d.Impossible == nil && d.Bonus == nil
}

type PlayerRecord struct {
	ID            string               `json:"id"`
	Email         string               `json:"email,omitempty"`
	DisplayName   string               `json:"displayName,omitempty"`
	CreatedAt     string               `json:"createdAt,omitempty"`
	TotalScore    int                  `json:"totalScore"`
	CurrentStreak int                  `json:"currentStreak"`
	MaxStreak     int                  `json:"maxStreak"`
	DailyResults  map[string]DayResult `json:"dailyResults"`
}

type TimeRange string

const (
	RangeToday  TimeRange = "today"
	Range7Days  TimeRange = "7days"
	Range14Days TimeRange = "14days"
	Range28Days TimeRange = "28days"
	RangeAll    TimeRange = "all"
)

// ParseTimeRange maps a selector to a TimeRange, defaulting to RangeAll.
func ParseTimeRange(s string) TimeRange {
	switch r := TimeRange(s); r {
	case RangeToday, Range7Days, Range14Days, Range28Days, RangeAll:
		return r
	}
	return RangeAll
}

// Days returns the fixed window length, or 0 for RangeAll.
func (r TimeRange) Days() int {
	switch r {
	case RangeToday:
		return 1
	case Range7Days:
		return 7
	case Range14Days:
		return 14
	case Range28Days:
		return 28
	}
	return 0
}

type UserFilter string

const (
	FilterAll       UserFilter = "all"
	FilterSignedUp  UserFilter = "signedUp"
	FilterAnonymous UserFilter = "anonymous"
)

// ParseUserFilter maps a selector to a UserFilter, defaulting to FilterAll.
func ParseUserFilter(s string) UserFilter {
	switch f := UserFilter(s); f {
	case FilterAll, FilterSignedUp, FilterAnonymous:
		return f
	}
	return FilterAll
}

func (f UserFilter) keeps(converted bool) bool {
	switch f {
	case FilterSignedUp:
		return converted
	case FilterAnonymous:
		return !converted
	}
	return true
}

// Scorer returns an estimated score for a visitor's puzzle activity.
type Scorer func(v VisitorActivity) int

type LeaderboardEntry struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Value       int    `json:"value"`
	Rank        int    `json:"rank"`
}
