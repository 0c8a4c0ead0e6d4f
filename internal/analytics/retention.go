package analytics

import "sort"

type RetentionCounts struct {
	Players     int `json:"players"`
	D1Count     int `json:"d1Count"`
	D7Count     int `json:"d7Count"`
	D28Count    int `json:"d28Count"`
	D1Retained  int `json:"d1Retained"`
	D7Retained  int `json:"d7Retained"`
	D28Retained int `json:"d28Retained"`
}

func (c *RetentionCounts) add(r visitorReturn) {
	c.Players++
	if r.d1 {
		c.D1Count++
	}
	if r.d7 {
		c.D7Count++
	}
	if r.d28 {
		c.D28Count++
	}
}

func (c *RetentionCounts) finish() {
	c.D1Retained = percent(c.D1Count, c.Players)
	c.D7Retained = percent(c.D7Count, c.Players)
	c.D28Retained = percent(c.D28Count, c.Players)
}

type RetentionCohort struct {
	WeekStart  string `json:"weekStart"`
	Label      string `json:"label"`
	NewPlayers int    `json:"newPlayers"`
	RetentionCounts
}

type RetentionMetrics struct {
	Filter                 UserFilter        `json:"filter"`
	Cohorts                []RetentionCohort `json:"cohorts"`
	Overall                RetentionCounts   `json:"overall"`
	ReturningPlayers       int               `json:"returningPlayers"`
	ReturnRate             int               `json:"returnRate"`
	StreakPlayers          int               `json:"streakPlayers"`
	AvgPuzzlesBeforeReturn float64           `json:"avgPuzzlesBeforeReturn"`
}

const (
	maxCohorts     = 8
	streakMinDays  = 3
	d7WindowStart  = 2
	d7WindowEnd    = 7
	d28WindowStart = 8
	d28WindowEnd   = 28
)

type visitorReturn struct {
	d1, d7, d28 bool
}

// returnWindows checks the three disjoint return windows after the first
// completion: day 1, days 2-7 and days 8-28.
func returnWindows(dates []string) visitorReturn {
	var r visitorReturn
	if len(dates) == 0 {
		return r
	}
	first := dates[0]
	for _, d := range dates[1:] {
		n, ok := dayDiff(first, d)
		if !ok {
			continue
		}
		switch {
		case n == 1:
			r.d1 = true
		case n >= d7WindowStart && n <= d7WindowEnd:
			r.d7 = true
		case n >= d28WindowStart && n <= d28WindowEnd:
			r.d28 = true
		}
	}
	return r
}

// hasStreak reports any run of streakMinDays consecutive dates in a sorted,
// distinct list.
func hasStreak(dates []string) bool {
	for i := 0; i+streakMinDays-1 < len(dates); i++ {
		if n, ok := dayDiff(dates[i], dates[i+streakMinDays-1]); ok && n == streakMinDays-1 {
			return true
		}
	}
	return false
}

// Retention groups visitors into ISO-week cohorts by their first completed
// puzzle and measures how many came back. Cohorts are newest first.
func (e *Engine) Retention(ds *Dataset, filter UserFilter) RetentionMetrics {
	filter = ParseUserFilter(string(filter))
	m := RetentionMetrics{Filter: filter, Cohorts: []RetentionCohort{}}

	cohorts := make(map[string]*RetentionCohort)
	var firstDaySum float64

	for _, v := range ds.Visitors.Visitors() {
		if !filter.keeps(v.Converted) {
			continue
		}
		first := v.FirstCompletion()
		if first == "" {
			continue
		}

		ret := returnWindows(v.CompletionDates)
		m.Overall.add(ret)

		week := isoWeekStart(first)
		c, ok := cohorts[week]
		if !ok {
			c = &RetentionCohort{WeekStart: week, Label: "Week of " + e.DateLabel(week)}
			cohorts[week] = c
		}
		c.add(ret)

		if hasStreak(v.CompletionDates) {
			m.StreakPlayers++
		}
		if len(v.CompletionDates) >= 2 {
			m.ReturningPlayers++
			firstDaySum += float64(v.CompletionsByDate[first])
		}
	}

	m.Overall.finish()
	m.ReturnRate = percent(m.ReturningPlayers, m.Overall.Players)
	m.AvgPuzzlesBeforeReturn = mean(firstDaySum, m.ReturningPlayers)

	for _, c := range cohorts {
		c.NewPlayers = c.Players
		c.finish()
		m.Cohorts = append(m.Cohorts, *c)
	}
	sort.Slice(m.Cohorts, func(i, j int) bool {
		return m.Cohorts[i].WeekStart > m.Cohorts[j].WeekStart
	})
	if len(m.Cohorts) > maxCohorts {
		m.Cohorts = m.Cohorts[:maxCohorts]
	}
	return m
}
