package analytics

import (
	"sort"
	"time"
)

type OutcomeTally struct {
	Attempted int `json:"attempted"`
	Solved    int `json:"solved"`
	Perfect   int `json:"perfect"`
}

func (t *OutcomeTally) add(o AttemptOutcome) {
	t.Attempted++
	if o.Solved {
		t.Solved++
	}
	if o.Perfect() {
		t.Perfect++
	}
}

// PlayerActivity is the normalized view of one PlayerRecord.
type PlayerActivity struct {
	PlayerID    string
	SignupDate  string
	ActiveDates []string
	Tiers       map[Difficulty]OutcomeTally
	Bonus       OutcomeTally
	BonusTimes  []float64
}

// ExtractActivity flattens a player's daily results. Days without any outcome
// and malformed date-keys are ignored.
func (e *Engine) ExtractActivity(p PlayerRecord) PlayerActivity {
	a := PlayerActivity{
		PlayerID: p.ID,
		Tiers:    make(map[Difficulty]OutcomeTally, len(Difficulties)),
	}
	keys := make([]string, 0, len(p.DailyResults))
	for key := range p.DailyResults {
		if validKey(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		day := p.DailyResults[key]
		if day.Empty() {
			continue
		}
		a.ActiveDates = append(a.ActiveDates, key)
		for _, diff := range Difficulties {
			if o := day.Outcome(diff); o != nil {
				t := a.Tiers[diff]
				t.add(*o)
				a.Tiers[diff] = t
			}
		}
		if day.Bonus != nil {
			a.Bonus.add(*day.Bonus)
			if finite(day.Bonus.TimeSeconds) && *day.Bonus.TimeSeconds > 0 {
				a.BonusTimes = append(a.BonusTimes, *day.Bonus.TimeSeconds)
			}
		}
	}

	a.SignupDate = e.signupDate(p, keys)
	return a
}

func (e *Engine) signupDate(p PlayerRecord, sortedKeys []string) string {
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, p.CreatedAt); err == nil {
			return t.In(e.loc).Format(dateKeyLayout)
		}
	}
	if len(sortedKeys) > 0 {
		return sortedKeys[0]
	}
	return ""
}

// ActiveBetween reports activity on any date-key in [from, to].
func (a PlayerActivity) ActiveBetween(from, to string) bool {
	i := sort.SearchStrings(a.ActiveDates, from)
	return i < len(a.ActiveDates) && a.ActiveDates[i] <= to
}

func (a PlayerActivity) HasBonus() bool {
	return a.Bonus.Attempted > 0
}
