package analytics

import (
	"sort"
	"time"
)

type ArchiveAgeBuckets struct {
	OneToSeven      int `json:"1-7"`
	EightToFourteen int `json:"8-14"`
	FifteenToThirty int `json:"15-30"`
	ThirtyPlus      int `json:"30+"`
}

func (b *ArchiveAgeBuckets) add(daysAgo int) {
	switch {
	case daysAgo <= 7:
		b.OneToSeven++
	case daysAgo <= 14:
		b.EightToFourteen++
	case daysAgo <= 30:
		b.FifteenToThirty++
	default:
		b.ThirtyPlus++
	}
}

type ArchiveUsage struct {
	Plays        int                `json:"plays"`
	Players      int                `json:"players"`
	DaysAgo      ArchiveAgeBuckets  `json:"daysAgo"`
	ByDifficulty map[Difficulty]int `json:"byDifficulty"`
}

type ThemeUsage struct {
	Toggles     int            `json:"toggles"`
	Visitors    int            `json:"visitors"`
	Preferences map[string]int `json:"preferences"`
}

type BadgeStat struct {
	BadgeID string `json:"badgeId"`
	Views   int    `json:"views"`
	Unlocks int    `json:"unlocks"`
}

type BadgeUsage struct {
	Views              int         `json:"views"`
	UnlockedViews      int         `json:"unlockedViews"`
	LockedViews        int         `json:"lockedViews"`
	Unlocks            int         `json:"unlocks"`
	Viewers            int         `json:"viewers"`
	Unlockers          int         `json:"unlockers"`
	ViewersWhoUnlocked int         `json:"viewersWhoUnlocked"`
	ViewerUnlockRate   int         `json:"viewerUnlockRate"`
	Badges             []BadgeStat `json:"badges"`
}

type FeatureUsage struct {
	Archive            ArchiveUsage `json:"archive"`
	Theme              ThemeUsage   `json:"theme"`
	Badges             BadgeUsage   `json:"badges"`
	BonusRoundsStarted int          `json:"bonusRoundsStarted"`
	ExplanationViews   int          `json:"explanationViews"`
	ShareClicks        int          `json:"shareClicks"`
}

type themeChoice struct {
	theme string
	at    time.Time
	timed bool
}

// FeatureUsage covers the archive, theme switcher and badge case over the whole
// event log. A visitor's theme is the one from their latest theme change.
func (e *Engine) FeatureUsage(ds *Dataset) FeatureUsage {
	f := FeatureUsage{
		Archive: ArchiveUsage{ByDifficulty: make(map[Difficulty]int)},
		Theme:   ThemeUsage{Preferences: make(map[string]int)},
		Badges:  BadgeUsage{Badges: []BadgeStat{}},
	}

	archivePlayers := make(map[string]bool)
	themes := make(map[string]themeChoice)
	viewers := make(map[string]bool)
	unlockers := make(map[string]bool)
	badges := make(map[string]*BadgeStat)
	badge := func(id string) *BadgeStat {
		b, ok := badges[id]
		if !ok {
			b = &BadgeStat{BadgeID: id}
			badges[id] = b
		}
		return b
	}

	for _, ev := range ds.Events {
		switch p := ev.Payload.(type) {
		case ArchivePuzzleStarted:
			f.Archive.Plays++
			archivePlayers[ev.VisitorID] = true
			if p.Difficulty != "" {
				f.Archive.ByDifficulty[p.Difficulty]++
			}
			if p.DaysAgo != nil && *p.DaysAgo > 0 {
				f.Archive.DaysAgo.add(*p.DaysAgo)
			}
		case ThemeChanged:
			f.Theme.Toggles++
			if p.NewTheme == "" {
				continue
			}
			c := themeChoice{theme: p.NewTheme}
			c.at, c.timed = e.eventTime(ev)
			if prev, ok := themes[ev.VisitorID]; !ok || !c.timed || !prev.timed || !c.at.Before(prev.at) {
				themes[ev.VisitorID] = c
			}
		case BadgeViewed:
			f.Badges.Views++
			if p.WasUnlocked {
				f.Badges.UnlockedViews++
			} else {
				f.Badges.LockedViews++
			}
			viewers[ev.VisitorID] = true
			if p.BadgeID != "" {
				badge(p.BadgeID).Views++
			}
		case BadgeUnlocked:
			f.Badges.Unlocks++
			unlockers[ev.VisitorID] = true
			if p.BadgeID != "" {
				badge(p.BadgeID).Unlocks++
			}
		case BonusRoundStarted:
			f.BonusRoundsStarted++
		case ExplanationViewed:
			f.ExplanationViews++
		case ShareClicked:
			f.ShareClicks++
		}
	}

	f.Archive.Players = len(archivePlayers)

	f.Theme.Visitors = len(themes)
	for _, c := range themes {
		f.Theme.Preferences[c.theme]++
	}

	f.Badges.Viewers = len(viewers)
	f.Badges.Unlockers = len(unlockers)
	for id := range viewers {
		if unlockers[id] {
			f.Badges.ViewersWhoUnlocked++
		}
	}
	f.Badges.ViewerUnlockRate = percent(f.Badges.ViewersWhoUnlocked, f.Badges.Viewers)
	for _, b := range badges {
		f.Badges.Badges = append(f.Badges.Badges, *b)
	}
	sort.Slice(f.Badges.Badges, func(i, j int) bool {
		a, b := f.Badges.Badges[i], f.Badges.Badges[j]
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		return a.BadgeID < b.BadgeID
	})
	return f
}

// eventTime orders events by timestamp, falling back to their date-key.
func (e *Engine) eventTime(ev AnalyticsEvent) (time.Time, bool) {
	if t, ok := e.parseTimestamp(ev.Timestamp); ok {
		return t, true
	}
	return e.parseKey(ev.Date)
}
