package analytics

type SignupTimingDistribution struct {
	Zero        int `json:"0"`
	OneToTwo    int `json:"1-2"`
	ThreeToFive int `json:"3-5"`
	SixToTen    int `json:"6-10"`
	TenPlus     int `json:"10+"`
}

func (d *SignupTimingDistribution) add(n int) {
	switch {
	case n <= 0:
		d.Zero++
	case n <= 2:
		d.OneToTwo++
	case n <= 5:
		d.ThreeToFive++
	case n <= 10:
		d.SixToTen++
	default:
		d.TenPlus++
	}
}

type FunnelMetrics struct {
	Range                  TimeRange                `json:"range"`
	UniqueVisitors         int                      `json:"uniqueVisitors"`
	SessionsStarted        int                      `json:"sessionsStarted"`
	PuzzlePlayers          int                      `json:"puzzlePlayers"`
	PuzzlesStarted         int                      `json:"puzzlesStarted"`
	PuzzlesCompleted       int                      `json:"puzzlesCompleted"`
	SignupPromptsShown     int                      `json:"signupPromptsShown"`
	SignupsCompleted       int                      `json:"signupsCompleted"`
	ShareClicks            int                      `json:"shareClicks"`
	ShareCopies            int                      `json:"shareCopies"`
	AvgPuzzlesBeforeSignup float64                  `json:"avgPuzzlesBeforeSignup"`
	PuzzlesBeforeSignup    SignupTimingDistribution `json:"puzzlesBeforeSignup"`
	VisitorToPlayerRate    int                      `json:"visitorToPlayerRate"`
	CompletionRate         int                      `json:"completionRate"`
	PromptToSignupRate     int                      `json:"promptToSignupRate"`
	ShareRate              int                      `json:"shareRate"`
	ShareCopyRate          int                      `json:"shareCopyRate"`
}

// ConversionFunnel counts the visitor -> player -> signup -> share funnel over
// the events inside r.
func (e *Engine) ConversionFunnel(ds *Dataset, r TimeRange) FunnelMetrics {
	r = ParseTimeRange(string(r))
	f := FunnelMetrics{Range: r}

	visitors := make(map[string]bool)
	players := make(map[string]bool)
	var beforeSum float64
	var beforeCount int

	for _, ev := range ds.Events {
		if !e.InRange(ev.Date, r) {
			continue
		}
		visitors[ev.VisitorID] = true

		switch p := ev.Payload.(type) {
		case SessionStart:
			f.SessionsStarted++
		case PuzzleStarted:
			f.PuzzlesStarted++
			players[ev.VisitorID] = true
		case PuzzleCompleted:
			f.PuzzlesCompleted++
		case SignupPromptShown:
			f.SignupPromptsShown++
		case SignupCompleted:
			f.SignupsCompleted++
			if p.PuzzlesPlayedBefore != nil {
				n := *p.PuzzlesPlayedBefore
				beforeSum += float64(n)
				beforeCount++
				f.PuzzlesBeforeSignup.add(n)
			}
		case ShareClicked:
			f.ShareClicks++
		case ShareCopied:
			f.ShareCopies++
		}
	}

	f.UniqueVisitors = len(visitors)
	f.PuzzlePlayers = len(players)
	f.AvgPuzzlesBeforeSignup = mean(beforeSum, beforeCount)
	f.VisitorToPlayerRate = percent(f.PuzzlePlayers, f.UniqueVisitors)
	f.CompletionRate = percent(f.PuzzlesCompleted, f.PuzzlesStarted)
	f.PromptToSignupRate = percent(f.SignupsCompleted, f.SignupPromptsShown)
	f.ShareRate = percent(f.ShareClicks, f.PuzzlesCompleted)
	f.ShareCopyRate = percent(f.ShareCopies, f.ShareClicks)
	return f
}
