package competition

import (
	"cmp"
	"math"
	"slices"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

// Ranking aggregates every evaluation one startup received in a round.
type Ranking struct {
	Rank            int                `json:"rank"`
	StartupID       string             `json:"startup_id"`
	StartupName     string             `json:"startup_name"`
	Evaluations     int                `json:"evaluations"`
	AverageScore    float64            `json:"average_score"`
	MinScore        float64            `json:"min_score"`
	MaxScore        float64            `json:"max_score"`
	SectionAverages map[string]float64 `json:"section_averages"`
	Nominations     int                `json:"nominations"`
	MentorRequests  int                `json:"mentor_requests"`
	MeetRequests    int                `json:"meet_requests"`
}

// Rank orders startups by average total score, highest first, then by name.
// Startups with equal averages share a rank and the next rank skips ahead.
// Section averages are mean percentage scores per criterion.
func Rank(startups []Startup, evals []Evaluation) []Ranking {
	names := make(map[string]string, len(startups))
	for _, s := range startups {
		names[s.ID] = s.Name
	}

	type acc struct {
		r        Ranking
		sum      float64
		sections map[string]float64
		counts   map[string]int
	}
	by := map[string]*acc{}
	for _, e := range evals {
		a, ok := by[e.StartupID]
		if !ok {
			name := names[e.StartupID]
			if name == "" {
				name = e.StartupID
			}
			a = &acc{
				r:        Ranking{StartupID: e.StartupID, StartupName: name, MinScore: math.Inf(1), MaxScore: math.Inf(-1)},
				sections: map[string]float64{},
				counts:   map[string]int{},
			}
			by[e.StartupID] = a
		}
		a.r.Evaluations++
		a.sum += e.TotalScore
		a.r.MinScore = min(a.r.MinScore, e.TotalScore)
		a.r.MaxScore = max(a.r.MaxScore, e.TotalScore)
		for id, sc := range e.SectionScores {
			a.sections[id] += sc.PercentageScore
			a.counts[id]++
		}
		if e.NominateNextRound {
			a.r.Nominations++
		}
		if e.MentorStartup {
			a.r.MentorRequests++
		}
		if e.MeetStartup {
			a.r.MeetRequests++
		}
	}

	out := make([]Ranking, 0, len(by))
	for _, a := range by {
		a.r.AverageScore = scoring.Round2(a.sum / float64(a.r.Evaluations))
		a.r.SectionAverages = make(map[string]float64, len(a.sections))
		for id, total := range a.sections {
			a.r.SectionAverages[id] = scoring.Round2(total / float64(a.counts[id]))
		}
		out = append(out, a.r)
	}
	slices.SortFunc(out, func(x, y Ranking) int {
		return cmp.Or(
			cmp.Compare(y.AverageScore, x.AverageScore),
			cmp.Compare(x.StartupName, y.StartupName),
			cmp.Compare(x.StartupID, y.StartupID),
		)
	})
	for i := range out {
		if i > 0 && out[i].AverageScore == out[i-1].AverageScore {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}
