package scoring

import (
	"math"

	"github.com/hashicorp/go-multierror"
)

// FormState is the whole evaluation form a judge fills in for one startup.
type FormState struct {
	Sections          map[string]SectionState `json:"sections"`
	OverallFeedback   string                  `json:"overall_feedback"`
	NominateNextRound bool                    `json:"nominate_next_round"`
	MentorStartup     bool                    `json:"mentor_startup"`
	MeetStartup       bool                    `json:"meet_startup"`
}

// Result is the scored form.
type Result struct {
	SectionScores map[string]SectionScore `json:"section_scores"`
	TotalScore    float64                 `json:"total_score"`
}

// Evaluate scores every section of the rubric and sums the weighted scores
// into the total, rounded to two decimals. Criteria missing from sections are
// scored as unanswered.
func Evaluate(r Rubric, sections map[string]SectionState) (Result, error) {
	var merr *multierror.Error
	for _, id := range unknownSections(r, sections) {
		merr = multierror.Append(merr, sectionErr(id, ErrUnknownSection))
	}

	res := Result{SectionScores: make(map[string]SectionScore, len(r.Criteria))}
	total := 0.0
	for _, c := range r.Criteria {
		sc, err := ScoreSection(c, sections[c.ID])
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		res.SectionScores[c.ID] = sc
		total += sc.WeightedScore
	}
	if err := format(merr).ErrorOrNil(); err != nil {
		return Result{}, err
	}
	res.TotalScore = Round2(total)
	return res, nil
}

// SumWeighted adds up the weighted scores of the given sections in rubric
// order, without rounding.
func SumWeighted(r Rubric, scores map[string]SectionScore) float64 {
	total := 0.0
	for _, c := range r.Criteria {
		total += scores[c.ID].WeightedScore
	}
	return total
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
