package scoring

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// SectionState is a judge's in-progress input for one section. Scores maps a
// question index to its rating; a nil rating means unanswered.
type SectionState struct {
	Scores    map[int]*int `json:"scores"`
	Feedback  string       `json:"feedback"`
	IsSkipped bool         `json:"is_skipped"`
}

// SectionScore is the computed contribution of one section.
type SectionScore struct {
	RawAverage             float64     `json:"raw_average"`
	PercentageScore        float64     `json:"percentage_score"`
	WeightedScore          float64     `json:"weighted_score"`
	MaxPoints              int         `json:"max_points"`
	IndividualScores       map[int]int `json:"individual_scores"`
	TotalPossibleQuestions int         `json:"total_possible_questions"`
	AnsweredQuestions      int         `json:"answered_questions"`
	Feedback               string      `json:"feedback,omitempty"`
	Skipped                bool        `json:"skipped"`
}

// Complete reports whether the section can be submitted: it is skipped or
// every question of the criterion carries a rating.
func (s SectionState) Complete(c Criterion) bool {
	if s.IsSkipped {
		return true
	}
	for q := 0; q < c.QuestionCount(); q++ {
		if v, ok := s.Scores[q]; !ok || v == nil {
			return false
		}
	}
	return true
}

// check rejects ratings outside MinRating..MaxRating and indices the
// criterion does not have. Skipped sections are not checked since their
// ratings are replaced.
func (s SectionState) check(c Criterion) error {
	if s.IsSkipped {
		return nil
	}
	n := c.QuestionCount()
	var merr *multierror.Error
	for _, q := range sortedKeys(s.Scores) {
		v := s.Scores[q]
		if q < 0 || q >= n {
			merr = multierror.Append(merr, &SectionError{
				Section: c.ID,
				Err:     fmt.Errorf("%w: %d", ErrUnknownQuestion, q),
			})
			continue
		}
		if v != nil && (*v < MinRating || *v > MaxRating) {
			merr = multierror.Append(merr, &SectionError{
				Section: c.ID,
				Err:     fmt.Errorf("%w (question %d: %d)", ErrRatingOutOfRange, q, *v),
			})
		}
	}
	return format(merr).ErrorOrNil()
}

// ScoreSection computes one section's contribution to the total.
//
// For an active section the raw average divides by the number of questions
// in the criterion, not the number answered, so unanswered questions count
// as zero.
func ScoreSection(c Criterion, s SectionState) (SectionScore, error) {
	if err := s.check(c); err != nil {
		return SectionScore{}, err
	}
	n := c.QuestionCount()
	out := SectionScore{
		MaxPoints:              c.Weight,
		IndividualScores:       make(map[int]int, n),
		TotalPossibleQuestions: n,
	}

	if s.IsSkipped {
		for q := 0; q < n; q++ {
			out.IndividualScores[q] = SkippedRating
		}
		out.AnsweredQuestions = n
		out.RawAverage = SkippedRating
		out.Skipped = true
	} else {
		sum := 0
		for q, v := range s.Scores {
			if v == nil {
				continue
			}
			out.IndividualScores[q] = *v
			out.AnsweredQuestions++
			sum += *v
		}
		out.RawAverage = float64(sum) / float64(n)
		out.Feedback = s.Feedback
	}

	out.PercentageScore = out.RawAverage / MaxRating * 100
	out.WeightedScore = out.PercentageScore * float64(c.Weight) / TotalWeight
	return out, nil
}

// Skip returns the state a section takes when the judge skips it: every
// question pinned at SkippedRating and feedback cleared.
func Skip(c Criterion) SectionState {
	st := SectionState{Scores: make(map[int]*int, c.QuestionCount()), IsSkipped: true}
	for q := 0; q < c.QuestionCount(); q++ {
		v := SkippedRating
		st.Scores[q] = &v
	}
	return st
}

func sortedKeys(m map[int]*int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
