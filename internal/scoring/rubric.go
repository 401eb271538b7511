// Package scoring implements the weighted rubric model used to score startups:
// criterion weights, per-section ratings and the roll-up into a 0..100 total.
//
// Everything here is pure. Callers load rubrics and forms from storage, pass
// them through these functions and persist the results.
package scoring

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	MinRating = 1
	MaxRating = 5

	// TotalWeight is the nominal sum of all criterion weights in a rubric.
	TotalWeight = 100

	// SkippedRating is assigned to every question of a skipped section.
	SkippedRating = MinRating
)

// Criterion is one scoring dimension of a rubric (e.g. "Team").
type Criterion struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Weight          int      `json:"weight" yaml:"weight"`
	HasSubquestions bool     `json:"has_subquestions" yaml:"has_subquestions"`
	Subquestions    []string `json:"subquestions,omitempty" yaml:"subquestions,omitempty"`
}

// QuestionCount is the number of rateable questions in the criterion's section.
// A criterion without sub-questions is rated as a single question.
func (c Criterion) QuestionCount() int {
	if c.HasSubquestions && len(c.Subquestions) > 0 {
		return len(c.Subquestions)
	}
	return 1
}

// Rubric is an ordered set of criteria.
type Rubric struct {
	Criteria []Criterion `json:"criteria" yaml:"criteria"`
}

// TotalWeight sums the weights of every criterion.
func (r Rubric) TotalWeight() int {
	sum := 0
	for _, c := range r.Criteria {
		sum += c.Weight
	}
	return sum
}

// Index returns the position of the criterion with the given id, or -1.
func (r Rubric) Index(id string) int {
	for i, c := range r.Criteria {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r Rubric) Clone() Rubric {
	out := Rubric{Criteria: make([]Criterion, len(r.Criteria))}
	for i, c := range r.Criteria {
		c.Subquestions = append([]string(nil), c.Subquestions...)
		out.Criteria[i] = c
	}
	return out
}

// ValidateRubric checks a rubric is fit for editing and scoring. Every
// problem is reported; the returned error is a *multierror.Error of
// *SectionError values. The weight total is a soft invariant and is not
// checked here.
func ValidateRubric(r Rubric) error {
	if len(r.Criteria) == 0 {
		return ErrEmptyRubric
	}
	var merr *multierror.Error
	seen := make(map[string]bool, len(r.Criteria))
	for i, c := range r.Criteria {
		label := c.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if strings.TrimSpace(c.ID) == "" {
			merr = multierror.Append(merr, sectionErr(label, ErrEmptyID))
		} else if seen[c.ID] {
			merr = multierror.Append(merr, sectionErr(label, ErrDuplicateCriterion))
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Name) == "" {
			merr = multierror.Append(merr, sectionErr(label, ErrEmptyName))
		}
		if c.Weight <= 0 {
			merr = multierror.Append(merr, sectionErr(label, ErrNonPositiveWeight))
		}
		if c.Weight > TotalWeight {
			merr = multierror.Append(merr, sectionErr(label, ErrWeightTooLarge))
		}
		if !c.HasSubquestions {
			continue
		}
		if len(c.Subquestions) == 0 {
			merr = multierror.Append(merr, sectionErr(label, ErrNoSubquestions))
		}
		for j, q := range c.Subquestions {
			if strings.TrimSpace(q) == "" {
				merr = multierror.Append(merr, &SectionError{
					Section: label,
					Err:     fmt.Errorf("%w (sub-question %d)", ErrEmptySubquestion, j+1),
				})
			}
		}
	}
	return format(merr).ErrorOrNil()
}
