package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrEmptyRubric        = errors.New("rubric has no criteria")
	ErrEmptyID            = errors.New("criterion id is required")
	ErrDuplicateCriterion = errors.New("duplicate criterion id")
	ErrEmptyName          = errors.New("criterion name is required")
	ErrNonPositiveWeight  = errors.New("weight must be greater than 0")
	ErrWeightTooLarge     = errors.New("weight must not exceed 100")
	ErrNoSubquestions     = errors.New("sub-questions enabled but none given")
	ErrEmptySubquestion   = errors.New("sub-question text is required")

	ErrUnknownSection    = errors.New("unknown section")
	ErrUnknownQuestion   = errors.New("question index out of range")
	ErrRatingOutOfRange  = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	ErrIncompleteSection = errors.New("every question must be rated or the section skipped")
	ErrMissingFeedback   = errors.New("overall feedback is required")
)

// OverallSection labels issues that are not tied to a single rubric section.
const OverallSection = "overall"

// SectionError ties a validation failure to the section (criterion id) it
// was found in.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string { return e.Section + ": " + e.Err.Error() }
func (e *SectionError) Unwrap() error { return e.Err }

func sectionErr(section string, err error) *SectionError {
	return &SectionError{Section: section, Err: err}
}

func format(merr *multierror.Error) *multierror.Error {
	if merr != nil {
		merr.ErrorFormat = func(es []error) string {
			parts := make([]string, len(es))
			for i, e := range es {
				parts[i] = e.Error()
			}
			return strings.Join(parts, "; ")
		}
	}
	return merr
}

// Issues flattens an error returned by this package into its section errors.
// Errors that carry no section are reported under OverallSection.
func Issues(err error) []*SectionError {
	if err == nil {
		return nil
	}
	var errs []error
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	} else {
		errs = []error{err}
	}
	out := make([]*SectionError, 0, len(errs))
	for _, e := range errs {
		var se *SectionError
		if errors.As(e, &se) {
			out = append(out, se)
			continue
		}
		out = append(out, sectionErr(OverallSection, e))
	}
	return out
}

// ValidateSubmission reports everything that blocks a judge from submitting
// the form: malformed ratings, unanswered questions in sections that are not
// skipped, and missing overall feedback.
func ValidateSubmission(r Rubric, f FormState) error {
	var merr *multierror.Error
	for _, id := range unknownSections(r, f.Sections) {
		merr = multierror.Append(merr, sectionErr(id, ErrUnknownSection))
	}
	for _, c := range r.Criteria {
		st := f.Sections[c.ID]
		if err := st.check(c); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		if !st.Complete(c) {
			merr = multierror.Append(merr, sectionErr(c.ID, ErrIncompleteSection))
		}
	}
	if strings.TrimSpace(f.OverallFeedback) == "" {
		merr = multierror.Append(merr, sectionErr(OverallSection, ErrMissingFeedback))
	}
	return format(merr).ErrorOrNil()
}

func unknownSections(r Rubric, sections map[string]SectionState) []string {
	var ids []string
	for id := range sections {
		if r.Index(id) < 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
