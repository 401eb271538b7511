package scoring

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFives(c Criterion) SectionState {
	st := SectionState{Scores: map[int]*int{}}
	for q := 0; q < c.QuestionCount(); q++ {
		st.Scores[q] = rating(5)
	}
	return st
}

func TestEvaluate_TeamSkippedExample(t *testing.T) {
	r, err := DefaultRubric()
	require.NoError(t, err)

	sections := map[string]SectionState{}
	for _, c := range r.Criteria {
		sections[c.ID] = allFives(c)
	}
	sections["team"] = SectionState{IsSkipped: true}

	res, err := Evaluate(r, sections)
	require.NoError(t, err)
	assert.InDelta(t, 84.0, res.TotalScore, 1e-9)
	assert.InDelta(t, 4.0, res.SectionScores["team"].WeightedScore, 1e-9)
	assert.InDelta(t, 30.0, res.SectionScores["market"].WeightedScore, 1e-9)
}

func TestEvaluate_MissingSectionScoresZero(t *testing.T) {
	r := Rubric{Criteria: []Criterion{crit("a", 60), crit("b", 40)}}
	res, err := Evaluate(r, map[string]SectionState{"a": {Scores: map[int]*int{0: rating(5)}}})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, res.TotalScore, 1e-9)
	assert.Equal(t, 0, res.SectionScores["b"].AnsweredQuestions)
}

func TestEvaluate_RejectsUnknownSectionAndBadRatings(t *testing.T) {
	r := Rubric{Criteria: []Criterion{crit("a", 60), crit("b", 40)}}
	_, err := Evaluate(r, map[string]SectionState{
		"a":   {Scores: map[int]*int{0: rating(7)}},
		"zzz": {},
	})
	require.Error(t, err)

	issues := Issues(err)
	require.Len(t, issues, 2)
	assert.Equal(t, "zzz", issues[0].Section)
	assert.ErrorIs(t, issues[0], ErrUnknownSection)
	assert.Equal(t, "a", issues[1].Section)
	assert.ErrorIs(t, issues[1], ErrRatingOutOfRange)
}

func TestEvaluate_TotalMatchesSectionSum(t *testing.T) {
	r, err := DefaultRubric()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 500; n++ {
		sections := map[string]SectionState{}
		for _, c := range r.Criteria {
			if rng.Intn(5) == 0 {
				sections[c.ID] = SectionState{IsSkipped: true}
				continue
			}
			st := SectionState{Scores: map[int]*int{}}
			for q := 0; q < c.QuestionCount(); q++ {
				if rng.Intn(6) == 0 {
					st.Scores[q] = nil
					continue
				}
				st.Scores[q] = rating(1 + rng.Intn(5))
			}
			sections[c.ID] = st
		}

		res, err := Evaluate(r, sections)
		require.NoError(t, err)
		raw := SumWeighted(r, res.SectionScores)
		assert.GreaterOrEqual(t, res.TotalScore, 0.0)
		assert.LessOrEqual(t, res.TotalScore, 100.0)
		assert.InDelta(t, raw, res.TotalScore, 0.005+1e-6)
		assert.Equal(t, Round2(raw), res.TotalScore)
	}
}

func TestResult_JSONRoundTrip(t *testing.T) {
	r, err := DefaultRubric()
	require.NoError(t, err)
	sections := map[string]SectionState{
		"problem": {Scores: map[int]*int{0: rating(3), 1: rating(4)}, Feedback: "clear pain"},
		"team":    {IsSkipped: true},
		"market":  {Scores: map[int]*int{0: rating(2), 2: rating(5)}},
	}
	res, err := Evaluate(r, sections)
	require.NoError(t, err)

	buf, err := json.Marshal(res)
	require.NoError(t, err)
	var back Result
	require.NoError(t, json.Unmarshal(buf, &back))

	if diff := cmp.Diff(res, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.34, Round2(12.344))
	assert.Equal(t, 12.35, Round2(12.346))
	assert.Equal(t, 84.0, Round2(84))
	assert.False(t, math.IsNaN(Round2(0)))
}
