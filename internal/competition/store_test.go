package competition

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/db"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "judging.db") + "?mode=rwc"
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"sqlite": NewSQLStore(d),
	}
}

func ms(sec int64) time.Time { return time.UnixMilli(sec * 1000).UTC() }

func seed(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.CreateRound(ctx, Round{ID: "r1", Name: "Semi-final", Position: 1, CreatedAt: ms(1)}))
	require.NoError(t, st.CreateStartup(ctx, Startup{ID: "s1", Name: "Zeta", CreatedAt: ms(1)}))
	require.NoError(t, st.CreateStartup(ctx, Startup{ID: "s2", Name: "Alpha", Industry: "fintech", CreatedAt: ms(2)}))
	require.NoError(t, st.CreateJudge(ctx, Judge{ID: "j1", Name: "Ana", Email: "ana@example.com", PasswordHash: "x", CreatedAt: ms(1)}))
	require.NoError(t, st.CreateJudge(ctx, Judge{ID: "j2", Name: "Bo", Email: "bo@example.com", PasswordHash: "x", CreatedAt: ms(1)}))
	require.NoError(t, st.CreateSchedule(ctx, Schedule{ID: "sc1", RoundID: "r1", StartupID: "s1", JudgeID: "j1", SlotStart: ms(100), CreatedAt: ms(1)}))
	require.NoError(t, st.CreateSchedule(ctx, Schedule{ID: "sc2", RoundID: "r1", StartupID: "s2", JudgeID: "j1", SlotStart: ms(50), CreatedAt: ms(1)}))
	require.NoError(t, st.CreateSchedule(ctx, Schedule{ID: "sc3", RoundID: "r1", StartupID: "s1", JudgeID: "j2", CreatedAt: ms(1)}))
}

func sampleEvaluation() Evaluation {
	return Evaluation{
		ID: "e1", JudgeID: "j1", StartupID: "s1", RoundID: "r1", ScheduleID: "sc1",
		SectionScores: map[string]scoring.SectionScore{
			"problem": {
				RawAverage: 4.5, PercentageScore: 90, WeightedScore: 9, MaxPoints: 10,
				IndividualScores:       map[int]int{0: 4, 1: 5},
				TotalPossibleQuestions: 2, AnsweredQuestions: 2, Feedback: "clear pain point",
			},
			"team": {
				RawAverage: 1, PercentageScore: 20, WeightedScore: 4, MaxPoints: 20,
				IndividualScores:       map[int]int{0: 1, 1: 1, 2: 1},
				TotalPossibleQuestions: 3, AnsweredQuestions: 3, Skipped: true,
			},
		},
		TotalScore:        13,
		OverallFeedback:   "promising",
		NominateNextRound: true,
		MeetStartup:       true,
		CreatedAt:         ms(200),
		UpdatedAt:         ms(200),
	}
}

func TestStore_EntitiesAndOrdering(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)

			list, err := st.ListStartups(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "Alpha", list[0].Name)

			got, err := st.GetStartup(ctx, "s2")
			require.NoError(t, err)
			assert.Equal(t, Startup{ID: "s2", Name: "Alpha", Industry: "fintech", CreatedAt: ms(2)}, got)

			_, err = st.GetStartup(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			err = st.CreateJudge(ctx, Judge{ID: "j3", Name: "Dup", Email: "ana@example.com", CreatedAt: ms(1)})
			assert.ErrorIs(t, err, ErrConflict)

			j, err := st.GetJudgeByEmail(ctx, "bo@example.com")
			require.NoError(t, err)
			assert.Equal(t, "j2", j.ID)

			scheds, err := st.ListSchedules(ctx, ScheduleFilter{JudgeID: "j1"})
			require.NoError(t, err)
			require.Len(t, scheds, 2)
			assert.Equal(t, "sc2", scheds[0].ID)

			scheds, err = st.ListSchedules(ctx, ScheduleFilter{RoundID: "r1", StartupID: "s1"})
			require.NoError(t, err)
			assert.Len(t, scheds, 2)

			sc, err := st.GetSchedule(ctx, "sc3")
			require.NoError(t, err)
			assert.True(t, sc.SlotStart.IsZero())
		})
	}
}

func TestStore_RubricRoundTrip(t *testing.T) {
	r, err := scoring.DefaultRubric()
	require.NoError(t, err)

	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			empty, err := st.GetRubric(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty.Criteria)

			require.NoError(t, st.PutRubric(ctx, r))
			got, err := st.GetRubric(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(r, got); diff != "" {
				t.Fatalf("rubric mismatch (-want +got):\n%s", diff)
			}

			smaller := scoring.Rubric{Criteria: []scoring.Criterion{{ID: "only", Name: "Only", Weight: 100}}}
			require.NoError(t, st.PutRubric(ctx, smaller))
			got, err = st.GetRubric(ctx)
			require.NoError(t, err)
			assert.Equal(t, smaller, got)
		})
	}
}

func TestStore_EvaluationLifecycle(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, st)
			e := sampleEvaluation()
			require.NoError(t, st.CreateEvaluation(ctx, e))

			got, err := st.GetEvaluation(ctx, "e1")
			require.NoError(t, err)
			if diff := cmp.Diff(e, got); diff != "" {
				t.Fatalf("evaluation mismatch (-want +got):\n%s", diff)
			}

			dup := sampleEvaluation()
			dup.ID = "e2"
			assert.ErrorIs(t, st.CreateEvaluation(ctx, dup), ErrDuplicateEvaluation)

			upd := e
			upd.TotalScore = 55.5
			upd.OverallFeedback = "revised"
			upd.NominateNextRound = false
			upd.UpdatedAt = ms(300)
			upd.StartupID = "s2" // ignored: linkage is immutable
			require.NoError(t, st.UpdateEvaluation(ctx, upd))

			got, err = st.GetEvaluation(ctx, "e1")
			require.NoError(t, err)
			assert.Equal(t, 55.5, got.TotalScore)
			assert.Equal(t, "revised", got.OverallFeedback)
			assert.False(t, got.NominateNextRound)
			assert.Equal(t, "s1", got.StartupID)
			assert.Equal(t, ms(200), got.CreatedAt)
			assert.Equal(t, ms(300), got.UpdatedAt)

			missing := e
			missing.ID = "nope"
			assert.ErrorIs(t, st.UpdateEvaluation(ctx, missing), ErrNotFound)

			other := sampleEvaluation()
			other.ID, other.JudgeID, other.ScheduleID, other.CreatedAt = "e3", "j2", "sc3", ms(250)
			require.NoError(t, st.CreateEvaluation(ctx, other))

			all, err := st.ListEvaluations(ctx, EvaluationFilter{RoundID: "r1"})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, []string{"e1", "e3"}, []string{all[0].ID, all[1].ID})

			mine, err := st.ListEvaluations(ctx, EvaluationFilter{JudgeID: "j2"})
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, "e3", mine[0].ID)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore()
	seed(t, st)
	require.NoError(t, st.CreateEvaluation(ctx, sampleEvaluation()))

	got, err := st.GetEvaluation(ctx, "e1")
	require.NoError(t, err)
	got.SectionScores["problem"].IndividualScores[0] = 1

	again, err := st.GetEvaluation(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 4, again.SectionScores["problem"].IndividualScores[0])
}

func TestFilterClause(t *testing.T) {
	where, args := filterClause(map[string]string{"round_id": "r1", "judge_id": "j1", "startup_id": ""})
	assert.Equal(t, " WHERE judge_id = ? AND round_id = ?", where)
	assert.Equal(t, []any{"j1", "r1"}, args)

	where, args = filterClause(map[string]string{"round_id": ""})
	assert.Empty(t, where)
	assert.Nil(t, args)
}
