package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/notify"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
	"github.com/mind-engage/mindengage-judging/internal/storage"
)

const adminPass = "let-me-in"

type harness struct {
	t     *testing.T
	h     http.Handler
	svc   *competition.Service
	authz *auth.AuthService
}

func newHarness(t *testing.T, perMin int) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{
		Mode:               config.ModeOffline,
		AdminUser:          "admin",
		AdminPassHash:      string(hash),
		EnableLocalAuth:    true,
		RateLimitPerMin:    perMin,
		CORSOriginsOffline: []string{"http://localhost:3000"},
	}
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	svc := competition.NewService(competition.NewInMemoryStore(), blobs, notify.Nop{}, zap.NewNop())
	r, err := scoring.DefaultRubric()
	require.NoError(t, err)
	_, err = svc.SeedRubric(context.Background(), r)
	require.NoError(t, err)

	a := auth.NewAuthService("test-secret")
	return &harness{t: t, svc: svc, authz: a, h: NewRouter(Deps{Config: cfg, Service: svc, Auth: a})}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(user, pass string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": user, "password": pass})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var out loginResponse
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type world struct {
	admin, judgeA, judgeB string
	round                 competition.Round
	schedA, schedB        competition.Schedule
}

// setup creates one round, one startup and two judges, each with a schedule.
func (h *harness) setup() world {
	var wd world
	wd.admin = h.login("admin", adminPass)

	rec := h.do(http.MethodPost, "/rounds", wd.admin, map[string]any{"name": "Final"})
	require.Equal(h.t, http.StatusCreated, rec.Code)
	wd.round = decodeBody[competition.Round](h.t, rec)

	rec = h.do(http.MethodPost, "/startups", wd.admin, map[string]any{"name": "Atlas", "industry": "climate"})
	require.Equal(h.t, http.StatusCreated, rec.Code)
	st := decodeBody[competition.Startup](h.t, rec)

	for i, email := range []string{"ana@example.com", "bo@example.com"} {
		rec = h.do(http.MethodPost, "/judges", wd.admin, map[string]any{"name": email, "email": email, "password": "pw-" + email})
		require.Equal(h.t, http.StatusCreated, rec.Code)
		assert.NotContains(h.t, rec.Body.String(), "password")
		j := decodeBody[competition.Judge](h.t, rec)

		rec = h.do(http.MethodPost, "/schedules", wd.admin, map[string]any{
			"round_id": wd.round.ID, "startup_id": st.ID, "judge_id": j.ID,
		})
		require.Equal(h.t, http.StatusCreated, rec.Code)
		sc := decodeBody[competition.Schedule](h.t, rec)
		if i == 0 {
			wd.schedA = sc
		} else {
			wd.schedB = sc
		}
	}
	wd.judgeA = h.login("ana@example.com", "pw-ana@example.com")
	wd.judgeB = h.login("BO@example.com", "pw-bo@example.com")
	return wd
}

func fullForm(t *testing.T, svc *competition.Service, rating int) scoring.FormState {
	t.Helper()
	r, err := svc.Rubric(context.Background())
	require.NoError(t, err)
	f := scoring.FormState{Sections: map[string]scoring.SectionState{}, OverallFeedback: "sharp founders"}
	for _, c := range r.Criteria {
		st := scoring.SectionState{Scores: map[int]*int{}}
		for q := 0; q < c.QuestionCount(); q++ {
			v := rating
			st.Scores[q] = &v
		}
		f.Sections[c.ID] = st
	}
	return f
}

func submitBody(scheduleID string, f scoring.FormState) map[string]any {
	return map[string]any{
		"schedule_id":         scheduleID,
		"sections":            f.Sections,
		"overall_feedback":    f.OverallFeedback,
		"nominate_next_round": f.NominateNextRound,
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t, 1000)

	rec := h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "ghost@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tok := h.login("admin", adminPass)
	c, err := h.authz.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, c.Role)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newHarness(t, 1000)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/rubric", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", nil).Code)
}

func TestEvaluationFlow(t *testing.T) {
	h := newHarness(t, 1000)
	wd := h.setup()

	rec := h.do(http.MethodGet, "/rubric", wd.judgeA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rb := decodeBody[rubricResponse](t, rec)
	assert.Equal(t, 100, rb.TotalWeight)
	assert.Len(t, rb.Criteria, 7)

	// judges only see their own schedule
	rec = h.do(http.MethodGet, "/schedules?judge_id="+wd.schedB.JudgeID, wd.judgeA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	scheds := decodeBody[struct{ Items []competition.Schedule }](t, rec)
	require.Len(t, scheds.Items, 1)
	assert.Equal(t, wd.schedA.ID, scheds.Items[0].ID)

	// incomplete form lists every issue
	bad := fullForm(t, h.svc, 4)
	delete(bad.Sections, "market")
	bad.OverallFeedback = ""
	rec = h.do(http.MethodPost, "/evaluations", wd.judgeA, submitBody(wd.schedA.ID, bad))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	eb := decodeBody[errorBody](t, rec)
	require.Len(t, eb.Issues, 2)
	assert.Equal(t, "market", eb.Issues[0].Section)
	assert.Equal(t, scoring.OverallSection, eb.Issues[1].Section)

	// someone else's schedule
	rec = h.do(http.MethodPost, "/evaluations", wd.judgeA, submitBody(wd.schedB.ID, fullForm(t, h.svc, 4)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	good := fullForm(t, h.svc, 4)
	good.NominateNextRound = true
	rec = h.do(http.MethodPost, "/evaluations", wd.judgeA, submitBody(wd.schedA.ID, good))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ev := decodeBody[competition.Evaluation](t, rec)
	assert.Equal(t, 80.0, ev.TotalScore)
	assert.True(t, ev.NominateNextRound)
	assert.Equal(t, wd.round.ID, ev.RoundID)

	rec = h.do(http.MethodPost, "/evaluations", wd.judgeA, submitBody(wd.schedA.ID, good))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// edit
	edited := fullForm(t, h.svc, 5)
	edited.NominateNextRound = true
	rec = h.do(http.MethodPut, "/evaluations/"+ev.ID, wd.judgeA, edited)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, decodeBody[competition.Evaluation](t, rec).TotalScore)

	rec = h.do(http.MethodPut, "/evaluations/"+ev.ID, wd.judgeB, fullForm(t, h.svc, 1))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// visibility
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/evaluations/"+ev.ID, wd.judgeB, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/evaluations/"+ev.ID, wd.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/evaluations/missing", wd.admin, nil).Code)

	rec = h.do(http.MethodGet, "/evaluations", wd.judgeB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[struct{ Items []competition.Evaluation }](t, rec).Items)

	rec = h.do(http.MethodGet, "/evaluations?round_id="+wd.round.ID, wd.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[struct{ Items []competition.Evaluation }](t, rec).Items, 1)

	// results are admin only
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/rounds/"+wd.round.ID+"/rankings", wd.judgeA, nil).Code)
	rec = h.do(http.MethodGet, "/rounds/"+wd.round.ID+"/rankings", wd.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rk := decodeBody[struct{ Items []competition.Ranking }](t, rec)
	require.Len(t, rk.Items, 1)
	assert.Equal(t, 100.0, rk.Items[0].AverageScore)
	assert.Equal(t, 1, rk.Items[0].Nominations)

	rec = h.do(http.MethodPost, "/rounds/"+wd.round.ID+"/snapshot", wd.admin, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	ref := decodeBody[competition.SnapshotRef](t, rec)
	assert.Contains(t, ref.URL, "file://")

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/rounds/nope/rankings", wd.admin, nil).Code)
}

func TestPreviewDoesNotStore(t *testing.T) {
	h := newHarness(t, 1000)
	wd := h.setup()

	v := 5
	rec := h.do(http.MethodPost, "/evaluations/preview", wd.judgeA, scoring.FormState{
		Sections: map[string]scoring.SectionState{"market": {Scores: map[int]*int{0: &v, 1: &v, 2: &v}}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, decodeBody[scoring.Result](t, rec).TotalScore)

	rec = h.do(http.MethodGet, "/evaluations", wd.admin, nil)
	assert.Empty(t, decodeBody[struct{ Items []competition.Evaluation }](t, rec).Items)
}

func TestRubricEditing(t *testing.T) {
	h := newHarness(t, 1000)
	wd := h.setup()

	rec := h.do(http.MethodPost, "/rubric/criteria/team/weight", wd.judgeA, map[string]int{"weight": 40})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/rubric/criteria/team/weight", wd.admin, map[string]int{"weight": 40})
	require.Equal(t, http.StatusOK, rec.Code)
	rb := decodeBody[rubricResponse](t, rec)
	assert.Equal(t, 100, rb.TotalWeight)
	assert.Equal(t, 40, rb.Criteria[rb.Index("team")].Weight)

	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/rubric/criteria/ghost/weight", wd.admin, map[string]int{"weight": 40}).Code)
	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/rubric/criteria/team/weight", wd.admin, map[string]int{}).Code)

	rec = h.do(http.MethodPut, "/rubric", wd.admin, scoring.Rubric{Criteria: []scoring.Criterion{
		{ID: "a", Name: "", Weight: 50},
		{ID: "b", Name: "B", Weight: 0},
	}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decodeBody[errorBody](t, rec).Issues, 2)

	rec = h.do(http.MethodPut, "/rubric", wd.admin, scoring.Rubric{Criteria: []scoring.Criterion{
		{ID: "pitch", Name: "Pitch", Weight: 100},
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[rubricResponse](t, rec).Criteria, 1)
}

func TestUnknownJudgeTokenIsRejected(t *testing.T) {
	h := newHarness(t, 1000)
	tok, err := h.authz.IssueJWT("deleted-judge", rbac.RoleJudge, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/rubric", tok, nil).Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	h := newHarness(t, 2)
	body := map[string]string{"username": "admin", "password": "wrong"}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/auth/login", "", body).Code)
}
