package competition

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

type memoryStore struct {
	mu          sync.RWMutex
	rubric      scoring.Rubric
	startups    map[string]Startup
	judges      map[string]Judge
	rounds      map[string]Round
	schedules   map[string]Schedule
	evaluations map[string]Evaluation
}

// NewInMemoryStore keeps everything in process memory. Used by tests and demos.
func NewInMemoryStore() Store {
	return &memoryStore{
		startups:    map[string]Startup{},
		judges:      map[string]Judge{},
		rounds:      map[string]Round{},
		schedules:   map[string]Schedule{},
		evaluations: map[string]Evaluation{},
	}
}

func (m *memoryStore) Ping(context.Context) error { return nil }

func (m *memoryStore) GetRubric(context.Context) (scoring.Rubric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rubric.Clone(), nil
}

func (m *memoryStore) PutRubric(_ context.Context, r scoring.Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rubric = r.Clone()
	return nil
}

func (m *memoryStore) CreateStartup(_ context.Context, s Startup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.startups[s.ID]; ok {
		return fmt.Errorf("startup %q: %w", s.ID, ErrConflict)
	}
	m.startups[s.ID] = s
	return nil
}

func (m *memoryStore) GetStartup(_ context.Context, id string) (Startup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.startups[id]
	if !ok {
		return Startup{}, fmt.Errorf("startup %q: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) ListStartups(context.Context) ([]Startup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.startups))
	slices.SortFunc(out, func(a, b Startup) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) CreateJudge(_ context.Context, j Judge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.judges {
		if other.ID == j.ID || strings.EqualFold(other.Email, j.Email) {
			return fmt.Errorf("judge %q: %w", j.Email, ErrConflict)
		}
	}
	m.judges[j.ID] = j
	return nil
}

func (m *memoryStore) GetJudge(_ context.Context, id string) (Judge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.judges[id]
	if !ok {
		return Judge{}, fmt.Errorf("judge %q: %w", id, ErrNotFound)
	}
	return j, nil
}

func (m *memoryStore) GetJudgeByEmail(_ context.Context, email string) (Judge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, j := range m.judges {
		if strings.EqualFold(j.Email, email) {
			return j, nil
		}
	}
	return Judge{}, fmt.Errorf("judge %q: %w", email, ErrNotFound)
}

func (m *memoryStore) ListJudges(context.Context) ([]Judge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.judges))
	slices.SortFunc(out, func(a, b Judge) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) CreateRound(_ context.Context, r Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[r.ID]; ok {
		return fmt.Errorf("round %q: %w", r.ID, ErrConflict)
	}
	m.rounds[r.ID] = r
	return nil
}

func (m *memoryStore) GetRound(_ context.Context, id string) (Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[id]
	if !ok {
		return Round{}, fmt.Errorf("round %q: %w", id, ErrNotFound)
	}
	return r, nil
}

func (m *memoryStore) ListRounds(context.Context) ([]Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.rounds))
	slices.SortFunc(out, func(a, b Round) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) CreateSchedule(_ context.Context, s Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; ok {
		return fmt.Errorf("schedule %q: %w", s.ID, ErrConflict)
	}
	m.schedules[s.ID] = s
	return nil
}

func (m *memoryStore) GetSchedule(_ context.Context, id string) (Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return Schedule{}, fmt.Errorf("schedule %q: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) ListSchedules(_ context.Context, f ScheduleFilter) ([]Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Schedule{}
	for _, s := range m.schedules {
		if match(f.RoundID, s.RoundID) && match(f.StartupID, s.StartupID) && match(f.JudgeID, s.JudgeID) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Schedule) int {
		return cmp.Or(a.SlotStart.Compare(b.SlotStart), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) CreateEvaluation(_ context.Context, e Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.evaluations {
		if other.JudgeID == e.JudgeID && other.ScheduleID == e.ScheduleID {
			return ErrDuplicateEvaluation
		}
	}
	if _, ok := m.evaluations[e.ID]; ok {
		return fmt.Errorf("evaluation %q: %w", e.ID, ErrConflict)
	}
	m.evaluations[e.ID] = cloneEvaluation(e)
	return nil
}

func (m *memoryStore) UpdateEvaluation(_ context.Context, e Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.evaluations[e.ID]
	if !ok {
		return fmt.Errorf("evaluation %q: %w", e.ID, ErrNotFound)
	}
	cur.SectionScores = e.SectionScores
	cur.TotalScore = e.TotalScore
	cur.OverallFeedback = e.OverallFeedback
	cur.NominateNextRound = e.NominateNextRound
	cur.MentorStartup = e.MentorStartup
	cur.MeetStartup = e.MeetStartup
	cur.UpdatedAt = e.UpdatedAt
	m.evaluations[e.ID] = cloneEvaluation(cur)
	return nil
}

func (m *memoryStore) GetEvaluation(_ context.Context, id string) (Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.evaluations[id]
	if !ok {
		return Evaluation{}, fmt.Errorf("evaluation %q: %w", id, ErrNotFound)
	}
	return cloneEvaluation(e), nil
}

func (m *memoryStore) ListEvaluations(_ context.Context, f EvaluationFilter) ([]Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Evaluation{}
	for _, e := range m.evaluations {
		if match(f.RoundID, e.RoundID) && match(f.StartupID, e.StartupID) && match(f.JudgeID, e.JudgeID) {
			out = append(out, cloneEvaluation(e))
		}
	}
	slices.SortFunc(out, func(a, b Evaluation) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// match treats an empty filter value as a wildcard.
func match(want, got string) bool { return want == "" || want == got }

func cloneEvaluation(e Evaluation) Evaluation {
	if e.SectionScores == nil {
		return e
	}
	scores := make(map[string]scoring.SectionScore, len(e.SectionScores))
	for id, s := range e.SectionScores {
		s.IndividualScores = maps.Clone(s.IndividualScores)
		scores[id] = s
	}
	e.SectionScores = scores
	return e
}
