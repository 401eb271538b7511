package competition

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/mindengage-judging/internal/db"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

// SQLStore implements Store on sqlite or postgres. Queries use '?' and are
// rebound for the driver.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(d *sqlx.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

type criterionRow struct {
	ID               string `db:"id"`
	Position         int    `db:"position"`
	Name             string `db:"name"`
	Weight           int    `db:"weight"`
	HasSubquestions  bool   `db:"has_subquestions"`
	SubquestionsJSON string `db:"subquestions_json"`
}

func (s *SQLStore) GetRubric(ctx context.Context) (scoring.Rubric, error) {
	var rows []criterionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, position, name, weight, has_subquestions, subquestions_json FROM criteria ORDER BY position`)
	if err != nil {
		return scoring.Rubric{}, err
	}
	r := scoring.Rubric{Criteria: make([]scoring.Criterion, 0, len(rows))}
	for _, row := range rows {
		c := scoring.Criterion{ID: row.ID, Name: row.Name, Weight: row.Weight, HasSubquestions: row.HasSubquestions}
		if err := json.Unmarshal([]byte(row.SubquestionsJSON), &c.Subquestions); err != nil {
			return scoring.Rubric{}, fmt.Errorf("criterion %q: %w", row.ID, err)
		}
		if len(c.Subquestions) == 0 {
			c.Subquestions = nil
		}
		r.Criteria = append(r.Criteria, c)
	}
	return r, nil
}

func (s *SQLStore) PutRubric(ctx context.Context, r scoring.Rubric) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM criteria`); err != nil {
			return err
		}
		insert := tx.Rebind(`INSERT INTO criteria (id, position, name, weight, has_subquestions, subquestions_json)
			VALUES (?, ?, ?, ?, ?, ?)`)
		for i, c := range r.Criteria {
			subs := c.Subquestions
			if subs == nil {
				subs = []string{}
			}
			sj, err := json.Marshal(subs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, insert, c.ID, i, c.Name, c.Weight, c.HasSubquestions, string(sj)); err != nil {
				return err
			}
		}
		return nil
	})
}

type startupRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Founder     string `db:"founder"`
	Email       string `db:"email"`
	Industry    string `db:"industry"`
	Description string `db:"description"`
	CreatedAt   int64  `db:"created_at"`
}

func (r startupRow) model() Startup {
	return Startup{ID: r.ID, Name: r.Name, Founder: r.Founder, Email: r.Email,
		Industry: r.Industry, Description: r.Description, CreatedAt: fromMillis(r.CreatedAt)}
}

func (s *SQLStore) CreateStartup(ctx context.Context, st Startup) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO startups (id, name, founder, email, industry, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		st.ID, st.Name, st.Founder, st.Email, st.Industry, st.Description, toMillis(st.CreatedAt))
	return err
}

func (s *SQLStore) GetStartup(ctx context.Context, id string) (Startup, error) {
	var row startupRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM startups WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Startup{}, fmt.Errorf("startup %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Startup{}, err
	}
	return row.model(), nil
}

func (s *SQLStore) ListStartups(ctx context.Context) ([]Startup, error) {
	var rows []startupRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM startups ORDER BY name, id`); err != nil {
		return nil, err
	}
	out := make([]Startup, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

type judgeRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r judgeRow) model() Judge {
	return Judge{ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash, CreatedAt: fromMillis(r.CreatedAt)}
}

func (s *SQLStore) CreateJudge(ctx context.Context, j Judge) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM judges WHERE email = ?`), j.Email); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("judge %q: %w", j.Email, ErrConflict)
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO judges (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
			j.ID, j.Name, j.Email, j.PasswordHash, toMillis(j.CreatedAt))
		return err
	})
}

func (s *SQLStore) getJudge(ctx context.Context, col, val string) (Judge, error) {
	var row judgeRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM judges WHERE `+col+` = ?`), val)
	if errors.Is(err, sql.ErrNoRows) {
		return Judge{}, fmt.Errorf("judge %q: %w", val, ErrNotFound)
	}
	if err != nil {
		return Judge{}, err
	}
	return row.model(), nil
}

func (s *SQLStore) GetJudge(ctx context.Context, id string) (Judge, error) {
	return s.getJudge(ctx, "id", id)
}

func (s *SQLStore) GetJudgeByEmail(ctx context.Context, email string) (Judge, error) {
	return s.getJudge(ctx, "email", email)
}

func (s *SQLStore) ListJudges(ctx context.Context) ([]Judge, error) {
	var rows []judgeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM judges ORDER BY name, id`); err != nil {
		return nil, err
	}
	out := make([]Judge, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

type roundRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Position  int    `db:"position"`
	CreatedAt int64  `db:"created_at"`
}

func (r roundRow) model() Round {
	return Round{ID: r.ID, Name: r.Name, Position: r.Position, CreatedAt: fromMillis(r.CreatedAt)}
}

func (s *SQLStore) CreateRound(ctx context.Context, r Round) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO rounds (id, name, position, created_at) VALUES (?, ?, ?, ?)`),
		r.ID, r.Name, r.Position, toMillis(r.CreatedAt))
	return err
}

func (s *SQLStore) GetRound(ctx context.Context, id string) (Round, error) {
	var row roundRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM rounds WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Round{}, fmt.Errorf("round %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Round{}, err
	}
	return row.model(), nil
}

func (s *SQLStore) ListRounds(ctx context.Context) ([]Round, error) {
	var rows []roundRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM rounds ORDER BY position, name, id`); err != nil {
		return nil, err
	}
	out := make([]Round, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

type scheduleRow struct {
	ID        string `db:"id"`
	RoundID   string `db:"round_id"`
	StartupID string `db:"startup_id"`
	JudgeID   string `db:"judge_id"`
	SlotStart int64  `db:"slot_start"`
	CreatedAt int64  `db:"created_at"`
}

func (r scheduleRow) model() Schedule {
	return Schedule{ID: r.ID, RoundID: r.RoundID, StartupID: r.StartupID, JudgeID: r.JudgeID,
		SlotStart: fromMillis(r.SlotStart), CreatedAt: fromMillis(r.CreatedAt)}
}

func (s *SQLStore) CreateSchedule(ctx context.Context, sc Schedule) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO schedules (id, round_id, startup_id, judge_id, slot_start, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		sc.ID, sc.RoundID, sc.StartupID, sc.JudgeID, toMillis(sc.SlotStart), toMillis(sc.CreatedAt))
	return err
}

func (s *SQLStore) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	var row scheduleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM schedules WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Schedule{}, fmt.Errorf("schedule %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Schedule{}, err
	}
	return row.model(), nil
}

func (s *SQLStore) ListSchedules(ctx context.Context, f ScheduleFilter) ([]Schedule, error) {
	where, args := filterClause(map[string]string{"round_id": f.RoundID, "startup_id": f.StartupID, "judge_id": f.JudgeID})
	var rows []scheduleRow
	q := s.db.Rebind(`SELECT * FROM schedules` + where + ` ORDER BY slot_start, id`)
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]Schedule, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

type evaluationRow struct {
	ID                string  `db:"id"`
	JudgeID           string  `db:"judge_id"`
	StartupID         string  `db:"startup_id"`
	RoundID           string  `db:"round_id"`
	ScheduleID        string  `db:"schedule_id"`
	SectionScoresJSON string  `db:"section_scores_json"`
	TotalScore        float64 `db:"total_score"`
	OverallFeedback   string  `db:"overall_feedback"`
	NominateNextRound bool    `db:"nominate_next_round"`
	MentorStartup     bool    `db:"mentor_startup"`
	MeetStartup       bool    `db:"meet_startup"`
	CreatedAt         int64   `db:"created_at"`
	UpdatedAt         int64   `db:"updated_at"`
}

func (r evaluationRow) model() (Evaluation, error) {
	e := Evaluation{
		ID: r.ID, JudgeID: r.JudgeID, StartupID: r.StartupID, RoundID: r.RoundID, ScheduleID: r.ScheduleID,
		TotalScore: r.TotalScore, OverallFeedback: r.OverallFeedback,
		NominateNextRound: r.NominateNextRound, MentorStartup: r.MentorStartup, MeetStartup: r.MeetStartup,
		CreatedAt: fromMillis(r.CreatedAt), UpdatedAt: fromMillis(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.SectionScoresJSON), &e.SectionScores); err != nil {
		return Evaluation{}, fmt.Errorf("evaluation %q: section scores: %w", r.ID, err)
	}
	return e, nil
}

func (s *SQLStore) CreateEvaluation(ctx context.Context, e Evaluation) error {
	sj, err := json.Marshal(e.SectionScores)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var n int
		err := tx.GetContext(ctx, &n, tx.Rebind(
			`SELECT COUNT(*) FROM evaluations WHERE judge_id = ? AND schedule_id = ?`), e.JudgeID, e.ScheduleID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateEvaluation
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO evaluations
			(id, judge_id, startup_id, round_id, schedule_id, section_scores_json, total_score, overall_feedback,
			 nominate_next_round, mentor_startup, meet_startup, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			e.ID, e.JudgeID, e.StartupID, e.RoundID, e.ScheduleID, string(sj), e.TotalScore, e.OverallFeedback,
			e.NominateNextRound, e.MentorStartup, e.MeetStartup, toMillis(e.CreatedAt), toMillis(e.UpdatedAt))
		return err
	})
}

func (s *SQLStore) UpdateEvaluation(ctx context.Context, e Evaluation) error {
	sj, err := json.Marshal(e.SectionScores)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE evaluations SET
		section_scores_json = ?, total_score = ?, overall_feedback = ?,
		nominate_next_round = ?, mentor_startup = ?, meet_startup = ?, updated_at = ?
		WHERE id = ?`),
		string(sj), e.TotalScore, e.OverallFeedback, e.NominateNextRound, e.MentorStartup, e.MeetStartup,
		toMillis(e.UpdatedAt), e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("evaluation %q: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	var row evaluationRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM evaluations WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, fmt.Errorf("evaluation %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Evaluation{}, err
	}
	return row.model()
}

func (s *SQLStore) ListEvaluations(ctx context.Context, f EvaluationFilter) ([]Evaluation, error) {
	where, args := filterClause(map[string]string{"round_id": f.RoundID, "startup_id": f.StartupID, "judge_id": f.JudgeID})
	var rows []evaluationRow
	q := s.db.Rebind(`SELECT * FROM evaluations` + where + ` ORDER BY created_at, id`)
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]Evaluation, 0, len(rows))
	for _, r := range rows {
		e, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// filterClause builds "WHERE a = ? AND b = ?" from the non-empty values,
// in column-name order so the placeholders line up with args.
func filterClause(cols map[string]string) (string, []any) {
	names := make([]string, 0, len(cols))
	for c, v := range cols {
		if v != "" {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	slices.Sort(names)
	conds := make([]string, len(names))
	args := make([]any, len(names))
	for i, c := range names {
		conds[i] = c + " = ?"
		args[i] = cols[c]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
