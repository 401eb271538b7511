package competition

import (
	"time"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

type Startup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Founder     string    `json:"founder,omitempty"`
	Email       string    `json:"email,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Judge struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Round struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Schedule assigns one judge to one startup pitch within a round.
type Schedule struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	StartupID string    `json:"startup_id"`
	JudgeID   string    `json:"judge_id"`
	SlotStart time.Time `json:"slot_start,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Evaluation is a judge's scored form for one schedule.
// JudgeID, StartupID, RoundID and ScheduleID never change after creation.
type Evaluation struct {
	ID                string                          `json:"id"`
	JudgeID           string                          `json:"judge_id"`
	StartupID         string                          `json:"startup_id"`
	RoundID           string                          `json:"round_id"`
	ScheduleID        string                          `json:"schedule_id"`
	SectionScores     map[string]scoring.SectionScore `json:"section_scores"`
	TotalScore        float64                         `json:"total_score"`
	OverallFeedback   string                          `json:"overall_feedback"`
	NominateNextRound bool                            `json:"nominate_next_round"`
	MentorStartup     bool                            `json:"mentor_startup"`
	MeetStartup       bool                            `json:"meet_startup"`
	CreatedAt         time.Time                       `json:"created_at"`
	UpdatedAt         time.Time                       `json:"updated_at"`
}
