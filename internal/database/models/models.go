package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// SubmissionStatus is the aggregate verdict of one judged attempt.
type SubmissionStatus string

const (
	StatusAccepted     SubmissionStatus = "Accepted"
	StatusWrongAnswer  SubmissionStatus = "Wrong Answer"
	StatusRuntimeError SubmissionStatus = "Runtime Error"
)

// VirtualStatus is the lifecycle state of a virtual participation.
type VirtualStatus string

const (
	VirtualOngoing  VirtualStatus = "ONGOING"
	VirtualFinished VirtualStatus = "FINISHED"
)

// AcceptedProblem records when a problem was first accepted and at what cost.
type AcceptedProblem struct {
	PenaltyMinutes int       `json:"penalty_minutes"`
	AcceptedAt     time.Time `json:"accepted_at"`
}

// AcceptedMap stores per-problem acceptance records as JSON text.
type AcceptedMap map[string]AcceptedProblem

func (m AcceptedMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *AcceptedMap) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, &m)
}

// CountMap stores per-problem integer counters as JSON text.
type CountMap map[string]int

func (m CountMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *CountMap) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, &m)
}

// FlagMap stores per-problem boolean flags as JSON text.
type FlagMap map[string]bool

func (m FlagMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *FlagMap) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, &m)
}

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	GitLabID     *string `gorm:"uniqueIndex" json:"-"`
	Username     string  `gorm:"uniqueIndex" json:"username"`
	PasswordHash string  `json:"-"`
	Nickname     string  `json:"nickname"`
	Signature    string  `json:"signature"`
	AvatarURL    string  `json:"avatar_url"`
}

// Registration marks a user's intent to take part in a contest's live window.
type Registration struct {
	ID        uint `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time

	ContestID string `gorm:"uniqueIndex:idx_reg_contest_user" json:"contest_id"`
	UserID    string `gorm:"uniqueIndex:idx_reg_contest_user" json:"user_id"`
}

// VirtualParticipation is a personal, time-shifted replay of an ended contest
// with its own clock and its own scoring track.
type VirtualParticipation struct {
	ID        uint `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ContestID string        `gorm:"uniqueIndex:idx_vp_contest_user" json:"contest_id"`
	UserID    string        `gorm:"uniqueIndex:idx_vp_contest_user" json:"user_id"`
	Status    VirtualStatus `gorm:"index" json:"status"`
	StartedAt time.Time     `json:"started_at"`

	AcceptedCount     int         `json:"accepted_count"`
	Penalty           int         `json:"penalty"`
	AcceptedProblems  AcceptedMap `gorm:"type:text" json:"accepted_problems"`
	WrongSubmissions  CountMap    `gorm:"type:text" json:"wrong_submissions"`
	AttemptedProblems FlagMap     `gorm:"type:text" json:"attempted_problems"`
}

// LeaderboardEntry is the official live-contest scoring record, one per
// (contest, user). Created lazily on first submission, never deleted during
// normal operation.
type LeaderboardEntry struct {
	ID        uint `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ContestID string `gorm:"uniqueIndex:idx_lb_contest_user" json:"contest_id"`
	UserID    string `gorm:"uniqueIndex:idx_lb_contest_user" json:"user_id"`

	AcceptedCount     int         `json:"accepted_count"`
	Penalty           int         `json:"penalty"`
	AcceptedProblems  AcceptedMap `gorm:"type:text" json:"accepted_problems"`
	WrongSubmissions  CountMap    `gorm:"type:text" json:"wrong_submissions"`
	AttemptedProblems FlagMap     `gorm:"type:text" json:"attempted_problems"`
}

// Submission is the immutable record of one judged attempt.
type Submission struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time

	ContestID string `gorm:"index" json:"contest_id"`
	ProblemID string `gorm:"index" json:"problem_id"`
	UserID    string `gorm:"index" json:"user_id"`
	User      User   `json:"user"`

	Language   string           `json:"language"`
	SourceCode string           `json:"source_code"`
	Status     SubmissionStatus `gorm:"index" json:"status"`
	Passed     int              `json:"passed"`
	Total      int              `json:"total"`
	RuntimeMS  int64            `json:"runtime_ms"`
	MemoryKB   int64            `json:"memory_kb"`
	IsLate     bool             `json:"is_late"`
	IsVirtual  bool             `json:"is_virtual"`
	IsValid    bool             `json:"is_valid"`
}

// UserSubmissionLog is the denormalized per-user submission history, projected
// asynchronously from the submissions table by the outbox worker.
type UserSubmissionLog struct {
	ID        uint `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time

	SubmissionID string           `gorm:"uniqueIndex" json:"submission_id"`
	UserID       string           `gorm:"index" json:"user_id"`
	ContestID    string           `json:"contest_id"`
	ProblemID    string           `json:"problem_id"`
	Language     string           `json:"language"`
	Status       SubmissionStatus `json:"status"`
	Passed       int              `json:"passed"`
	Total        int              `json:"total"`
	IsLate       bool             `json:"is_late"`
	IsVirtual    bool             `json:"is_virtual"`
	SubmittedAt  time.Time        `json:"submitted_at"`
}

// SubmissionOutbox queues a submission for projection into the per-user log.
type SubmissionOutbox struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	SubmissionID string `gorm:"uniqueIndex"`
	Attempts     int
	LastError    string
}
