package model

import "time"

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	SessionRunning  = "running"
	SessionFinished = "finished"
	SessionAborted  = "aborted"
)

// MatchSession is one match process from deal to game end (or abort).
type MatchSession struct {
	ID         string `gorm:"primaryKey"` // uuid
	RoomID     string `gorm:"index;not null"`
	Status     string `gorm:"default:running;not null"` // running/finished/aborted
	WinnerTeam string
	ScoreTeam1 int
	ScoreTeam2 int
	Turns      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DecisionLog records one decision-capability invocation and what was applied.
type DecisionLog struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	SessionID   string `gorm:"index;not null"`
	PlayerID    string
	Provider    string
	Model       string
	Response    string // raw backend output
	ActionType  string
	ActionValue string
	Fallback    bool // true when the applied action was the deterministic fallback
	CreatedAt   time.Time
}
