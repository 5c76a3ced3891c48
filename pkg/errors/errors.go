package errors

import "errors"

// Gameplay errors. ErrInvalidAction is a rejection, never fatal: the
// orchestrator converts it into a fallback action.
var (
	ErrInvalidAction  = errors.New("invalid action")
	ErrMatchEnded     = errors.New("match already ended")
	ErrEngineNotReady = errors.New("engine requires two seated players")
	ErrSeatLimit      = errors.New("seat limit reached")
	ErrTeamTaken      = errors.New("team already has a seat")
	ErrUnknownSeat    = errors.New("unknown seat")
)

// Orchestrator errors.
var (
	ErrTurnLimit     = errors.New("turn safety limit exceeded")
	ErrMatchRunning  = errors.New("match already running")
	ErrMatchNotSetUp = errors.New("match not set up")
)

// AI provider errors.
var (
	ErrProviderNotFound = errors.New("ai provider not registered")
	ErrNoActionFound    = errors.New("no action found in ai response")
)

// Room / transport errors.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomCodeTaken = errors.New("room code already reserved")
)

// Admin / session errors.
var (
	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminDisabled        = errors.New("admin disabled")
	ErrInvalidAdminPassword = errors.New("invalid admin credentials")
	ErrSessionNotFound      = errors.New("session not found")
)
