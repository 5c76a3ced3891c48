package session

import (
	"context"

	"haytruco/internal/model"
	appErr "haytruco/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	db *gorm.DB
}

type ListResult struct {
	Items []model.MatchSession
	Total int64
}

type DecisionListResult struct {
	Items []model.DecisionLog
	Total int64
}

// DecisionParams is one backend decision as the orchestrator saw it.
type DecisionParams struct {
	SessionID   string
	PlayerID    string
	Provider    string
	Model       string
	Response    string
	ActionType  string
	ActionValue string
	Fallback    bool
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func normalizePagination(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// StartSession records a new running match bound to a room code.
func (s *Service) StartSession(ctx context.Context, roomID string) (*model.MatchSession, error) {
	sess := model.MatchSession{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Status: model.SessionRunning,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// FinishSession closes a session with its final outcome. Winner is empty for
// aborted matches.
func (s *Service) FinishSession(ctx context.Context, id, status, winner string, scoreTeam1, scoreTeam2, turns int) error {
	result := s.db.WithContext(ctx).
		Model(&model.MatchSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"winner_team": winner,
			"score_team1": scoreTeam1,
			"score_team2": scoreTeam2,
			"turns":       turns,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appErr.ErrSessionNotFound
	}
	return nil
}

func (s *Service) LogDecision(ctx context.Context, params DecisionParams) error {
	entry := model.DecisionLog{
		SessionID:   params.SessionID,
		PlayerID:    params.PlayerID,
		Provider:    params.Provider,
		Model:       params.Model,
		Response:    params.Response,
		ActionType:  params.ActionType,
		ActionValue: params.ActionValue,
		Fallback:    params.Fallback,
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

func (s *Service) ListSessions(ctx context.Context, page, size int) (*ListResult, error) {
	page, size = normalizePagination(page, size)

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.MatchSession{}).Count(&total).Error; err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: make([]model.MatchSession, 0),
		Total: total,
	}
	if total == 0 {
		return result, nil
	}

	offset := (page - 1) * size
	if err := s.db.WithContext(ctx).
		Model(&model.MatchSession{}).
		Order("created_at DESC").
		Limit(size).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) ListDecisions(ctx context.Context, sessionID string, page, size int) (*DecisionListResult, error) {
	page, size = normalizePagination(page, size)

	var exists int64
	if err := s.db.WithContext(ctx).
		Model(&model.MatchSession{}).
		Where("id = ?", sessionID).
		Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, appErr.ErrSessionNotFound
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.DecisionLog{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	result := &DecisionListResult{
		Items: make([]model.DecisionLog, 0),
		Total: total,
	}
	if total == 0 {
		return result, nil
	}

	offset := (page - 1) * size
	if err := s.db.WithContext(ctx).
		Model(&model.DecisionLog{}).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Limit(size).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}
	return result, nil
}
