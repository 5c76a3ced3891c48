package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"haytruco/internal/model"
	sessionsvc "haytruco/internal/service/session"
	appErr "haytruco/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSessionService(t *testing.T) (*gorm.DB, *sessionsvc.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.MatchSession{}, &model.DecisionLog{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db, sessionsvc.NewService(db)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	db, svc := newSessionService(t)

	sess, err := svc.StartSession(ctx, "ABC123")
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	if sess.ID == "" || sess.Status != model.SessionRunning {
		t.Fatalf("unexpected session: %+v", sess)
	}

	err = svc.FinishSession(ctx, sess.ID, model.SessionFinished, "team1", 30, 17, 84)
	if err != nil {
		t.Fatalf("finish session failed: %v", err)
	}

	var stored model.MatchSession
	if err := db.First(&stored, "id = ?", sess.ID).Error; err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if stored.Status != model.SessionFinished || stored.WinnerTeam != "team1" {
		t.Fatalf("unexpected stored session: %+v", stored)
	}
	if stored.ScoreTeam1 != 30 || stored.ScoreTeam2 != 17 || stored.Turns != 84 {
		t.Fatalf("unexpected final numbers: %+v", stored)
	}
}

func TestFinishSessionNotFound(t *testing.T) {
	_, svc := newSessionService(t)

	err := svc.FinishSession(context.Background(), "missing", model.SessionAborted, "", 0, 0, 0)
	if !errors.Is(err, appErr.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestLogAndListDecisions(t *testing.T) {
	ctx := context.Background()
	_, svc := newSessionService(t)

	sess, err := svc.StartSession(ctx, "ABC123")
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := svc.LogDecision(ctx, sessionsvc.DecisionParams{
			SessionID:   sess.ID,
			PlayerID:    "p1",
			Provider:    "ollama",
			Model:       "llama3.1",
			Response:    `{"accion":"tirar","valor":"7-espadas"}`,
			ActionType:  "tirar",
			ActionValue: "7-espadas",
			Fallback:    i == 2,
		})
		if err != nil {
			t.Fatalf("log decision %d failed: %v", i, err)
		}
	}

	result, err := svc.ListDecisions(ctx, sess.ID, 1, 2)
	if err != nil {
		t.Fatalf("list decisions failed: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected total=3, got %d", result.Total)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected page size 2, got %d", len(result.Items))
	}
	if result.Items[0].ID > result.Items[1].ID {
		t.Fatalf("decisions should come back in play order")
	}
}

func TestListDecisionsUnknownSession(t *testing.T) {
	_, svc := newSessionService(t)

	_, err := svc.ListDecisions(context.Background(), "missing", 1, 20)
	if !errors.Is(err, appErr.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessionsPagination(t *testing.T) {
	ctx := context.Background()
	_, svc := newSessionService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.StartSession(ctx, fmt.Sprintf("ROOM%d", i)); err != nil {
			t.Fatalf("start session %d failed: %v", i, err)
		}
	}

	result, err := svc.ListSessions(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list sessions failed: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected total=3, got %d", result.Total)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected page size 2, got %d", len(result.Items))
	}
}
