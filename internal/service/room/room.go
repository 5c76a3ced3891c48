package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"haytruco/internal/model"
	"haytruco/internal/service/game"
	"haytruco/internal/service/match"
	"haytruco/internal/service/session"
	appErr "haytruco/pkg/errors"
	"haytruco/pkg/logger"

	"go.uber.org/zap"
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// Room owns one orchestrated match and fans its state out to subscribers.
// The engine itself is only ever touched by the orchestrator goroutine; the
// room keeps the last published projection for late joiners.
type Room struct {
	id  string
	svc *Service

	mu          sync.Mutex
	orc         *match.Orchestrator
	seq         int64
	nextSub     int64
	subscribers map[int64]chan OutgoingMessage
	lastState   *game.PublicState
	running     bool
	sessionID   string
}

func newRoom(id string, svc *Service) *Room {
	return &Room{
		id:          id,
		svc:         svc,
		subscribers: make(map[int64]chan OutgoingMessage),
	}
}

func (r *Room) ID() string {
	return r.id
}

// Subscribe registers a spectator channel. The last known state is replayed
// immediately so a late joiner is not blank until the next turn.
func (r *Room) Subscribe() (int64, chan OutgoingMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSub++
	id := r.nextSub
	ch := make(chan OutgoingMessage, 8)
	r.subscribers[id] = ch

	if r.lastState != nil {
		ch <- OutgoingMessage{Type: "game_update", Seq: r.seq, Data: *r.lastState}
	}
	return id, ch
}

func (r *Room) Unsubscribe(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.subscribers[id]; ok {
		delete(r.subscribers, id)
		close(ch)
	}
}

// Start seats the agents, persists a session record, and launches the match
// loop in its own goroutine. A room runs one match at a time.
func (r *Room) Start(ctx context.Context, seats []match.SeatConfig) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return appErr.ErrMatchRunning
	}
	orc := match.NewOrchestrator(r.svc.ai, r.svc.cfg, r.onUpdate, r.onDecision)
	r.orc = orc
	r.running = true
	r.mu.Unlock()

	if err := orc.Setup(seats); err != nil {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return err
	}

	if r.svc.sessions != nil {
		sess, err := r.svc.sessions.StartSession(ctx, r.id)
		if err != nil {
			logger.Log.Error("failed to persist session", zap.String("roomID", r.id), zap.Error(err))
		} else {
			r.mu.Lock()
			r.sessionID = sess.ID
			r.mu.Unlock()
		}
	}

	// Detached from the request context: the match keeps running after the
	// creating connection goes away.
	go r.run(context.Background())
	return nil
}

func (r *Room) run(ctx context.Context) {
	r.mu.Lock()
	orc := r.orc
	sessionID := r.sessionID
	r.mu.Unlock()

	err := orc.Run(ctx)
	winner, score, ended := orc.Result()

	status := model.SessionFinished
	winnerStr := ""
	switch {
	case errors.Is(err, appErr.ErrTurnLimit):
		status = model.SessionAborted
		r.broadcast("game_error", map[string]interface{}{"message": "turn safety limit reached"})
	case err != nil:
		status = model.SessionAborted
		logger.Log.Error("match loop failed", zap.String("roomID", r.id), zap.Error(err))
		r.broadcast("game_error", map[string]interface{}{"message": err.Error()})
	case !ended:
		status = model.SessionAborted
		r.broadcast("game_stopped", map[string]interface{}{"roomId": r.id})
	default:
		winnerStr = string(winner)
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	if r.svc.sessions != nil && sessionID != "" {
		finishErr := r.svc.sessions.FinishSession(ctx, sessionID, status, winnerStr,
			score[game.Team1], score[game.Team2], orc.APICalls())
		if finishErr != nil {
			logger.Log.Error("failed to finish session", zap.String("sessionID", sessionID), zap.Error(finishErr))
		}
	}

	payload, marshalErr := json.Marshal(map[string]interface{}{
		"roomId": r.id,
		"status": status,
		"winner": winnerStr,
		"score": map[string]int{
			string(game.Team1): score[game.Team1],
			string(game.Team2): score[game.Team2],
		},
	})
	if marshalErr == nil {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r.svc.cacheResult(cacheCtx, r.id, payload)
		cancel()
	}

	logger.Log.Info("match loop exited",
		zap.String("roomID", r.id),
		zap.String("status", status),
		zap.String("winner", winnerStr),
	)
}

// Stop aborts the running match. Safe to call on an idle room.
func (r *Room) Stop() {
	r.mu.Lock()
	orc := r.orc
	r.mu.Unlock()

	if orc != nil {
		orc.Stop()
	}
}

// SetSpeed adjusts the pause between turns mid-match.
func (r *Room) SetSpeed(delay time.Duration) {
	r.mu.Lock()
	orc := r.orc
	r.mu.Unlock()

	if orc != nil {
		orc.SetTurnDelay(delay)
	}
}

func (r *Room) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Room) onUpdate(state game.PublicState) {
	r.mu.Lock()
	r.lastState = &state
	r.mu.Unlock()
	r.broadcast("game_update", state)
}

func (r *Room) onDecision(rec match.DecisionRecord) {
	logger.Log.Info("decision applied",
		zap.String("roomID", r.id),
		zap.String("player", rec.PlayerID),
		zap.String("provider", rec.Provider),
		zap.String("accion", string(rec.Action.Type)),
		zap.String("valor", rec.Action.Value),
		zap.Bool("fallback", rec.Fallback),
	)

	r.mu.Lock()
	sessionID := r.sessionID
	r.mu.Unlock()

	if r.svc.sessions == nil || sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.svc.sessions.LogDecision(ctx, session.DecisionParams{
		SessionID:   sessionID,
		PlayerID:    rec.PlayerID,
		Provider:    rec.Provider,
		Model:       rec.Model,
		Response:    rec.Response,
		ActionType:  string(rec.Action.Type),
		ActionValue: rec.Action.Value,
		Fallback:    rec.Fallback,
	})
	if err != nil {
		logger.Log.Warn("failed to log decision", zap.String("sessionID", sessionID), zap.Error(err))
	}
}

func (r *Room) broadcast(msgType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	msg := OutgoingMessage{Type: msgType, Seq: r.seq, Data: data}
	for id, ch := range r.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full",
				zap.Int64("subscriberID", id), zap.String("roomID", r.id))
		}
	}
}
