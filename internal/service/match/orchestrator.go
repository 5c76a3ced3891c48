package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"haytruco/internal/service/ai"
	"haytruco/internal/service/game"
	appErr "haytruco/pkg/errors"
	"haytruco/pkg/logger"

	"go.uber.org/zap"
)

type Config struct {
	TurnDelay        time.Duration
	BetResponseDelay time.Duration
	MaxTurns         int
}

func DefaultConfig() Config {
	return Config{
		TurnDelay:        15 * time.Second,
		BetResponseDelay: time.Second,
		MaxTurns:         200,
	}
}

// SeatConfig binds one seat to a team and a decision backend.
type SeatConfig struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Team        game.Team `json:"team"`
	Provider    string    `json:"aiProvider"`
	Model       string    `json:"model"`
	Personality string    `json:"personality"`
}

// UpdateFunc receives the privileged projection after every state change.
type UpdateFunc func(game.PublicState)

// DecisionRecord is the telemetry for one decision-capability invocation.
type DecisionRecord struct {
	PlayerID   string
	PlayerName string
	Provider   string
	Model      string
	Response   string
	Action     game.Action
	Fallback   bool
}

type LogFunc func(rec DecisionRecord)

// Orchestrator drives one engine to completion: it determines whose decision
// is needed, asks that seat's backend, applies the result, and republishes
// state. One pending decision at a time; never two calls in parallel.
type Orchestrator struct {
	engine *game.Engine
	ai     *ai.Manager
	cfg    Config
	update UpdateFunc
	logf   LogFunc
	names  map[string]string

	mu        sync.Mutex // guards turnDelay, mutable while running
	turnDelay time.Duration

	apiCalls int
	ready    bool
	stopOnce sync.Once
	stop     chan struct{}
}

func NewOrchestrator(aiMgr *ai.Manager, cfg Config, update UpdateFunc, logf LogFunc) *Orchestrator {
	return &Orchestrator{
		engine:    game.NewEngine(),
		ai:        aiMgr,
		cfg:       cfg,
		update:    update,
		logf:      logf,
		names:     make(map[string]string),
		turnDelay: cfg.TurnDelay,
		stop:      make(chan struct{}),
	}
}

// Setup registers the seats and deals the first hand.
func (o *Orchestrator) Setup(seats []SeatConfig) error {
	o.engine.Reset()
	o.apiCalls = 0

	for _, seat := range seats {
		err := o.engine.AddPlayer(seat.ID, seat.Team, game.AgentBinding{
			Provider:    seat.Provider,
			Model:       seat.Model,
			Personality: seat.Personality,
		})
		if err != nil {
			return err
		}
		name := seat.Name
		if name == "" {
			name = seat.ID
		}
		o.names[seat.ID] = name
	}

	if err := o.engine.DealCards(); err != nil {
		return err
	}
	o.ready = true
	o.publish()
	return nil
}

// Run loops until the match ends, a stop arrives, or the safety cap is hit.
// The cap is an abnormal termination and is reported as ErrTurnLimit.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.ready {
		return appErr.ErrMatchNotSetUp
	}

	for turn := 0; turn < o.cfg.MaxTurns; turn++ {
		if o.stopped(ctx) {
			logger.Log.Info("match stopped", zap.Int("turns", turn), zap.Int("apiCalls", o.apiCalls))
			return nil
		}
		if o.engine.Ended() {
			logger.Log.Info("match finished", zap.Int("turns", turn), zap.Int("apiCalls", o.apiCalls))
			return nil
		}

		if err := o.playTurn(ctx); err != nil {
			return err
		}
		o.wait(ctx, o.currentTurnDelay())
	}

	if o.engine.Ended() {
		return nil
	}
	logger.Log.Error("match exceeded turn safety limit", zap.Int("maxTurns", o.cfg.MaxTurns))
	return appErr.ErrTurnLimit
}

// Stop aborts the loop before its next decision request. An in-flight
// decision call completes and its result is discarded with the match.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stop) })
}

func (o *Orchestrator) SetTurnDelay(d time.Duration) {
	o.mu.Lock()
	o.turnDelay = d
	o.mu.Unlock()
}

func (o *Orchestrator) currentTurnDelay() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.turnDelay
}

func (o *Orchestrator) APICalls() int {
	return o.apiCalls
}

func (o *Orchestrator) Result() (game.Team, map[game.Team]int, bool) {
	winner, ended := o.engine.Winner()
	return winner, o.engine.Score(), ended
}

func (o *Orchestrator) playTurn(ctx context.Context) error {
	actorID, betPending := o.engine.CurrentActor()

	// A short pause before a bid response, to separate it from the raise.
	if betPending {
		o.wait(ctx, o.cfg.BetResponseDelay)
	}

	view, err := o.engine.StateFor(actorID)
	if err != nil {
		return err
	}
	binding, err := o.engine.Binding(actorID)
	if err != nil {
		return err
	}

	var prompt string
	if betPending {
		prompt = buildBetResponsePrompt(view, o.engine.LegalResponses(actorID))
	} else {
		prompt = buildTurnPrompt(view, binding.Personality, o.engine.LegalBids(actorID))
	}

	o.apiCalls++
	action, raw, err := o.ai.Decide(ctx, binding.Provider, binding.Model, prompt, ai.Options{
		Temperature: temperatureForPersonality(binding.Personality),
	})

	fallback := false
	if err != nil {
		logger.Log.Warn("decision backend failed, applying fallback",
			zap.String("player", actorID),
			zap.Error(err),
		)
		action = fallbackAction(view, betPending)
		fallback = true
	}

	procErr := o.engine.ProcessAction(actorID, action)
	if errors.Is(procErr, appErr.ErrInvalidAction) {
		logger.Log.Warn("invalid action, applying fallback",
			zap.String("player", actorID),
			zap.String("accion", string(action.Type)),
			zap.String("valor", action.Value),
		)
		action = fallbackAction(view, betPending)
		fallback = true
		procErr = o.engine.ProcessAction(actorID, action)
	}
	if procErr != nil {
		if errors.Is(procErr, appErr.ErrInvalidAction) {
			// The deterministic fallback should always be legal; if it is
			// not, something is off with the state machine. Keep looping,
			// the turn cap bounds the damage.
			logger.Log.Error("fallback action rejected", zap.String("player", actorID))
		} else {
			return procErr
		}
	}

	if o.logf != nil {
		o.logf(DecisionRecord{
			PlayerID:   actorID,
			PlayerName: o.names[actorID],
			Provider:   binding.Provider,
			Model:      binding.Model,
			Response:   raw,
			Action:     action,
			Fallback:   fallback,
		})
	}

	o.publish()
	return nil
}

// fallbackAction keeps the match progressing: play the first card in hand on
// a normal turn, reject the outstanding bet otherwise.
func fallbackAction(view *game.PlayerView, betPending bool) game.Action {
	if !betPending && len(view.MyCards) > 0 {
		return game.Action{
			Type:   game.ActionPlay,
			Value:  view.MyCards[0].ID,
			Reason: "Fallback - playing first card",
		}
	}
	return game.Action{
		Type:   game.ActionRespond,
		Value:  game.RespondReject,
		Reason: "Fallback - playing safe",
	}
}

func (o *Orchestrator) publish() {
	if o.update != nil {
		o.update(o.engine.PublicState(true))
	}
}

func (o *Orchestrator) stopped(ctx context.Context) bool {
	select {
	case <-o.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-o.stop:
	case <-ctx.Done():
	}
}
