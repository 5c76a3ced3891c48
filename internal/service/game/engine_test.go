package game

import (
	"errors"
	"math/rand"
	"testing"

	appErr "haytruco/pkg/errors"
)

func newSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e := NewEngine()
	e.SetRand(newSeededRand(7))
	if err := e.AddPlayer("p1", Team1, AgentBinding{Provider: "ollama", Model: "llama3.1"}); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if err := e.AddPlayer("p2", Team2, AgentBinding{Provider: "ollama", Model: "llama3.1"}); err != nil {
		t.Fatalf("add p2: %v", err)
	}
	if err := e.DealCards(); err != nil {
		t.Fatalf("deal: %v", err)
	}
	return e
}

// setHands rewinds the deal to a scripted position with p1 as mano.
func setHands(e *Engine, h1, h2 []Card) {
	e.players[0].Hand = append([]Card(nil), h1...)
	e.players[1].Hand = append([]Card(nil), h2...)
	e.players[0].Played = nil
	e.players[1].Played = nil
	e.mano = 0
	e.currentTurn = 0
	e.table = nil
	e.tricksPlayed = 0
	e.roundWins = map[Team]int{Team1: 0, Team2: 0}
	e.trucoState = ""
	e.envidoState = ""
	e.currentBet = nil
}

func play(t *testing.T, e *Engine, player, cardID string) {
	t.Helper()
	if err := e.ProcessAction(player, Action{Type: ActionPlay, Value: cardID}); err != nil {
		t.Fatalf("%s plays %s: %v", player, cardID, err)
	}
}

func raise(t *testing.T, e *Engine, player, bid string) {
	t.Helper()
	if err := e.ProcessAction(player, Action{Type: ActionRaise, Value: bid}); err != nil {
		t.Fatalf("%s raises %s: %v", player, bid, err)
	}
}

func respond(t *testing.T, e *Engine, player, value string) {
	t.Helper()
	if err := e.ProcessAction(player, Action{Type: ActionRespond, Value: value}); err != nil {
		t.Fatalf("%s responds %s: %v", player, value, err)
	}
}

func TestAddPlayerLimits(t *testing.T) {
	e := NewEngine()
	if err := e.AddPlayer("a", Team1, AgentBinding{}); err != nil {
		t.Fatalf("first seat: %v", err)
	}
	if err := e.AddPlayer("b", Team1, AgentBinding{}); !errors.Is(err, appErr.ErrTeamTaken) {
		t.Fatalf("expected ErrTeamTaken, got %v", err)
	}
	if err := e.AddPlayer("b", Team2, AgentBinding{}); err != nil {
		t.Fatalf("second seat: %v", err)
	}
	if err := e.AddPlayer("c", Team1, AgentBinding{}); !errors.Is(err, appErr.ErrSeatLimit) {
		t.Fatalf("expected ErrSeatLimit, got %v", err)
	}
}

func TestTrickHighestPowerWins(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("1-espadas", "5-oros", "4-copas"), hand("7-oros", "6-bastos", "4-espadas"))

	play(t, e, "p1", "1-espadas")
	play(t, e, "p2", "7-oros")

	if e.roundWins[Team1] != 1 || e.roundWins[Team2] != 0 {
		t.Fatalf("expected team1 to take the trick, got %v", e.roundWins)
	}
	if len(e.table) != 0 {
		t.Fatalf("table should be cleared after the trick")
	}
	if actor, bet := e.CurrentActor(); actor != "p1" || bet {
		t.Fatalf("trick winner should lead next, got %s (bet=%v)", actor, bet)
	}
}

func TestPardaGoesToMano(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("3-oros", "5-oros", "4-copas"), hand("3-copas", "6-bastos", "4-espadas"))

	play(t, e, "p1", "3-oros")
	play(t, e, "p2", "3-copas")

	if e.roundWins[Team1] != 1 {
		t.Fatalf("tied trick should go to the mano team, got %v", e.roundWins)
	}
}

func TestDealEndsAfterTwoTricks(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("1-espadas", "1-bastos", "4-copas"), hand("4-oros", "4-bastos", "5-espadas"))

	play(t, e, "p1", "1-espadas")
	play(t, e, "p2", "4-oros")
	play(t, e, "p1", "1-bastos")
	play(t, e, "p2", "4-bastos")

	if got := e.Score()[Team1]; got != 1 {
		t.Fatalf("plain deal should be worth 1 point, got %d", got)
	}
	if e.mano != 1 {
		t.Fatalf("mano should rotate to the next seat, got %d", e.mano)
	}
	for _, p := range e.players {
		if len(p.Hand) != 3 {
			t.Fatalf("next deal should be dealt, %s holds %d cards", p.ID, len(p.Hand))
		}
	}
	if e.roundWins[Team1] != 0 || e.roundWins[Team2] != 0 {
		t.Fatalf("trick wins should reset between deals, got %v", e.roundWins)
	}
}

func TestTrucoAcceptedDealWorthTwo(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("1-espadas", "1-bastos", "4-copas"), hand("4-oros", "4-bastos", "5-espadas"))

	raise(t, e, "p1", BidTruco)
	respond(t, e, "p2", RespondAccept)

	if e.trucoState != BidTruco {
		t.Fatalf("accepted truco should stick, got %q", e.trucoState)
	}

	play(t, e, "p1", "1-espadas")
	play(t, e, "p2", "4-oros")
	play(t, e, "p1", "1-bastos")
	play(t, e, "p2", "4-bastos")

	if got := e.Score()[Team1]; got != 2 {
		t.Fatalf("truco deal should be worth 2 points, got %d", got)
	}
}

func TestTrucoRejectedEndsDealImmediately(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("1-espadas", "1-bastos", "4-copas"), hand("4-oros", "4-bastos", "5-espadas"))

	play(t, e, "p1", "1-espadas")
	play(t, e, "p2", "4-oros")
	raise(t, e, "p1", BidTruco)
	respond(t, e, "p2", RespondReject)

	if got := e.Score()[Team1]; got != 1 {
		t.Fatalf("rejected truco should pay 1 to the proposer, got %d", got)
	}
	if e.mano != 1 {
		t.Fatalf("deal should end on rejection, mano=%d", e.mano)
	}
	if len(e.table) != 0 || e.trucoState != "" {
		t.Fatalf("deal state should be reset after rejection")
	}
	if e.Ended() {
		t.Fatalf("match should continue")
	}
}

func TestVale4Chain(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("1-espadas", "1-bastos", "4-copas"), hand("4-oros", "4-bastos", "5-espadas"))

	raise(t, e, "p1", BidTruco)
	respond(t, e, "p2", BidRetruco)
	respond(t, e, "p1", BidVale4)
	respond(t, e, "p2", RespondAccept)

	if e.trucoState != BidVale4 {
		t.Fatalf("expected vale4 accepted, got %q", e.trucoState)
	}

	play(t, e, "p1", "1-espadas")
	play(t, e, "p2", "4-oros")
	play(t, e, "p1", "1-bastos")
	play(t, e, "p2", "4-bastos")

	if got := e.Score()[Team1]; got != 4 {
		t.Fatalf("vale4 deal should be worth 4 points, got %d", got)
	}
}

func TestEnvidoAcceptedScoresHandValues(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))

	raise(t, e, "p1", BidEnvido)
	respond(t, e, "p2", RespondAccept)

	if got := e.Score()[Team1]; got != 2 {
		t.Fatalf("envido should pay 2 to the better hand, got %d", got)
	}
	if e.envidoState != BidEnvido {
		t.Fatalf("envido should be marked resolved")
	}

	// Only one envido sequence per deal.
	if e.ValidateAction("p1", Action{Type: ActionRaise, Value: BidEnvido}) {
		t.Fatalf("second envido in the same deal should be illegal")
	}
}

func TestEnvidoTieGoesToMano(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-oros", "6-oros", "4-copas"), hand("7-bastos", "6-bastos", "4-espadas"))

	raise(t, e, "p1", BidEnvido)
	respond(t, e, "p2", RespondAccept)

	if got := e.Score()[Team1]; got != 2 {
		t.Fatalf("tied envido should pay the mano team, got score %v", e.Score())
	}
}

func TestEnvidoRejectedPaysOne(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))

	raise(t, e, "p1", BidEnvido)
	respond(t, e, "p2", RespondReject)

	if got := e.Score()[Team1]; got != 1 {
		t.Fatalf("rejected envido should pay 1, got %d", got)
	}
	if e.envidoState != "" {
		t.Fatalf("rejected envido leaves no resolved state")
	}
	// The deal itself continues.
	if actor, bet := e.CurrentActor(); actor != "p1" || bet {
		t.Fatalf("play should resume with the lead, got %s (bet=%v)", actor, bet)
	}
}

func TestEnvidoChainEscalatesToFalta(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))

	raise(t, e, "p1", BidEnvido)
	respond(t, e, "p2", BidRealEnvido)
	respond(t, e, "p1", BidFaltaEnvido)
	respond(t, e, "p2", RespondAccept)

	// Falta at 0-0 is worth the full 30: the match ends here.
	if got := e.Score()[Team1]; got != 30 {
		t.Fatalf("falta-envido at 0-0 should award 30, got %d", got)
	}
	if !e.Ended() {
		t.Fatalf("reaching 30 should end the match")
	}
	if winner, ok := e.Winner(); !ok || winner != Team1 {
		t.Fatalf("expected team1 to win, got %v %v", winner, ok)
	}
}

func TestFaltaEnvidoValueTracksLeader(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))
	e.score[Team2] = 25

	raise(t, e, "p1", BidFaltaEnvido)
	respond(t, e, "p2", RespondAccept)

	if got := e.Score()[Team1]; got != 5 {
		t.Fatalf("falta should be worth 30 minus the leading score, got %d", got)
	}
	if e.Ended() {
		t.Fatalf("5 points should not end the match")
	}
}

func TestEnvidoIllegalAfterCardPlayed(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("4-copas", "5-oros", "6-bastos"), hand("4-oros", "5-espadas", "6-copas"))

	play(t, e, "p1", "4-copas")

	err := e.ProcessAction("p2", Action{Type: ActionRaise, Value: BidEnvido})
	if !errors.Is(err, appErr.ErrInvalidAction) {
		t.Fatalf("envido after a played card should be invalid, got %v", err)
	}
}

func TestEnvidoBlockedOnceTrucoAccepted(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("4-copas", "5-oros", "6-bastos"), hand("4-oros", "5-espadas", "6-copas"))

	raise(t, e, "p1", BidTruco)
	respond(t, e, "p2", RespondAccept)

	err := e.ProcessAction("p1", Action{Type: ActionRaise, Value: BidEnvido})
	if !errors.Is(err, appErr.ErrInvalidAction) {
		t.Fatalf("envido after truco should be invalid, got %v", err)
	}
}

func TestTrucoLegalAfterEnvidoResolved(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))

	raise(t, e, "p1", BidEnvido)
	respond(t, e, "p2", RespondAccept)

	// The envido track closes, the truco track stays open.
	raise(t, e, "p1", BidTruco)
	respond(t, e, "p2", RespondAccept)
	if e.trucoState != BidTruco {
		t.Fatalf("truco should remain legal after envido, got %q", e.trucoState)
	}
}

func TestRealEnvidoCounterAccepted(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))

	raise(t, e, "p1", BidEnvido)
	respond(t, e, "p2", BidRealEnvido)
	respond(t, e, "p1", RespondAccept)

	if got := e.Score()[Team1]; got != 3 {
		t.Fatalf("accepted real-envido pays 3, got %d", got)
	}
	if e.envidoState != BidRealEnvido {
		t.Fatalf("resolved state should be the final bid, got %q", e.envidoState)
	}
}

func TestFaltaEnvidoAtTwentyEight(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("7-espadas", "6-espadas", "2-oros"), hand("12-copas", "11-copas", "4-oros"))
	e.score[Team1] = 28
	e.score[Team2] = 10

	raise(t, e, "p1", BidFaltaEnvido)
	respond(t, e, "p2", RespondAccept)

	if got := e.Score()[Team1]; got != 30 {
		t.Fatalf("falta from 28 should land exactly on 30, got %d", got)
	}
	if winner, ok := e.Winner(); !ok || winner != Team1 {
		t.Fatalf("expected team1 to close the match, got %v %v", winner, ok)
	}
}

func TestCounterRaiseRestrictedToFamily(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("4-copas", "5-oros", "6-bastos"), hand("4-oros", "5-espadas", "6-copas"))

	raise(t, e, "p1", BidEnvido)

	err := e.ProcessAction("p2", Action{Type: ActionRespond, Value: BidRetruco})
	if !errors.Is(err, appErr.ErrInvalidAction) {
		t.Fatalf("retruco is no answer to envido, got %v", err)
	}

	respond(t, e, "p2", BidRealEnvido)
	if e.currentBet == nil || e.currentBet.Type != BidRealEnvido || e.currentBet.WaitingFor != "p1" {
		t.Fatalf("counter-raise should flip the bet, got %+v", e.currentBet)
	}
}

func TestNoNewBidsOnDecidingTrickWithCardDown(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("3-oros"), hand("4-oros"))
	e.roundWins = map[Team]int{Team1: 1, Team2: 1}
	e.tricksPlayed = 2

	play(t, e, "p1", "3-oros")

	err := e.ProcessAction("p2", Action{Type: ActionRaise, Value: BidTruco})
	if !errors.Is(err, appErr.ErrInvalidAction) {
		t.Fatalf("raising under the deciding card should be invalid, got %v", err)
	}

	play(t, e, "p2", "4-oros")
	if got := e.Score()[Team1]; got != 1 {
		t.Fatalf("team1 takes the deciding trick, score %v", e.Score())
	}
}

func TestMatchEndsOnTrucoRejectAtThreshold(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("4-copas", "5-oros", "6-bastos"), hand("4-oros", "5-espadas", "6-copas"))
	e.score[Team1] = 29

	raise(t, e, "p1", BidTruco)
	respond(t, e, "p2", RespondReject)

	if !e.Ended() {
		t.Fatalf("score 30 should end the match")
	}
	if winner, ok := e.Winner(); !ok || winner != Team1 {
		t.Fatalf("expected team1 victory, got %v %v", winner, ok)
	}

	err := e.ProcessAction("p2", Action{Type: ActionPlay, Value: "4-oros"})
	if !errors.Is(err, appErr.ErrMatchEnded) {
		t.Fatalf("actions after the end should fail with ErrMatchEnded, got %v", err)
	}
}

func TestCurrentActorDuringBet(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("4-copas", "5-oros", "6-bastos"), hand("4-oros", "5-espadas", "6-copas"))

	raise(t, e, "p1", BidEnvido)

	actor, bet := e.CurrentActor()
	if actor != "p2" || !bet {
		t.Fatalf("bet should hand priority to the responder, got %s (bet=%v)", actor, bet)
	}
	if bids := e.LegalBids("p2"); bids != nil {
		t.Fatalf("no fresh bids while one is outstanding, got %v", bids)
	}

	want := []string{RespondAccept, RespondReject, BidRealEnvido, BidFaltaEnvido}
	got := e.LegalResponses("p2")
	if len(got) != len(want) {
		t.Fatalf("legal responses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("legal responses = %v, want %v", got, want)
		}
	}
}

func TestThoughtLoggedEvenForRejectedAction(t *testing.T) {
	e := newTestEngine(t)
	setHands(e, hand("4-copas", "5-oros", "6-bastos"), hand("4-oros", "5-espadas", "6-copas"))

	err := e.ProcessAction("p2", Action{Type: ActionPlay, Value: "4-oros", Thought: "tengo que esperar"})
	if !errors.Is(err, appErr.ErrInvalidAction) {
		t.Fatalf("playing out of turn should be invalid, got %v", err)
	}

	state := e.PublicState(true)
	if len(state.PrivateThoughts) != 1 {
		t.Fatalf("thought should be recorded before validation, got %d", len(state.PrivateThoughts))
	}

	view, err := e.StateFor("p1")
	if err != nil {
		t.Fatalf("state for p1: %v", err)
	}
	for _, ev := range view.History {
		if ev.Type == EventPrivateThought {
			t.Fatalf("seat view must not leak private thoughts")
		}
	}
}

func TestObserverProjectionHidesHands(t *testing.T) {
	e := newTestEngine(t)

	state := e.PublicState(false)
	for _, seat := range state.Players {
		if len(seat.Cards) != 0 || seat.Envido != nil {
			t.Fatalf("observer view must not expose hands, got %+v", seat)
		}
		if seat.CardsCount != 3 {
			t.Fatalf("card counts stay visible, got %d", seat.CardsCount)
		}
	}
	for _, ev := range state.History {
		if !ev.Public {
			t.Fatalf("observer history must only carry public events")
		}
	}
}
