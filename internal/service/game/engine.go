package game

import (
	"math/rand"
	"time"

	appErr "haytruco/pkg/errors"
)

const (
	WinningScore   = 30
	cardsPerPlayer = 3
	maxTricks      = 3
)

type Team string

const (
	Team1 Team = "team1"
	Team2 Team = "team2"
)

func (t Team) Opponent() Team {
	if t == Team1 {
		return Team2
	}
	return Team1
}

type ActionType string

const (
	ActionPlay    ActionType = "tirar"
	ActionRaise   ActionType = "cantar"
	ActionRespond ActionType = "responder"
)

// Action is the normalized decision payload. All free-text fields are
// optional flavor coming back from the decision backend.
type Action struct {
	Type    ActionType `json:"accion"`
	Value   string     `json:"valor"`
	Reason  string     `json:"razon,omitempty"`
	Thought string     `json:"pensamiento,omitempty"`
	Phrase  string     `json:"frase,omitempty"`
}

// Bid tokens. The envido family wagers on hand composition before any card
// is played; the truco family escalates the points the deal's tricks are
// worth.
const (
	BidEnvido      = "envido"
	BidRealEnvido  = "real-envido"
	BidFaltaEnvido = "falta-envido"
	BidTruco       = "truco"
	BidRetruco     = "retruco"
	BidVale4       = "vale4"

	RespondAccept = "quiero"
	RespondReject = "no-quiero"
)

// counterBids maps an outstanding bid to the raises accepted as a response.
var counterBids = map[string][]string{
	BidEnvido:     {BidRealEnvido, BidFaltaEnvido},
	BidRealEnvido: {BidFaltaEnvido},
	BidTruco:      {BidRetruco},
	BidRetruco:    {BidVale4},
}

func isEnvidoBid(bid string) bool {
	return bid == BidEnvido || bid == BidRealEnvido || bid == BidFaltaEnvido
}

func isTrucoBid(bid string) bool {
	return bid == BidTruco || bid == BidRetruco || bid == BidVale4
}

// Phase is the explicit match phase, derived from bet/table/score state.
type Phase string

const (
	PhaseAwaitingLead        Phase = "awaiting_lead"
	PhaseAwaitingFollow      Phase = "awaiting_follow"
	PhaseAwaitingBidResponse Phase = "awaiting_bid_response"
	PhaseMatchEnded          Phase = "match_ended"
)

// AgentBinding ties a seat to its decision backend.
type AgentBinding struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Personality string `json:"personality"`
}

type Player struct {
	ID     string
	Team   Team
	Agent  AgentBinding
	Hand   []Card
	Played []Card
}

type TableEntry struct {
	PlayerID string `json:"playerId"`
	Card     Card   `json:"card"`
	Team     Team   `json:"team"`
}

type Bet struct {
	Type       string `json:"type"`
	Proposer   string `json:"proposer"`
	WaitingFor string `json:"waitingFor"`
}

// Engine owns the authoritative state of one match. It is not safe for
// concurrent use; each match has exactly one driving orchestrator.
type Engine struct {
	players      []*Player
	currentTurn  int
	mano         int
	score        map[Team]int
	roundWins    map[Team]int
	table        []TableEntry
	trucoState   string
	envidoState  string
	currentBet   *Bet
	tricksPlayed int
	history      []Event
	ended        bool
	rng          *rand.Rand
}

func NewEngine() *Engine {
	e := &Engine{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	e.Reset()
	return e
}

// SetRand replaces the shuffle source, for deterministic deals in tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.rng = rng
}

func (e *Engine) Reset() {
	e.players = nil
	e.currentTurn = 0
	e.mano = 0
	e.score = map[Team]int{Team1: 0, Team2: 0}
	e.roundWins = map[Team]int{Team1: 0, Team2: 0}
	e.table = nil
	e.trucoState = ""
	e.envidoState = ""
	e.currentBet = nil
	e.tricksPlayed = 0
	e.history = nil
	e.ended = false
}

// AddPlayer registers a seat. Exactly two seats, one per team.
func (e *Engine) AddPlayer(id string, team Team, agent AgentBinding) error {
	if len(e.players) >= 2 {
		return appErr.ErrSeatLimit
	}
	for _, p := range e.players {
		if p.Team == team {
			return appErr.ErrTeamTaken
		}
	}
	e.players = append(e.players, &Player{ID: id, Team: team, Agent: agent})
	return nil
}

// DealCards shuffles a fresh deck and gives each seat three cards. The deal's
// mano leads the first trick.
func (e *Engine) DealCards() error {
	if len(e.players) != 2 {
		return appErr.ErrEngineNotReady
	}

	deck := NewDeck(e.rng)
	for i, p := range e.players {
		hand := make([]Card, cardsPerPlayer)
		copy(hand, deck[i*cardsPerPlayer:(i+1)*cardsPerPlayer])
		p.Hand = hand
		p.Played = nil
	}

	e.currentTurn = e.mano
	e.tricksPlayed = 0
	e.logEvent(EventDeal, false, map[string]interface{}{"mano": e.mano})
	return nil
}

func (e *Engine) Ended() bool {
	return e.ended
}

func (e *Engine) Phase() Phase {
	switch {
	case e.ended:
		return PhaseMatchEnded
	case e.currentBet != nil:
		return PhaseAwaitingBidResponse
	case len(e.table) == 0:
		return PhaseAwaitingLead
	default:
		return PhaseAwaitingFollow
	}
}

// CurrentActor names the seat whose decision is needed next. The second
// return is true when that decision is a response to an outstanding bet.
func (e *Engine) CurrentActor() (string, bool) {
	if len(e.players) == 0 {
		return "", false
	}
	if e.currentBet != nil {
		return e.currentBet.WaitingFor, true
	}
	return e.players[e.currentTurn].ID, false
}

func (e *Engine) Binding(playerID string) (AgentBinding, error) {
	p := e.playerByID(playerID)
	if p == nil {
		return AgentBinding{}, appErr.ErrUnknownSeat
	}
	return p.Agent, nil
}

func (e *Engine) Score() map[Team]int {
	return map[Team]int{Team1: e.score[Team1], Team2: e.score[Team2]}
}

func (e *Engine) playerByID(id string) *Player {
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) playerIndex(id string) int {
	for i, p := range e.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) manoTeam() Team {
	return e.players[e.mano].Team
}

// ValidateAction is a pure predicate: does this seat hold priority, and does
// the payload pass the action-specific checks.
func (e *Engine) ValidateAction(playerID string, a Action) bool {
	p := e.playerByID(playerID)
	if p == nil {
		return false
	}

	if e.currentBet != nil {
		if e.currentBet.WaitingFor != playerID {
			return false
		}
	} else if e.players[e.currentTurn].ID != playerID {
		return false
	}

	switch a.Type {
	case ActionPlay:
		return e.handHolds(p, a.Value)
	case ActionRaise:
		return e.currentBet == nil && e.validRaise(a.Value)
	case ActionRespond:
		return e.currentBet != nil && e.validResponse(a.Value)
	default:
		return false
	}
}

func (e *Engine) handHolds(p *Player, cardID string) bool {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

func (e *Engine) validRaise(bid string) bool {
	// No new bids once the deciding trick is underway.
	if e.roundWins[Team1]+e.roundWins[Team2] == 2 && len(e.table) > 0 {
		return false
	}

	if isEnvidoBid(bid) {
		if e.envidoState != "" || e.trucoState != "" {
			return false
		}
		for _, p := range e.players {
			if len(p.Played) > 0 {
				return false
			}
		}
		return len(e.table) == 0
	}

	switch bid {
	case BidTruco:
		return e.trucoState == ""
	case BidRetruco:
		return e.trucoState == BidTruco
	case BidVale4:
		return e.trucoState == BidRetruco
	}
	return false
}

func (e *Engine) validResponse(response string) bool {
	if response == RespondAccept || response == RespondReject {
		return true
	}
	for _, counter := range counterBids[e.currentBet.Type] {
		if counter == response {
			return true
		}
	}
	return false
}

// ProcessAction validates and applies one action. An illegal gameplay move
// returns ErrInvalidAction; calls against an unready or finished engine are
// programmer errors and fail with their own sentinels.
func (e *Engine) ProcessAction(playerID string, a Action) error {
	if len(e.players) != 2 {
		return appErr.ErrEngineNotReady
	}
	if e.ended {
		return appErr.ErrMatchEnded
	}
	p := e.playerByID(playerID)
	if p == nil {
		return appErr.ErrUnknownSeat
	}

	// Reasoning is kept even when the action itself is rejected.
	if a.Thought != "" {
		e.logEvent(EventPrivateThought, false, map[string]interface{}{
			"player":  playerID,
			"thought": a.Thought,
			"action":  string(a.Type),
		})
	}

	if !e.ValidateAction(playerID, a) {
		return appErr.ErrInvalidAction
	}

	switch a.Type {
	case ActionPlay:
		e.playCard(p, a)
	case ActionRaise:
		e.applyRaise(p, a.Value, a.Reason, a.Phrase)
	case ActionRespond:
		e.applyResponse(p, a.Value, a.Reason, a.Phrase)
	}
	return nil
}

func (e *Engine) playCard(p *Player, a Action) {
	var card Card
	for i, c := range p.Hand {
		if c.ID == a.Value {
			card = c
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			break
		}
	}
	p.Played = append(p.Played, card)
	e.table = append(e.table, TableEntry{PlayerID: p.ID, Card: card, Team: p.Team})

	e.logEvent(EventCardPlayed, true, map[string]interface{}{
		"player": p.ID,
		"card":   card.ID,
		"reason": a.Reason,
		"frase":  a.Phrase,
	})

	if len(e.table) == len(e.players) {
		e.resolveTrick()
	} else {
		e.currentTurn = (e.currentTurn + 1) % len(e.players)
	}
}

// resolveTrick compares every table entry; the highest power wins. A tie at
// the maximum ("parda") is awarded to the deal's mano seat, not to play order.
func (e *Engine) resolveTrick() {
	maxPower := e.table[0].Card.Power
	for _, entry := range e.table[1:] {
		if entry.Card.Power > maxPower {
			maxPower = entry.Card.Power
		}
	}

	var contenders []TableEntry
	for _, entry := range e.table {
		if entry.Card.Power == maxPower {
			contenders = append(contenders, entry)
		}
	}

	winner := contenders[0]
	if len(contenders) > 1 {
		manoID := e.players[e.mano].ID
		for _, entry := range contenders {
			if entry.PlayerID == manoID {
				winner = entry
				break
			}
		}
	}

	e.roundWins[winner.Team]++
	e.tricksPlayed++
	e.logEvent(EventRoundWon, true, map[string]interface{}{
		"team":   string(winner.Team),
		"player": winner.PlayerID,
	})
	e.table = nil

	if e.roundWins[Team1] == 2 || e.roundWins[Team2] == 2 ||
		(e.roundWins[Team1] == 1 && e.roundWins[Team2] == 1 && e.tricksPlayed == maxTricks) {
		e.endHand()
		return
	}
	e.currentTurn = e.playerIndex(winner.PlayerID)
}

func (e *Engine) applyRaise(p *Player, bid, reason, phrase string) {
	var opponent *Player
	for _, other := range e.players {
		if other.Team != p.Team {
			opponent = other
			break
		}
	}

	e.currentBet = &Bet{Type: bid, Proposer: p.ID, WaitingFor: opponent.ID}
	e.logEvent(EventCanto, true, map[string]interface{}{
		"player": p.ID,
		"canto":  bid,
		"reason": reason,
		"frase":  phrase,
	})
}

func (e *Engine) applyResponse(p *Player, response, reason, phrase string) {
	bet := e.currentBet
	e.logEvent(EventResponse, true, map[string]interface{}{
		"player":   p.ID,
		"response": response,
		"to":       bet.Type,
		"reason":   reason,
		"frase":    phrase,
	})

	switch response {
	case RespondAccept:
		if isEnvidoBid(bet.Type) {
			e.currentBet = nil
			e.resolveEnvido(bet.Type)
		} else {
			e.trucoState = bet.Type
			e.currentBet = nil
		}
	case RespondReject:
		points := e.betValue(bet.Type, false)
		proposerTeam := e.playerByID(bet.Proposer).Team
		e.score[proposerTeam] += points
		e.currentBet = nil

		if isTrucoBid(bet.Type) {
			// Rejecting a truco-family bid ends the deal on the spot.
			e.logEvent(EventHandEnd, true, map[string]interface{}{
				"winner":     string(proposerTeam),
				"points":     points,
				"finalScore": e.Score(),
			})
			e.finishDealOrMatch()
			return
		}
		if e.score[proposerTeam] >= WinningScore {
			e.endGame()
		}
	default:
		// Counter-raise: the responder becomes the proposer of a higher bid.
		e.currentBet = nil
		e.applyRaise(p, response, reason, phrase)
	}
}

func (e *Engine) resolveEnvido(betType string) {
	values := map[Team]int{}
	for _, p := range e.players {
		if v := Envido(p.Hand); v > values[p.Team] {
			values[p.Team] = v
		}
	}

	// Equal values go to the mano seat's team, mirroring the trick tie rule.
	winner := e.manoTeam()
	if values[Team1] != values[Team2] {
		winner = Team1
		if values[Team2] > values[Team1] {
			winner = Team2
		}
	}

	points := e.betValue(betType, true)
	e.score[winner] += points
	e.envidoState = betType

	e.logEvent(EventEnvidoResolved, true, map[string]interface{}{
		"winner": string(winner),
		"team1":  values[Team1],
		"team2":  values[Team2],
		"points": points,
	})

	if e.score[winner] >= WinningScore {
		e.endGame()
	}
}

func (e *Engine) betValue(bid string, accepted bool) int {
	switch bid {
	case BidEnvido:
		if accepted {
			return 2
		}
		return 1
	case BidRealEnvido:
		if accepted {
			return 3
		}
		return 1
	case BidFaltaEnvido:
		if accepted {
			max := e.score[Team1]
			if e.score[Team2] > max {
				max = e.score[Team2]
			}
			return WinningScore - max
		}
		return 1
	case BidTruco:
		if accepted {
			return 2
		}
		return 1
	case BidRetruco:
		if accepted {
			return 3
		}
		return 2
	case BidVale4:
		if accepted {
			return 4
		}
		return 3
	}
	return 1
}

// endHand scores the generic deal-end path reached after the deciding trick.
func (e *Engine) endHand() {
	winner := Team1
	if e.roundWins[Team2] > e.roundWins[Team1] {
		winner = Team2
	}

	points := 1
	switch e.trucoState {
	case BidTruco:
		points = 2
	case BidRetruco:
		points = 3
	case BidVale4:
		points = 4
	}
	e.score[winner] += points

	e.logEvent(EventHandEnd, true, map[string]interface{}{
		"winner":     string(winner),
		"points":     points,
		"finalScore": e.Score(),
	})

	e.finishDealOrMatch()
}

func (e *Engine) finishDealOrMatch() {
	if e.score[Team1] >= WinningScore || e.score[Team2] >= WinningScore {
		e.endGame()
		return
	}

	e.mano = (e.mano + 1) % len(e.players)
	e.roundWins = map[Team]int{Team1: 0, Team2: 0}
	e.trucoState = ""
	e.envidoState = ""
	e.currentBet = nil
	e.table = nil
	e.tricksPlayed = 0
	e.DealCards()
}

func (e *Engine) endGame() {
	winner := Team2
	if e.score[Team1] >= WinningScore {
		winner = Team1
	}
	e.ended = true
	e.logEvent(EventGameEnd, true, map[string]interface{}{
		"winner":     string(winner),
		"finalScore": e.Score(),
	})
}

// Winner reports the winning team once the match has ended.
func (e *Engine) Winner() (Team, bool) {
	if !e.ended {
		return "", false
	}
	if e.score[Team1] >= WinningScore {
		return Team1, true
	}
	return Team2, true
}
