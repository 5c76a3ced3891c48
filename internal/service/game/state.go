package game

import appErr "haytruco/pkg/errors"

// PlayerView is the seat-scoped projection used to build decision prompts.
// It never exposes the opponent's hand or private history.
type PlayerView struct {
	MyCards     []Card       `json:"myCards"`
	MyTeam      Team         `json:"myTeam"`
	Table       []TableEntry `json:"table"`
	Score       map[Team]int `json:"score"`
	TrucoState  string       `json:"trucoState"`
	EnvidoState string       `json:"envidoState"`
	CurrentBet  *Bet         `json:"currentBet"`
	RoundWins   map[Team]int `json:"roundWins"`
	History     []Event      `json:"history"`
	IsMyTurn    bool         `json:"isMyTurn"`
}

// PublicSeat is one seat as shown to observers. Cards and envido are only
// filled for the privileged view.
type PublicSeat struct {
	ID          string `json:"id"`
	Team        Team   `json:"team"`
	CardsCount  int    `json:"cardsCount"`
	PlayedCards []Card `json:"playedCards"`
	Cards       []Card `json:"cards"`
	Envido      *int   `json:"envido"`
}

// PublicState is the transport-layer projection.
type PublicState struct {
	Players         []PublicSeat `json:"players"`
	Table           []TableEntry `json:"table"`
	Score           map[Team]int `json:"score"`
	TrucoState      string       `json:"trucoState"`
	EnvidoState     string       `json:"envidoState"`
	CurrentBet      *Bet         `json:"currentBet"`
	RoundWins       map[Team]int `json:"roundWins"`
	CurrentTurn     int          `json:"currentTurn"`
	Phase           Phase        `json:"phase"`
	History         []Event      `json:"history"`
	PrivateThoughts []Event      `json:"privateThoughts"`
}

func (e *Engine) StateFor(playerID string) (*PlayerView, error) {
	p := e.playerByID(playerID)
	if p == nil {
		return nil, appErr.ErrUnknownSeat
	}

	return &PlayerView{
		MyCards:     append([]Card(nil), p.Hand...),
		MyTeam:      p.Team,
		Table:       append([]TableEntry(nil), e.table...),
		Score:       e.Score(),
		TrucoState:  e.trucoState,
		EnvidoState: e.envidoState,
		CurrentBet:  e.betCopy(),
		RoundWins:   map[Team]int{Team1: e.roundWins[Team1], Team2: e.roundWins[Team2]},
		History:     e.publicHistory(),
		IsMyTurn:    e.players[e.currentTurn].ID == playerID,
	}, nil
}

func (e *Engine) PublicState(includePrivate bool) PublicState {
	seats := make([]PublicSeat, 0, len(e.players))
	for _, p := range e.players {
		seat := PublicSeat{
			ID:          p.ID,
			Team:        p.Team,
			CardsCount:  len(p.Hand),
			PlayedCards: append([]Card(nil), p.Played...),
			Cards:       []Card{},
		}
		if includePrivate {
			seat.Cards = append([]Card(nil), p.Hand...)
			envido := Envido(p.Hand)
			seat.Envido = &envido
		}
		seats = append(seats, seat)
	}

	history := e.publicHistory()
	thoughts := []Event{}
	if includePrivate {
		history = append([]Event(nil), e.history...)
		thoughts = e.privateThoughts()
	}

	return PublicState{
		Players:         seats,
		Table:           append([]TableEntry(nil), e.table...),
		Score:           e.Score(),
		TrucoState:      e.trucoState,
		EnvidoState:     e.envidoState,
		CurrentBet:      e.betCopy(),
		RoundWins:       map[Team]int{Team1: e.roundWins[Team1], Team2: e.roundWins[Team2]},
		CurrentTurn:     e.currentTurn,
		Phase:           e.Phase(),
		History:         history,
		PrivateThoughts: thoughts,
	}
}

func (e *Engine) betCopy() *Bet {
	if e.currentBet == nil {
		return nil
	}
	bet := *e.currentBet
	return &bet
}

// LegalBids lists the cantar values this seat could raise right now, using
// the same eligibility rules as ValidateAction.
func (e *Engine) LegalBids(playerID string) []string {
	if e.currentBet != nil || len(e.players) != 2 || e.players[e.currentTurn].ID != playerID {
		return nil
	}
	var bids []string
	for _, bid := range []string{BidEnvido, BidRealEnvido, BidFaltaEnvido, BidTruco, BidRetruco, BidVale4} {
		if e.validRaise(bid) {
			bids = append(bids, bid)
		}
	}
	return bids
}

// LegalResponses lists the responder values available against the
// outstanding bet: accept, reject, and the bid's counter-raises.
func (e *Engine) LegalResponses(playerID string) []string {
	if e.currentBet == nil || e.currentBet.WaitingFor != playerID {
		return nil
	}
	out := []string{RespondAccept, RespondReject}
	return append(out, counterBids[e.currentBet.Type]...)
}
