package game

import "math/rand"

// Card is one card of the 40-card Spanish deck (no 8s or 9s).
// Power is the fixed Truco trick-comparison weight, 1..14.
type Card struct {
	Rank  string `json:"value"`
	Suit  string `json:"suit"`
	ID    string `json:"id"`
	Power int    `json:"power"`
}

var suits = []string{"espadas", "bastos", "oros", "copas"}

var ranks = []string{"1", "2", "3", "4", "5", "6", "7", "10", "11", "12"}

// cardPower is the single source of truth for trick resolution.
// 1-espadas and 1-bastos are the true aces; 7-espadas and 7-oros the true
// sevens. The remaining 1s ("anchos falsos") and 7s ("sietes falsos") fall
// into shared levels together with the other ranks.
var cardPower = map[string]int{
	"1-espadas": 14,
	"1-bastos":  13,
	"7-espadas": 12,
	"7-oros":    11,
	"3-espadas": 10, "3-bastos": 10, "3-oros": 10, "3-copas": 10,
	"2-espadas": 9, "2-bastos": 9, "2-oros": 9, "2-copas": 9,
	"1-oros": 8, "1-copas": 8,
	"12-espadas": 7, "12-bastos": 7, "12-oros": 7, "12-copas": 7,
	"11-espadas": 6, "11-bastos": 6, "11-oros": 6, "11-copas": 6,
	"10-espadas": 5, "10-bastos": 5, "10-oros": 5, "10-copas": 5,
	"7-copas": 4, "7-bastos": 4,
	"6-espadas": 3, "6-bastos": 3, "6-oros": 3, "6-copas": 3,
	"5-espadas": 2, "5-bastos": 2, "5-oros": 2, "5-copas": 2,
	"4-espadas": 1, "4-bastos": 1, "4-oros": 1, "4-copas": 1,
}

// NewDeck builds a freshly shuffled deck using the given source.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, len(suits)*len(ranks))
	for _, suit := range suits {
		for _, rank := range ranks {
			id := rank + "-" + suit
			deck = append(deck, Card{
				Rank:  rank,
				Suit:  suit,
				ID:    id,
				Power: cardPower[id],
			})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
