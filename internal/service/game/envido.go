package game

import "strconv"

// Envido computes the bidding-phase hand value. Cards are grouped by suit;
// two or more cards of a suit score the two highest counting values plus 20,
// a lone card scores its counting value. Ranks 10 and up count as zero.
// The result is the best candidate across suits, 0 for an empty hand.
func Envido(cards []Card) int {
	bySuit := make(map[string][]int)
	for _, c := range cards {
		bySuit[c.Suit] = append(bySuit[c.Suit], countingValue(c))
	}

	max := 0
	for _, values := range bySuit {
		var candidate int
		if len(values) >= 2 {
			hi, second := 0, 0
			for _, v := range values {
				if v > hi {
					hi, second = v, hi
				} else if v > second {
					second = v
				}
			}
			candidate = hi + second + 20
		} else {
			candidate = values[0]
		}
		if candidate > max {
			max = candidate
		}
	}
	return max
}

func countingValue(c Card) int {
	v, _ := strconv.Atoi(c.Rank)
	if v >= 10 {
		return 0
	}
	return v
}
