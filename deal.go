package main

import (
	"fmt"
	"math/rand"
)

// deckSize is the fixed card range: every dealt card is in [1, deckSize].
const deckSize = 100

// dealCards draws one distinct card per participant from [1, deckSize],
// uniformly at random, via a Fisher-Yates shuffle of the full range followed
// by prefix assignment in the order ids were given. A nil rng falls back to
// the shared math/rand source.
func dealCards(ids []string, rng *rand.Rand) (map[string]int, error) {
	if len(ids) > deckSize {
		return nil, fmt.Errorf("cannot deal to %d players from a deck of %d", len(ids), deckSize)
	}

	deck := make([]int, deckSize)
	for i := range deck {
		deck[i] = i + 1
	}

	for i := len(deck) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		deck[i], deck[j] = deck[j], deck[i]
	}

	cards := make(map[string]int, len(ids))
	for i, id := range ids {
		cards[id] = deck[i]
	}

	return cards, nil
}
