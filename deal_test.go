package main

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealCardsDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	ids := []string{"a", "b", "c", "d", "e"}
	cards, err := dealCards(ids, rng)
	require.NoError(t, err)
	require.Len(t, cards, len(ids))

	seen := make(map[int]bool)
	for _, id := range ids {
		card := cards[id]
		assert.GreaterOrEqual(t, card, 1)
		assert.LessOrEqual(t, card, deckSize)
		assert.False(t, seen[card], "card %d dealt twice", card)
		seen[card] = true
	}
}

func TestDealCardsFullDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	ids := make([]string, deckSize)
	for i := range ids {
		ids[i] = fmt.Sprintf("player-%d", i)
	}

	cards, err := dealCards(ids, rng)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, card := range cards {
		seen[card] = true
	}
	require.Len(t, seen, deckSize, "a full deal must use every card exactly once")
}

func TestDealCardsTooManyPlayers(t *testing.T) {
	ids := make([]string, deckSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("player-%d", i)
	}

	_, err := dealCards(ids, rand.New(rand.NewSource(42)))
	require.Error(t, err)
}

func TestDealCardsNilRng(t *testing.T) {
	cards, err := dealCards([]string{"a", "b"}, nil)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.NotEqual(t, cards["a"], cards["b"])
}

func TestDealCardsIndependentAcrossCalls(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	first, err := dealCards([]string{"a"}, rng)
	require.NoError(t, err)

	// A fresh draw from the full range: over enough rounds the same player
	// must see more than a recycled prefix.
	seen := map[int]bool{first["a"]: true}
	for range 200 {
		cards, err := dealCards([]string{"a"}, rng)
		require.NoError(t, err)
		seen[cards["a"]] = true
	}
	assert.Greater(t, len(seen), 50)
}

func TestDealCardsUniformity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// One player's slot, many deals: every card value should turn up with
	// roughly equal frequency. Loose statistical bounds, not exact.
	const rounds = 20000
	counts := make(map[int]int)
	for range rounds {
		cards, err := dealCards([]string{"a", "b", "c"}, rng)
		require.NoError(t, err)
		counts[cards["a"]]++
	}

	require.Len(t, counts, deckSize, "every card value should appear in slot 0 eventually")

	expected := rounds / deckSize
	for card, n := range counts {
		assert.Greater(t, n, expected/3, "card %d underrepresented: %d", card, n)
		assert.Less(t, n, expected*3, "card %d overrepresented: %d", card, n)
	}
}
