package domain

import "errors"

// DeckSize is the number of cards in a full deck.
const DeckSize = len(CardTypes) * len(PowerLabels)

// ErrDeckExhausted is returned when a draw is requested from an empty deck.
var ErrDeckExhausted = errors.New("the reinforcement deck is exhausted")

// Deck is an ordered pile of cards. The last element is the top.
type Deck []Card

// NewDeck returns the 52-card deck in canonical order.
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for _, t := range CardTypes {
		for _, p := range PowerLabels {
			deck = append(deck, NewCard(t, p))
		}
	}
	return deck
}

// NewShuffledDeck returns a canonical deck shuffled with the given seed.
func NewShuffledDeck(seed uint64) Deck {
	deck := NewDeck()
	deck.Shuffle(NewRNG(seed))
	return deck
}

// Shuffle permutes the deck in place, swapping deck[i] with
// deck[rng.Next() mod (i+1)] from the top down. Stored seeds depend on the
// modulo step; do not switch to rejection sampling.
func (d Deck) Shuffle(rng *RNG) {
	for i := len(d) - 1; i > 0; i-- {
		j := int(rng.Next() % uint64(i+1))
		d[i], d[j] = d[j], d[i]
	}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	n := len(*d)
	if n == 0 {
		return Card{}, ErrDeckExhausted
	}
	card := (*d)[n-1]
	*d = (*d)[:n-1]
	return card, nil
}
