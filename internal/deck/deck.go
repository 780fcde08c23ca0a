package deck

import (
	rand "math/rand/v2"

	"github.com/google/uuid"

	"github.com/lox/ninetynine/internal/randutil"
)

// Deck holds the draw pile and the discard pile for one round. The top of
// the draw pile is the end of the slice; the last played card is the end of
// the discard slice.
type Deck struct {
	draw    []Card
	discard []Card
	rng     *rand.Rand
	newID   func() string
}

// Option configures a Deck.
type Option func(*Deck)

// WithIDGenerator replaces the card ID generator (uuid.NewString by default).
func WithIDGenerator(fn func() string) Option {
	return func(d *Deck) {
		d.newID = fn
	}
}

// New creates an empty deck that shuffles with rng. Call Build to populate it.
func New(rng *rand.Rand, opts ...Option) *Deck {
	if rng == nil {
		rng = randutil.NewEntropy()
	}
	d := &Deck{
		draw:    make([]Card, 0, Size),
		discard: make([]Card, 0, Size),
		rng:     rng,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build drops both piles and fills the draw pile with a fresh copy of the
// full composition, in a stable order and with new card IDs.
func (d *Deck) Build() {
	d.draw = d.draw[:0]
	d.discard = d.discard[:0]
	for _, e := range composition {
		for i := 0; i < e.count; i++ {
			d.draw = append(d.draw, Card{
				ID:          d.newID(),
				Kind:        e.kind,
				Face:        e.face,
				Label:       e.label,
				Description: e.description,
			})
		}
	}
}

// Shuffle randomizes the order of the draw pile (Fisher-Yates).
func (d *Deck) Shuffle() {
	for i := len(d.draw) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	}
}

// Draw removes and returns the top card of the draw pile. When the draw pile
// is empty the discard pile is shuffled into a new draw pile first. It
// returns false only when both piles are empty.
func (d *Deck) Draw() (Card, bool) {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return Card{}, false
		}
		d.draw, d.discard = d.discard, d.draw[:0]
		d.Shuffle()
	}

	last := len(d.draw) - 1
	card := d.draw[last]
	d.draw = d.draw[:last]
	return card, true
}

// Deal draws n cards. Fewer are returned only if the deck runs out entirely.
func (d *Deck) Deal(n int) []Card {
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		card, ok := d.Draw()
		if !ok {
			break
		}
		cards = append(cards, card)
	}
	return cards
}

// Discard puts cards on top of the discard pile in the given order.
func (d *Deck) Discard(cards ...Card) {
	d.discard = append(d.discard, cards...)
}

// TopDiscard returns the most recently discarded card.
func (d *Deck) TopDiscard() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// DrawCount returns the number of cards left in the draw pile.
func (d *Deck) DrawCount() int {
	return len(d.draw)
}

// DiscardCount returns the number of cards in the discard pile.
func (d *Deck) DiscardCount() int {
	return len(d.discard)
}

// Count returns the number of cards held by the deck across both piles.
func (d *Deck) Count() int {
	return len(d.draw) + len(d.discard)
}

// DiscardPile returns a copy of the discard pile, bottom first.
func (d *Deck) DiscardPile() []Card {
	out := make([]Card, len(d.discard))
	copy(out, d.discard)
	return out
}
