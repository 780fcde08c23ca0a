package deck

import "strconv"

// Kind distinguishes plain additive cards from cards whose effect the player
// chooses when playing them.
type Kind string

const (
	Normal  Kind = "normal"
	Special Kind = "special"
)

// Face is the printed face of a card. Normal cards carry their numeric value
// ("1"-"8", "10"); special cards carry one of the symbols below.
type Face string

const (
	FaceNine Face = "9"  // ±9
	FaceTen  Face = "10" // ±10
	FaceZero Face = "0"  // keep total, optionally reverse
	FaceJack Face = "J"  // set total to 60-99
)

// Card is an immutable card value. Cards with the same kind and face are
// interchangeable for play, but each carries its own ID so hands and piles
// can be tracked card by card.
type Card struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Face        Face   `json:"face"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// IsSpecial reports whether playing the card requires a choice.
func (c Card) IsSpecial() bool {
	return c.Kind == Special
}

// Value returns the amount a normal card adds to the total. Special cards
// return 0; their effect depends on the chosen option.
func (c Card) Value() int {
	if c.Kind != Normal {
		return 0
	}
	v, err := strconv.Atoi(string(c.Face))
	if err != nil {
		return 0
	}
	return v
}

// String returns the card's label (e.g. "9 (±9)")
func (c Card) String() string {
	return c.Label
}

type entry struct {
	kind        Kind
	face        Face
	label       string
	description string
	count       int
}

// composition is the fixed multiset every round is dealt from, in build order.
var composition = []entry{
	{Normal, "1", "A (+1)", "+1 to total", 3},
	{Normal, "2", "2 (+2)", "+2 to total", 3},
	{Normal, "3", "3 (+3)", "+3 to total", 3},
	{Normal, "4", "4 (+4)", "+4 to total", 3},
	{Normal, "5", "5 (+5)", "+5 to total", 3},
	{Normal, "6", "6 (+6)", "+6 to total", 3},
	{Normal, "7", "7 (+7)", "+7 to total", 3},
	{Normal, "8", "8 (+8)", "+8 to total", 3},
	{Normal, "10", "10 (+10)", "+10 to total", 10},
	{Special, FaceNine, "9 (±9)", "+9 or -9", 5},
	{Special, FaceTen, "10 (±10)", "+10 or -10", 6},
	{Special, FaceZero, "0 (Hold/Rev)", "Keep total, optionally reverse direction", 3},
	{Special, FaceJack, "J (Set 60-99)", "Set total to any value from 60 to 99", 1},
}

// Size is the number of cards in a full deck.
const Size = 49

// Composition returns how many copies of each (kind, face) pair a full deck
// holds, keyed by "kind/face".
func Composition() map[string]int {
	out := make(map[string]int, len(composition))
	for _, e := range composition {
		out[string(e.kind)+"/"+string(e.face)] = e.count
	}
	return out
}
