package deck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ninetynine/internal/randutil"
)

func TestBuildComposition(t *testing.T) {
	d := New(randutil.New(1))
	d.Build()

	require.Equal(t, Size, d.DrawCount())
	assert.Zero(t, d.DiscardCount())

	counts := make(map[string]int)
	ids := make(map[string]bool)
	for _, c := range d.draw {
		counts[string(c.Kind)+"/"+string(c.Face)]++
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
	}
	assert.Equal(t, Composition(), counts)

	normals := 0
	for face := 1; face <= 8; face++ {
		assert.Equal(t, 3, counts[fmt.Sprintf("normal/%d", face)])
		normals += counts[fmt.Sprintf("normal/%d", face)]
	}
	assert.Equal(t, 24, normals)
	assert.Equal(t, 10, counts["normal/10"])
	assert.Equal(t, 5, counts["special/9"])
	assert.Equal(t, 6, counts["special/10"])
	assert.Equal(t, 3, counts["special/0"])
	assert.Equal(t, 1, counts["special/J"])
}

func TestBuildStableOrder(t *testing.T) {
	n := 0
	seq := func() string {
		n++
		return fmt.Sprintf("card-%d", n)
	}
	d := New(randutil.New(1), WithIDGenerator(seq))
	d.Build()

	assert.Equal(t, "card-1", d.draw[0].ID)
	assert.Equal(t, Face("1"), d.draw[0].Face)
	assert.Equal(t, FaceJack, d.draw[Size-1].Face)

	// A rebuild issues fresh ids.
	d.Build()
	assert.Equal(t, "card-50", d.draw[0].ID)
}

func TestShuffleIsSeeded(t *testing.T) {
	order := func(seed int64) []Face {
		i := 0
		d := New(randutil.New(seed), WithIDGenerator(func() string { i++; return fmt.Sprint(i) }))
		d.Build()
		d.Shuffle()
		faces := make([]Face, 0, Size)
		for _, c := range d.draw {
			faces = append(faces, c.Face)
		}
		return faces
	}

	assert.Equal(t, order(99), order(99))
	assert.NotEqual(t, order(1), order(2))
}

func TestShufflePreservesCards(t *testing.T) {
	d := New(randutil.New(3))
	d.Build()
	before := make(map[string]bool)
	for _, c := range d.draw {
		before[c.ID] = true
	}
	d.Shuffle()
	require.Len(t, d.draw, Size)
	for _, c := range d.draw {
		assert.True(t, before[c.ID])
	}
}

func TestDrawTakesTop(t *testing.T) {
	d := New(randutil.New(1))
	d.Build()
	top := d.draw[len(d.draw)-1]

	card, ok := d.Draw()
	require.True(t, ok)
	assert.Equal(t, top, card)
	assert.Equal(t, Size-1, d.DrawCount())
}

func TestDeal(t *testing.T) {
	d := New(randutil.New(1))
	d.Build()
	d.Shuffle()

	hand := d.Deal(5)
	assert.Len(t, hand, 5)
	assert.Equal(t, Size-5, d.DrawCount())
}

func TestDrawRecyclesDiscard(t *testing.T) {
	d := New(randutil.New(5))
	d.Build()

	// Move everything but nothing else into the discard pile.
	d.Discard(d.draw...)
	d.draw = d.draw[:0]
	discarded := d.DiscardCount()
	require.Equal(t, Size, discarded)

	card, ok := d.Draw()
	require.True(t, ok)
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, discarded-1, d.DrawCount())
	assert.Zero(t, d.DiscardCount())
}

func TestDrawExhausted(t *testing.T) {
	d := New(randutil.New(5))
	d.Build()
	hand := d.Deal(Size)
	require.Len(t, hand, Size)

	_, ok := d.Draw()
	assert.False(t, ok)
	assert.Empty(t, d.Deal(3))
}

func TestTopDiscard(t *testing.T) {
	d := New(randutil.New(5))
	d.Build()

	_, ok := d.TopDiscard()
	assert.False(t, ok)

	a, _ := d.Draw()
	b, _ := d.Draw()
	d.Discard(a, b)
	top, ok := d.TopDiscard()
	require.True(t, ok)
	assert.Equal(t, b, top)
	assert.Equal(t, []Card{a, b}, d.DiscardPile())
	assert.Equal(t, Size, d.Count())
}

func TestCardValue(t *testing.T) {
	tests := []struct {
		card Card
		want int
	}{
		{Card{Kind: Normal, Face: "1"}, 1},
		{Card{Kind: Normal, Face: "8"}, 8},
		{Card{Kind: Normal, Face: "10"}, 10},
		{Card{Kind: Special, Face: FaceTen}, 0},
		{Card{Kind: Special, Face: FaceJack}, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.card.Kind)+"/"+string(tt.card.Face), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.card.Value())
		})
	}
}
