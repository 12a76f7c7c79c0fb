package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEvaluateEmptyBoard(t *testing.T) {
	v := Evaluate(Board{})
	assert.False(t, v.Done)
	assert.False(t, v.Draw)
	assert.Equal(t, Empty, v.Winner)
}

func TestEvaluateEveryWinningLine(t *testing.T) {
	for _, line := range winningLines {
		var b Board
		for _, idx := range line {
			b[idx] = SymbolX
		}
		v := Evaluate(b)
		assert.True(t, v.Done, "line %v should win", line)
		assert.Equal(t, SymbolX, v.Winner, "line %v", line)
		assert.False(t, v.Draw)
	}
}

func TestEvaluateWinForO(t *testing.T) {
	b := Board{SymbolO, SymbolO, SymbolO}
	v := Evaluate(b)
	assert.Equal(t, SymbolO, v.Winner)
	assert.True(t, v.Done)
}

func TestEvaluateDraw(t *testing.T) {
	// X O X
	// X O O
	// O X X
	b := Board{
		SymbolX, SymbolO, SymbolX,
		SymbolX, SymbolO, SymbolO,
		SymbolO, SymbolX, SymbolX,
	}
	v := Evaluate(b)
	assert.True(t, v.Done)
	assert.True(t, v.Draw)
	assert.Equal(t, Empty, v.Winner)
}

func TestEvaluateInProgress(t *testing.T) {
	b := Board{SymbolX, SymbolO, SymbolX}
	v := Evaluate(b)
	assert.False(t, v.Done)
}

func TestFullAndClear(t *testing.T) {
	var b Board
	assert.False(t, b.Full())
	for i := range b {
		b[i] = SymbolX
	}
	assert.True(t, b.Full())
	b.Clear()
	assert.False(t, b.Full())
	assert.Equal(t, Board{}, b)
}

func TestPropertyWinRequiresThreeInLine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Place exactly two equal symbols anywhere: never a win.
		var b Board
		first := rapid.IntRange(0, BoardSize-1).Draw(t, "first")
		second := rapid.IntRange(0, BoardSize-1).Filter(func(i int) bool { return i != first }).Draw(t, "second")
		b[first] = SymbolX
		b[second] = SymbolX
		v := Evaluate(b)
		if v.Winner != Empty {
			t.Fatalf("two marks at %d,%d produced a winner", first, second)
		}
	})
}
