package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayer(connID, name string, symbol Symbol) Player {
	return Player{ConnID: connID, Name: name, Symbol: symbol}
}

func TestStoreCreate(t *testing.T) {
	s := NewStore()
	r, err := s.Create("abc", testPlayer("c1", "Alice", SymbolX), false, nil, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "ABC", r.Name)
	assert.Equal(t, StatusAwaiting, r.Status)
	require.Len(t, r.Players, 1)
	assert.Equal(t, SymbolX, r.Players[0].Symbol)
	assert.Equal(t, map[string]int{"c1": 0}, r.Scores)
	assert.Empty(t, r.ResetVotes)
}

func TestStoreCreateNameTaken(t *testing.T) {
	s := NewStore()
	_, err := s.Create("abc", testPlayer("c1", "Alice", SymbolX), false, nil, time.Now())
	require.NoError(t, err)

	// Same name under a different casing collides.
	_, err = s.Create("AbC", testPlayer("c2", "Bob", SymbolX), false, nil, time.Now())
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestStoreGetCanonicalizes(t *testing.T) {
	s := NewStore()
	_, err := s.Create("Game1", testPlayer("c1", "Alice", SymbolX), false, nil, time.Now())
	require.NoError(t, err)

	r, err := s.Get("game1")
	require.NoError(t, err)
	assert.Equal(t, "GAME1", r.Name)

	_, err = s.Get("other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	s := NewStore()
	_, err := s.Create("abc", testPlayer("c1", "Alice", SymbolX), false, nil, time.Now())
	require.NoError(t, err)

	s.Delete("abc")
	s.Delete("abc")
	_, err = s.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStoreList(t *testing.T) {
	s := NewStore()
	_, err := s.Create("beta", testPlayer("c1", "Alice", SymbolX), false, nil, time.Now())
	require.NoError(t, err)
	_, err = s.Create("alpha", testPlayer("c2", "Bob", SymbolX), true, []byte("hash"), time.Now())
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, Summary{Name: "ALPHA", Players: 1, IsPrivate: true, Status: StatusAwaiting}, list[0])
	assert.Equal(t, Summary{Name: "BETA", Players: 1, IsPrivate: false, Status: StatusAwaiting}, list[1])
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "ABC", CanonicalName("abc"))
	assert.Equal(t, "ABC", CanonicalName("  aBc "))
	assert.Equal(t, "X1", CanonicalName("x1"))
}
