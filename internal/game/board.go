// Package game implements the room store, the session state machine, and
// the tic-tac-toe rules that drive both.
package game

// Symbol is a player's mark on the board.
type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"
	// Empty is an unclaimed cell.
	Empty Symbol = ""
)

// BoardSize is the number of cells on the board.
const BoardSize = 9

// Board is the 3x3 grid in row-major order.
// Invariant: a non-empty cell is never overwritten until the board is cleared.
type Board [BoardSize]Symbol

// winningLines enumerates the 8 ways to win: 3 rows, 3 columns, 2 diagonals.
var winningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Verdict is the outcome of a terminal check.
type Verdict struct {
	// Winner is the winning symbol, or Empty.
	Winner Symbol
	// Draw is true when all cells are filled with no winning line.
	Draw bool
	// Done is true when the game is over, by win or by draw.
	Done bool
}

// Evaluate performs the terminal check on a board.
//
// Postcondition: Done is true iff Winner is non-empty or Draw is true.
func Evaluate(b Board) Verdict {
	if winners := lineWinners(b); len(winners) > 0 {
		return Verdict{Winner: winners[0], Done: true}
	}
	if b.Full() {
		return Verdict{Draw: true, Done: true}
	}
	return Verdict{}
}

// lineWinners returns the symbol of every complete winning line. Under
// single-cell alternating moves at most one symbol can appear here; the
// coordinator asserts that rather than assuming it.
func lineWinners(b Board) []Symbol {
	var winners []Symbol
	for _, line := range winningLines {
		a, m, z := line[0], line[1], line[2]
		if b[a] != Empty && b[a] == b[m] && b[m] == b[z] {
			winners = append(winners, b[a])
		}
	}
	return winners
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, cell := range b {
		if cell == Empty {
			return false
		}
	}
	return true
}

// Clear resets every cell to Empty.
func (b *Board) Clear() {
	*b = Board{}
}
