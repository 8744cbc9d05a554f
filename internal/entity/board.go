package entity

import (
	"tictactoe-online/internal/apperror"
)

const EmptyCell = ""

// Cell is a single board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// directions - the four axes checked for a winning run: horizontal,
// vertical, diagonal and anti-diagonal.
var directions = [4]Cell{
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: 1},
	{Row: 1, Col: -1},
}

// Board is the playing grid. Its size grows with the number of players:
// a game for N players runs on an (N+1)x(N+1) grid.
type Board struct {
	Size      int        `json:"size"`
	WinLength int        `json:"win_length"`
	Grid      [][]string `json:"grid"`

	moveCount int
}

// NewBoard - creates a grid sized for the given player count. winLength 0
// means a full board-spanning run: one more than the player count.
func NewBoard(playerCount, winLength int) *Board {
	size := playerCount + 1
	if winLength <= 0 {
		winLength = size
	}

	grid := make([][]string, size)
	for row := range grid {
		grid[row] = make([]string, size)
	}

	return &Board{
		Size:      size,
		WinLength: winLength,
		Grid:      grid,
	}
}

// ApplyMove - writes symbol into (row, col).
func (that *Board) ApplyMove(row, col int, symbol string) error {
	if row < 0 || row >= that.Size || col < 0 || col >= that.Size {
		return apperror.ErrOutOfBounds
	}

	if that.Grid[row][col] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Grid[row][col] = symbol
	that.moveCount++

	return nil
}

// CheckWin - scans the four axes through the cell last played at (row, col)
// and returns the winning run if its length reaches WinLength, else nil.
// The run is walked outward from the played cell in both directions until
// the contiguous sequence of symbol breaks.
func (that *Board) CheckWin(row, col int, symbol string) []Cell {
	for _, dir := range directions {
		line := []Cell{{Row: row, Col: col}}

		r, c := row+dir.Row, col+dir.Col
		for that.inBounds(r, c) && that.Grid[r][c] == symbol {
			line = append(line, Cell{Row: r, Col: c})
			r += dir.Row
			c += dir.Col
		}

		r, c = row-dir.Row, col-dir.Col
		for that.inBounds(r, c) && that.Grid[r][c] == symbol {
			line = append([]Cell{{Row: r, Col: c}}, line...)
			r -= dir.Row
			c -= dir.Col
		}

		if len(line) >= that.WinLength {
			return line
		}
	}

	return nil
}

// IsFull - reports whether every cell is occupied, the draw condition once
// CheckWin came back empty.
func (that *Board) IsFull() bool {
	return that.moveCount >= that.Size*that.Size
}

// Snapshot - returns a deep copy of the grid for event payloads.
func (that *Board) Snapshot() [][]string {
	grid := make([][]string, that.Size)
	for row := range that.Grid {
		grid[row] = make([]string, that.Size)
		copy(grid[row], that.Grid[row])
	}

	return grid
}

func (that *Board) inBounds(row, col int) bool {
	return row >= 0 && row < that.Size && col >= 0 && col < that.Size
}
