package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-online/internal/apperror"
)

func TestNewBoard(t *testing.T) {
	t.Run("Board size scales with player count", func(t *testing.T) {
		for playerCount := 2; playerCount <= 10; playerCount++ {
			t.Run(fmt.Sprintf("%d players", playerCount), func(t *testing.T) {
				// Given: a board for playerCount players
				board := NewBoard(playerCount, 0)

				// Then: the grid is (playerCount+1) x (playerCount+1)
				require.Equal(t, playerCount+1, board.Size)
				require.Len(t, board.Grid, playerCount+1)
				for _, row := range board.Grid {
					assert.Len(t, row, playerCount+1)
				}

				// Then: the default winning run spans the whole board
				assert.Equal(t, playerCount+1, board.WinLength)
			})
		}
	})

	t.Run("Explicit win length overrides the default", func(t *testing.T) {
		// Given: a board for 5 players with a fixed win length of 3
		board := NewBoard(5, 3)

		// Then: the override wins
		assert.Equal(t, 3, board.WinLength)
	})
}

func TestBoard_ApplyMove(t *testing.T) {
	t.Run("Rejects out of bounds moves", func(t *testing.T) {
		board := NewBoard(2, 0)

		for _, cell := range []Cell{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
			// When: playing outside the grid
			err := board.ApplyMove(cell.Row, cell.Col, "X")

			// Then: the move fails and nothing is written
			assert.ErrorIs(t, err, apperror.ErrOutOfBounds)
		}
		assert.False(t, board.IsFull())
	})

	t.Run("Rejects a move to an occupied cell and leaves the board unchanged", func(t *testing.T) {
		// Given: a board with X at (1,1)
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(1, 1, "X"))

		// When: O plays the same cell
		err := board.ApplyMove(1, 1, "O")

		// Then: the move fails and the cell still holds X
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, "X", board.Grid[1][1])
	})
}

func TestBoard_CheckWin(t *testing.T) {
	t.Run("Detects a horizontal run with its coordinates", func(t *testing.T) {
		// Given: a 3x3 board where X fills the top row
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(0, 0, "X"))
		require.NoError(t, board.ApplyMove(0, 2, "X"))
		require.NoError(t, board.ApplyMove(0, 1, "X"))

		// When: checking from the last played cell
		line := board.CheckWin(0, 1, "X")

		// Then: the full run is returned in board order
		require.Equal(t, []Cell{{0, 0}, {0, 1}, {0, 2}}, line)
	})

	t.Run("Detects a vertical run", func(t *testing.T) {
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(0, 1, "O"))
		require.NoError(t, board.ApplyMove(1, 1, "O"))
		require.NoError(t, board.ApplyMove(2, 1, "O"))

		line := board.CheckWin(2, 1, "O")

		require.Equal(t, []Cell{{0, 1}, {1, 1}, {2, 1}}, line)
	})

	t.Run("Detects a diagonal run", func(t *testing.T) {
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(0, 0, "X"))
		require.NoError(t, board.ApplyMove(2, 2, "X"))
		require.NoError(t, board.ApplyMove(1, 1, "X"))

		line := board.CheckWin(1, 1, "X")

		require.Equal(t, []Cell{{0, 0}, {1, 1}, {2, 2}}, line)
	})

	t.Run("Detects an anti-diagonal run", func(t *testing.T) {
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(0, 2, "O"))
		require.NoError(t, board.ApplyMove(1, 1, "O"))
		require.NoError(t, board.ApplyMove(2, 0, "O"))

		line := board.CheckWin(2, 0, "O")

		require.Equal(t, []Cell{{0, 2}, {1, 1}, {2, 0}}, line)
	})

	t.Run("A broken run does not win", func(t *testing.T) {
		// Given: X X O in the top row
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(0, 0, "X"))
		require.NoError(t, board.ApplyMove(0, 1, "X"))
		require.NoError(t, board.ApplyMove(0, 2, "O"))

		// Then: neither symbol has a winning run through those cells
		assert.Nil(t, board.CheckWin(0, 1, "X"))
		assert.Nil(t, board.CheckWin(0, 2, "O"))
	})

	t.Run("A longer run on a bigger board requires the full length", func(t *testing.T) {
		// Given: a 4x4 board for 3 players, win length 4
		board := NewBoard(3, 0)
		require.NoError(t, board.ApplyMove(1, 0, "Δ"))
		require.NoError(t, board.ApplyMove(1, 1, "Δ"))
		require.NoError(t, board.ApplyMove(1, 2, "Δ"))

		// Then: three in a row is not enough
		require.Nil(t, board.CheckWin(1, 2, "Δ"))

		// When: the fourth cell completes the run
		require.NoError(t, board.ApplyMove(1, 3, "Δ"))

		// Then: the run is detected from the cell played last
		require.Equal(t, []Cell{{1, 0}, {1, 1}, {1, 2}, {1, 3}}, board.CheckWin(1, 3, "Δ"))
	})
}

func TestBoard_IsFull(t *testing.T) {
	t.Run("Full board with no run is a draw position", func(t *testing.T) {
		// Given: a 3x3 board filled with no three-in-a-row for anyone
		board := NewBoard(2, 0)
		layout := [3][3]string{
			{"X", "O", "X"},
			{"X", "O", "O"},
			{"O", "X", "X"},
		}

		var lastRow, lastCol int
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				require.NoError(t, board.ApplyMove(row, col, layout[row][col]))
				lastRow, lastCol = row, col
			}
		}

		// Then: the board is full and no symbol wins from any cell
		require.True(t, board.IsFull())
		assert.Nil(t, board.CheckWin(lastRow, lastCol, layout[lastRow][lastCol]))
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				assert.Nil(t, board.CheckWin(row, col, layout[row][col]))
			}
		}
	})

	t.Run("Partially filled board is not full", func(t *testing.T) {
		board := NewBoard(2, 0)
		require.NoError(t, board.ApplyMove(0, 0, "X"))

		assert.False(t, board.IsFull())
	})
}

func TestBoard_Snapshot(t *testing.T) {
	// Given: a board with one move
	board := NewBoard(2, 0)
	require.NoError(t, board.ApplyMove(0, 0, "X"))

	// When: taking a snapshot and mutating it
	snapshot := board.Snapshot()
	snapshot[0][0] = "O"
	snapshot[1][1] = "O"

	// Then: the board itself is untouched
	assert.Equal(t, "X", board.Grid[0][0])
	assert.Equal(t, EmptyCell, board.Grid[1][1])
}
