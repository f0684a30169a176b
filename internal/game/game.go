package game

import (
	"errors"
	"fmt"
)

// Mark represents the occupant of a cell: X, O or nothing.
type Mark string

// Status is the coarse state of an evaluated board.
type Status string

const (
	// Cell marks
	Empty   Mark = ""
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	// Board statuses
	InProgress Status = "in_progress"
	Win        Status = "win"
	Draw       Status = "draw"

	// Board geometry
	Size   = 9
	Center = 4
)

var ErrInvalidBoard = errors.New("invalid board")

// Line is a triple of cell indices that wins the game when filled with one mark.
type Line [3]int

// lines is scanned in this order by both the evaluator and the bot.
var lines = [8]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Lines returns a copy of the eight winning lines in scan order.
func Lines() [8]Line {
	return lines
}

// Board is the 3x3 grid flattened row by row into indices 0..8.
type Board []Mark

// NewBoard returns an empty board.
func NewBoard() Board {
	return make(Board, Size)
}

// Clone returns a copy that can be handed out without exposing the original.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	c := make(Board, len(b))
	copy(c, b)
	return c
}

// Validate reports ErrInvalidBoard for a board of the wrong length or with unknown marks.
func (b Board) Validate() error {
	if len(b) != Size {
		return fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidBoard, Size, len(b))
	}
	for i, m := range b {
		if !m.Valid() {
			return fmt.Errorf("%w: cell %d holds unknown mark %q", ErrInvalidBoard, i, string(m))
		}
	}
	return nil
}

// IsFull reports whether no cell is empty.
func (b Board) IsFull() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// Outcome is the result of evaluating a board. Winner and Line are only set for a win.
type Outcome struct {
	Status Status `json:"status"`
	Winner Mark   `json:"winner,omitempty"`
	Line   *Line  `json:"line,omitempty"`
}

// IsOver reports whether the game has ended.
func (o Outcome) IsOver() bool {
	return o.Status == Win || o.Status == Draw
}

// Evaluate returns the win for the first complete line in scan order, a draw
// for a full board without one, and InProgress otherwise.
func Evaluate(board Board) (Outcome, error) {
	if err := board.Validate(); err != nil {
		return Outcome{}, err
	}

	for _, line := range lines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != Empty && a == b && b == c {
			winning := line
			return Outcome{Status: Win, Winner: a, Line: &winning}, nil
		}
	}

	if board.IsFull() {
		return Outcome{Status: Draw}, nil
	}

	return Outcome{Status: InProgress}, nil
}
