package bot

import (
	"ctchen222/tateti/internal/game"
	"errors"
	"fmt"
)

// Difficulty selects how much of the priority list the bot follows.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Rule names the priority step that produced a move.
type Rule string

const (
	RuleWin      Rule = "win"
	RuleBlock    Rule = "block"
	RuleCenter   Rule = "center"
	RuleCorner   Rule = "corner"
	RuleSide     Rule = "side"
	RuleFallback Rule = "fallback"
	RuleRandom   Rule = "random"
)

var ErrNoMoveAvailable = errors.New("no move available")

var (
	corners = [4]int{0, 2, 6, 8}
	sides   = [4]int{1, 3, 5, 7}
)

// ParseDifficulty maps user input to a Difficulty, defaulting to Hard.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s)
	default:
		return Hard
	}
}

// Decision is a chosen cell together with the rule that chose it.
type Decision struct {
	Cell int
	Rule Rule
}

// Selector picks the bot's next cell. It holds no game state and is safe for concurrent use.
type Selector struct {
	rng RandSource
}

// NewSelector creates a Selector. A nil source falls back to the shared math/rand/v2 generator.
func NewSelector(rng RandSource) *Selector {
	if rng == nil {
		rng = globalSource{}
	}
	return &Selector{rng: rng}
}

// SelectMove runs the full heuristic: win, block, center, corner, side, first empty.
func (s *Selector) SelectMove(board game.Board, botMark, opponentMark game.Mark) (int, error) {
	d, err := s.CalculateNextMove(board, botMark, opponentMark, Hard)
	if err != nil {
		return -1, err
	}
	return d.Cell, nil
}

// CalculateNextMove determines the bot's next move based on the specified difficulty.
func (s *Selector) CalculateNextMove(board game.Board, botMark, opponentMark game.Mark, difficulty Difficulty) (Decision, error) {
	outcome, err := game.Evaluate(board)
	if err != nil {
		return Decision{}, err
	}
	if outcome.IsOver() {
		return Decision{}, fmt.Errorf("%w: game is already %s", ErrNoMoveAvailable, outcome.Status)
	}

	switch difficulty {
	case Easy:
		return s.easyMove(board), nil
	case Medium:
		return s.mediumMove(board, botMark, opponentMark), nil
	default:
		return s.hardMove(board, botMark, opponentMark), nil
	}
}

// easyMove makes a completely random move.
func (s *Selector) easyMove(board game.Board) Decision {
	available := board.EmptyCells()
	return Decision{Cell: available[s.rng.IntN(len(available))], Rule: RuleRandom}
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func (s *Selector) mediumMove(board game.Board, botMark, opponentMark game.Mark) Decision {
	if cell, ok := findWinningMove(board, botMark); ok {
		return Decision{Cell: cell, Rule: RuleWin}
	}
	if cell, ok := findWinningMove(board, opponentMark); ok {
		return Decision{Cell: cell, Rule: RuleBlock}
	}
	return s.easyMove(board)
}

func (s *Selector) hardMove(board game.Board, botMark, opponentMark game.Mark) Decision {
	// 1. Win
	if cell, ok := findWinningMove(board, botMark); ok {
		return Decision{Cell: cell, Rule: RuleWin}
	}

	// 2. Block
	if cell, ok := findWinningMove(board, opponentMark); ok {
		return Decision{Cell: cell, Rule: RuleBlock}
	}

	// 3. Center
	if board[game.Center] == game.Empty {
		return Decision{Cell: game.Center, Rule: RuleCenter}
	}

	// 4. Corners
	if cell, ok := s.pickEmpty(board, corners); ok {
		return Decision{Cell: cell, Rule: RuleCorner}
	}

	// 5. Sides
	if cell, ok := s.pickEmpty(board, sides); ok {
		return Decision{Cell: cell, Rule: RuleSide}
	}

	// Unreachable on a validated board, kept for robustness.
	for i, m := range board {
		if m == game.Empty {
			return Decision{Cell: i, Rule: RuleFallback}
		}
	}
	return Decision{Cell: -1, Rule: RuleFallback}
}

// pickEmpty chooses uniformly among the empty cells of candidates.
func (s *Selector) pickEmpty(board game.Board, candidates [4]int) (int, bool) {
	available := make([]int, 0, len(candidates))
	for _, cell := range candidates {
		if board[cell] == game.Empty {
			available = append(available, cell)
		}
	}
	if len(available) == 0 {
		return -1, false
	}
	return available[s.rng.IntN(len(available))], true
}

// findWinningMove returns the empty cell of the first line, in scan order,
// where mark holds the other two cells.
func findWinningMove(board game.Board, mark game.Mark) (int, bool) {
	if mark == game.Empty {
		return -1, false
	}
	for _, line := range game.Lines() {
		count, empty := 0, -1
		for _, cell := range line {
			switch board[cell] {
			case mark:
				count++
			case game.Empty:
				empty = cell
			}
		}
		if count == 2 && empty != -1 {
			return empty, true
		}
	}
	return -1, false
}
