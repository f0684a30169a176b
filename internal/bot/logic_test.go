package bot

import (
	"ctchen222/tateti/internal/game"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"
)

const (
	x = game.PlayerX
	o = game.PlayerO
	e = game.Empty
)

// cellIn is a helper function to check if a cell is in a list of expected cells.
func cellIn(cell int, list []int) bool {
	for _, item := range list {
		if item == cell {
			return true
		}
	}
	return false
}

func TestFindWinningMove(t *testing.T) {
	tests := []struct {
		name      string
		board     game.Board
		mark      game.Mark
		wantCell  int
		wantFound bool
	}{
		{
			name:      "No winning move - empty board",
			board:     game.NewBoard(),
			mark:      x,
			wantCell:  -1,
			wantFound: false,
		},
		{
			name: "X can win - first row",
			board: game.Board{
				x, x, e,
				o, o, e,
				e, e, e,
			},
			mark:      x,
			wantCell:  2,
			wantFound: true,
		},
		{
			name: "O can win - second column",
			board: game.Board{
				x, o, e,
				x, o, e,
				e, e, e,
			},
			mark:      o,
			wantCell:  7,
			wantFound: true,
		},
		{
			name: "X can win - gap in the middle of the main diagonal",
			board: game.Board{
				x, o, e,
				e, e, o,
				e, e, x,
			},
			mark:      x,
			wantCell:  4,
			wantFound: true,
		},
		{
			name: "O can win - anti-diagonal",
			board: game.Board{
				e, e, o,
				e, o, e,
				e, e, x,
			},
			mark:      o,
			wantCell:  6,
			wantFound: true,
		},
		{
			name: "Two open lines - first in scan order wins",
			board: game.Board{
				o, o, e,
				e, e, e,
				o, e, e,
			},
			mark:      o,
			wantCell:  2,
			wantFound: true,
		},
		{
			name: "Blocked line is not a winning move",
			board: game.Board{
				x, x, o,
				e, e, e,
				e, e, e,
			},
			mark:      x,
			wantCell:  -1,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, found := findWinningMove(tt.board, tt.mark)
			if found != tt.wantFound || cell != tt.wantCell {
				t.Errorf("findWinningMove() got (%d, %v), want (%d, %v)", cell, found, tt.wantCell, tt.wantFound)
			}
		})
	}
}

func TestSelectMove_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
		want  int
	}{
		{
			name: "Block X on row 0",
			board: game.Board{
				x, x, e,
				e, o, e,
				e, e, e,
			},
			want: 2,
		},
		{
			name: "Complete own row 0",
			board: game.Board{
				o, o, e,
				e, x, e,
				e, e, e,
			},
			want: 2,
		},
		{
			name:  "Empty board takes the center",
			board: game.NewBoard(),
			want:  4,
		},
		{
			name: "Win is preferred over block",
			board: game.Board{
				x, x, e,
				o, o, e,
				x, e, e,
			},
			want: 5,
		},
		{
			name: "Center when nothing to win or block",
			board: game.Board{
				x, e, e,
				e, e, e,
				e, e, e,
			},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No random calls are expected for deterministic steps.
			ctrl := gomock.NewController(t)
			s := NewSelector(NewMockRandSource(ctrl))

			got, err := s.SelectMove(tt.board, o, x)
			if err != nil {
				t.Fatalf("SelectMove() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectMove() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectMove_RandomTieBreak(t *testing.T) {
	t.Run("Corner chosen by the random source", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rng := NewMockRandSource(ctrl)
		rng.EXPECT().IntN(4).Return(3)

		board := game.Board{
			e, e, e,
			e, x, e,
			e, e, e,
		}
		got, err := NewSelector(rng).SelectMove(board, o, x)
		if err != nil {
			t.Fatalf("SelectMove() unexpected error: %v", err)
		}
		if got != 8 {
			t.Errorf("SelectMove() = %d, want corner 8", got)
		}
	})

	t.Run("Only empty corners are candidates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rng := NewMockRandSource(ctrl)
		rng.EXPECT().IntN(2).Return(1)

		board := game.Board{
			x, e, e,
			e, o, e,
			e, e, x,
		}
		got, err := NewSelector(rng).SelectMove(board, o, x)
		if err != nil {
			t.Fatalf("SelectMove() unexpected error: %v", err)
		}
		if got != 6 {
			t.Errorf("SelectMove() = %d, want corner 6", got)
		}
	})

	t.Run("Side chosen when corners and center are taken", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rng := NewMockRandSource(ctrl)
		rng.EXPECT().IntN(2).Return(1)

		board := game.Board{
			x, o, x,
			e, x, e,
			o, x, o,
		}
		got, err := NewSelector(rng).SelectMove(board, o, x)
		if err != nil {
			t.Fatalf("SelectMove() unexpected error: %v", err)
		}
		if got != 5 {
			t.Errorf("SelectMove() = %d, want side 5", got)
		}
	})

	t.Run("Seeded source stays inside the corner set", func(t *testing.T) {
		s := NewSelector(rand.New(rand.NewPCG(1, 2)))
		board := game.Board{
			e, e, x,
			e, o, e,
			e, e, e,
		}
		allowed := []int{0, 6, 8}
		seen := map[int]bool{}
		for i := 0; i < 200; i++ {
			got, err := s.SelectMove(board, o, x)
			if err != nil {
				t.Fatalf("SelectMove() unexpected error: %v", err)
			}
			if !cellIn(got, allowed) {
				t.Fatalf("SelectMove() = %d, want one of %v", got, allowed)
			}
			seen[got] = true
		}
		if len(seen) != len(allowed) {
			t.Errorf("SelectMove() only returned %v over 200 runs", seen)
		}
	})
}

func TestSelectMove_Errors(t *testing.T) {
	s := NewSelector(nil)

	t.Run("Full board", func(t *testing.T) {
		board := game.Board{
			x, o, x,
			o, x, o,
			o, x, o,
		}
		if _, err := s.SelectMove(board, o, x); !errors.Is(err, ErrNoMoveAvailable) {
			t.Errorf("SelectMove() error = %v, want ErrNoMoveAvailable", err)
		}
	})

	t.Run("Decided board", func(t *testing.T) {
		board := game.Board{
			x, x, x,
			o, o, e,
			e, e, e,
		}
		if _, err := s.SelectMove(board, o, x); !errors.Is(err, ErrNoMoveAvailable) {
			t.Errorf("SelectMove() error = %v, want ErrNoMoveAvailable", err)
		}
	})

	t.Run("Malformed board", func(t *testing.T) {
		if _, err := s.SelectMove(game.Board{e, e}, o, x); !errors.Is(err, game.ErrInvalidBoard) {
			t.Errorf("SelectMove() error = %v, want game.ErrInvalidBoard", err)
		}
	})
}

func TestSelectMove_DoesNotMutateBoard(t *testing.T) {
	board := game.Board{
		x, x, e,
		e, o, e,
		e, e, e,
	}
	before := board.Clone()
	if _, err := NewSelector(nil).SelectMove(board, o, x); err != nil {
		t.Fatalf("SelectMove() unexpected error: %v", err)
	}
	for i := range board {
		if board[i] != before[i] {
			t.Fatalf("SelectMove() mutated cell %d", i)
		}
	}
}

// TestSelectMove_AllReachableBoards walks every position reachable with X moving
// first and checks the priority order on each one where O is to move.
func TestSelectMove_AllReachableBoards(t *testing.T) {
	s := NewSelector(rand.New(rand.NewPCG(7, 11)))
	seen := map[string]bool{}
	checked := 0

	var walk func(board game.Board, turn game.Mark)
	walk = func(board game.Board, turn game.Mark) {
		key := boardKey(board)
		if seen[key] {
			return
		}
		seen[key] = true

		outcome, err := game.Evaluate(board)
		if err != nil {
			t.Fatalf("Evaluate() unexpected error: %v", err)
		}
		if outcome.IsOver() {
			return
		}

		if turn == o {
			checked++
			cell, err := s.SelectMove(board, o, x)
			if err != nil {
				t.Fatalf("SelectMove(%s) unexpected error: %v", key, err)
			}
			if board[cell] != e {
				t.Fatalf("SelectMove(%s) = %d, cell is occupied", key, cell)
			}
			winCell, canWin := findWinningMove(board, o)
			blockCell, canBlock := findWinningMove(board, x)
			switch {
			case canWin:
				after := board.Clone()
				after[cell] = o
				if res, _ := game.Evaluate(after); res.Status != game.Win || res.Winner != o {
					t.Fatalf("SelectMove(%s) = %d, missed win at %d", key, cell, winCell)
				}
			case canBlock:
				if cell != blockCell {
					t.Fatalf("SelectMove(%s) = %d, want block %d", key, cell, blockCell)
				}
			case board[game.Center] == e:
				if cell != game.Center {
					t.Fatalf("SelectMove(%s) = %d, want center", key, cell)
				}
			}
		}

		for _, cell := range board.EmptyCells() {
			next := board.Clone()
			next[cell] = turn
			walk(next, turn.Opponent())
		}
	}

	walk(game.NewBoard(), x)
	if checked == 0 {
		t.Fatal("no positions were checked")
	}
}

func boardKey(board game.Board) string {
	var sb strings.Builder
	for _, m := range board {
		if m == e {
			sb.WriteByte('.')
			continue
		}
		sb.WriteString(string(m))
	}
	return sb.String()
}

func TestCalculateNextMove(t *testing.T) {
	t.Run("Easy difficulty - random empty cell", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rng := NewMockRandSource(ctrl)
		rng.EXPECT().IntN(8).Return(0)

		board := game.Board{
			x, e, e,
			e, e, e,
			e, e, e,
		}
		got, err := NewSelector(rng).CalculateNextMove(board, o, x, Easy)
		if err != nil {
			t.Fatalf("CalculateNextMove() unexpected error: %v", err)
		}
		if got.Cell != 1 || got.Rule != RuleRandom {
			t.Errorf("CalculateNextMove() = %+v, want cell 1 by random", got)
		}
	})

	t.Run("Easy difficulty ignores an open win", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rng := NewMockRandSource(ctrl)
		rng.EXPECT().IntN(5).Return(4)

		board := game.Board{
			o, o, e,
			x, x, e,
			e, e, e,
		}
		got, err := NewSelector(rng).CalculateNextMove(board, o, x, Easy)
		if err != nil {
			t.Fatalf("CalculateNextMove() unexpected error: %v", err)
		}
		if got.Cell != 8 {
			t.Errorf("CalculateNextMove() = %+v, want cell 8", got)
		}
	})

	t.Run("Medium difficulty - blocking move", func(t *testing.T) {
		board := game.Board{
			x, x, e,
			o, e, e,
			e, e, e,
		}
		got, err := NewSelector(nil).CalculateNextMove(board, o, x, Medium)
		if err != nil {
			t.Fatalf("CalculateNextMove() unexpected error: %v", err)
		}
		if got.Cell != 2 || got.Rule != RuleBlock {
			t.Errorf("CalculateNextMove() = %+v, want block at 2", got)
		}
	})

	t.Run("Medium difficulty - random instead of center", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rng := NewMockRandSource(ctrl)
		rng.EXPECT().IntN(8).Return(7)

		board := game.Board{
			x, e, e,
			e, e, e,
			e, e, e,
		}
		got, err := NewSelector(rng).CalculateNextMove(board, o, x, Medium)
		if err != nil {
			t.Fatalf("CalculateNextMove() unexpected error: %v", err)
		}
		if got.Cell != 8 || got.Rule != RuleRandom {
			t.Errorf("CalculateNextMove() = %+v, want cell 8 by random", got)
		}
	})

	t.Run("Hard difficulty reports the rule", func(t *testing.T) {
		got, err := NewSelector(nil).CalculateNextMove(game.NewBoard(), o, x, Hard)
		if err != nil {
			t.Fatalf("CalculateNextMove() unexpected error: %v", err)
		}
		if got.Cell != 4 || got.Rule != RuleCenter {
			t.Errorf("CalculateNextMove() = %+v, want center", got)
		}
	})
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"easy":    Easy,
		"medium":  Medium,
		"hard":    Hard,
		"":        Hard,
		"invalid": Hard,
	}
	for in, want := range tests {
		if got := ParseDifficulty(in); got != want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", in, got, want)
		}
	}
}
