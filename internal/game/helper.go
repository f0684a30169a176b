package game

// Valid reports whether m is one of the three known marks.
func (m Mark) Valid() bool {
	return m == Empty || m == PlayerX || m == PlayerO
}

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

// EmptyCells returns the indices of all empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, len(b))
	for i, m := range b {
		if m == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// InRange reports whether cell is a valid board index.
func InRange(cell int) bool {
	return cell >= 0 && cell < Size
}
