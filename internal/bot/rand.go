package bot

import "math/rand/v2"

//go:generate mockgen -source=rand.go -destination=mock_rand_test.go -package=bot

// RandSource supplies the random tie-break among corners and sides.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}
