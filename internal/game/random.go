package game

import "math/rand"

// ChooseWithProb draws once from rng and returns Cooperate with probability p.
// The draw is uniform over [0, 1), so p = 0 never cooperates and p = 1 always
// does. rng must not be nil; players are constructed with their own source.
func ChooseWithProb(rng *rand.Rand, p float64) Action {
	if rng.Float64() < p {
		return Cooperate
	}
	return Defect
}
