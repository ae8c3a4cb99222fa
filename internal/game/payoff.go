package game

// Payoff holds the four canonical prisoner's dilemma payoffs.
type Payoff struct {
	R int `json:"r"` // reward, mutual cooperation
	S int `json:"s"` // sucker, cooperating against a defector
	T int `json:"t"` // temptation, defecting against a cooperator
	P int `json:"p"` // punishment, mutual defection
}

// DefaultPayoff returns the standard (R, S, T, P) = (3, 0, 5, 1) matrix.
func DefaultPayoff() Payoff {
	return Payoff{R: 3, S: 0, T: 5, P: 1}
}

// Valid reports whether the matrix satisfies T > R > P > S and 2R > T + S.
func (p Payoff) Valid() bool {
	return p.T > p.R && p.R > p.P && p.P > p.S && 2*p.R > p.T+p.S
}

// Score returns the per-round payoffs for both sides.
func (p Payoff) Score(a, b Action) (int, int) {
	switch {
	case a == Cooperate && b == Cooperate:
		return p.R, p.R
	case a == Cooperate && b == Defect:
		return p.S, p.T
	case a == Defect && b == Cooperate:
		return p.T, p.S
	default:
		return p.P, p.P
	}
}
