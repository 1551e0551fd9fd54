package dcs

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
)

// Rank implements the modified classifier rank. A classifier's competence
// is the number of consecutive correctly classified neighbors starting
// from the nearest one, rewarding classifiers that dominate the immediate
// neighborhood.
type Rank struct {
	*ds.Base
}

// NewRank creates a Rank selector over a fitted pool.
func NewRank(pool []model.Classifier, opts ...ds.Option) *Rank {
	return &Rank{Base: ds.NewBase(pool, opts...)}
}

// Predict labels each row of X with the highest-ranked classifier.
func (r *Rank) Predict(X mat.Matrix) (mat.Matrix, error) {
	return r.PredictWith("Rank", X, r.classify)
}

// PredictProba returns the selected classifier's class probabilities.
func (r *Rank) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return r.PredictProbaWith("Rank", X, r.classify)
}

// Score returns the mean accuracy on X against y.
func (r *Rank) Score(X, y mat.Matrix) (float64, error) {
	return r.ScoreWith("Rank", X, y, r.classify)
}

func (r *Rank) classify(q ds.Query) (int, []float64, error) {
	best := 0
	bestRank := -1
	for j := range r.Pool() {
		rank := 0
		for _, i := range q.Neighbors {
			if !r.Hit(i, j) {
				break
			}
			rank++
		}
		if rank > bestRank {
			best = j
			bestRank = rank
		}
	}
	return q.Labels[best], r.VoteProba(q, []int{best}, nil), nil
}
