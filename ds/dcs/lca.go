package dcs

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/pkg/errors"
)

// LCA implements Local Class Accuracy. A classifier's competence is its
// accuracy restricted to the region samples whose true label equals the
// class the classifier assigns the query, a sharper signal than OLA when
// classes overlap.
type LCA struct {
	*ds.Base
}

// NewLCA creates an LCA selector over a fitted pool.
func NewLCA(pool []model.Classifier, opts ...ds.Option) *LCA {
	return &LCA{Base: ds.NewBase(pool, opts...)}
}

// Predict labels each row of X with the class-locally most accurate
// classifier.
func (l *LCA) Predict(X mat.Matrix) (mat.Matrix, error) {
	return l.PredictWith("LCA", X, l.classify)
}

// PredictProba returns the selected classifier's class probabilities.
func (l *LCA) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return l.PredictProbaWith("LCA", X, l.classify)
}

// Score returns the mean accuracy on X against y.
func (l *LCA) Score(X, y mat.Matrix) (float64, error) {
	return l.ScoreWith("LCA", X, y, l.classify)
}

func (l *LCA) classify(q ds.Query) (int, []float64, error) {
	best := -1
	bestAcc := 0.0
	for j := range l.Pool() {
		target := q.Labels[j]
		correct, total := 0, 0
		for _, i := range q.Neighbors {
			if l.DSELLabel(i) != target {
				continue
			}
			total++
			if l.Hit(i, j) {
				correct++
			}
		}
		if total == 0 {
			continue
		}
		if acc := float64(correct) / float64(total); acc > bestAcc {
			best = j
			bestAcc = acc
		}
	}

	if best < 0 {
		// No region sample shares any classifier's predicted class; fall
		// back to the pool's majority vote.
		errors.Warn(errors.NewEmptyRegionWarning("LCA", l.K(), "majority vote of the whole pool"))
		all := l.AllMembers()
		return l.VoteLabel(q, all, nil), l.VoteProba(q, all, nil), nil
	}
	return q.Labels[best], l.VoteProba(q, []int{best}, nil), nil
}
