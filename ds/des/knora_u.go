// Package des implements dynamic ensemble selection: methods that pick a
// committee of base classifiers per query and combine their votes.
package des

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/pkg/errors"
)

// KNORAU implements k-Nearest Oracles Union. Every classifier that gets at
// least one region sample right joins the committee, voting with weight
// equal to its number of correct region samples.
type KNORAU struct {
	*ds.Base
}

// NewKNORAU creates a KNORA-U selector over a fitted pool.
func NewKNORAU(pool []model.Classifier, opts ...ds.Option) *KNORAU {
	return &KNORAU{Base: ds.NewBase(pool, opts...)}
}

// Predict labels each row of X by the weighted vote of the union committee.
func (k *KNORAU) Predict(X mat.Matrix) (mat.Matrix, error) {
	return k.PredictWith("KNORA-U", X, k.classify)
}

// PredictProba returns committee-averaged class probabilities.
func (k *KNORAU) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return k.PredictProbaWith("KNORA-U", X, k.classify)
}

// Score returns the mean accuracy on X against y.
func (k *KNORAU) Score(X, y mat.Matrix) (float64, error) {
	return k.ScoreWith("KNORA-U", X, y, k.classify)
}

func (k *KNORAU) classify(q ds.Query) (int, []float64, error) {
	counts := k.CorrectCounts(q.Neighbors)

	var selected []int
	var weights []float64
	for j, c := range counts {
		if c > 0 {
			selected = append(selected, j)
			weights = append(weights, float64(c))
		}
	}
	if len(selected) == 0 {
		// No classifier gets anything right near the query; the whole
		// pool votes unweighted.
		errors.Warn(errors.NewEmptyRegionWarning("KNORA-U", k.K(), "majority vote of the whole pool"))
		selected = k.AllMembers()
		weights = nil
	}

	return k.VoteLabel(q, selected, weights), k.VoteProba(q, selected, weights), nil
}
