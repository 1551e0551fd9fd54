package des

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/pkg/errors"
)

// KNORAE implements k-Nearest Oracles Eliminate. Only local oracles
// (classifiers correct on the entire region) are selected. When no oracle
// exists the region shrinks by its farthest neighbor and the search
// restarts, down to a single neighbor.
type KNORAE struct {
	*ds.Base
}

// NewKNORAE creates a KNORA-E selector over a fitted pool.
func NewKNORAE(pool []model.Classifier, opts ...ds.Option) *KNORAE {
	return &KNORAE{Base: ds.NewBase(pool, opts...)}
}

// Predict labels each row of X by the oracle committee's majority vote.
func (k *KNORAE) Predict(X mat.Matrix) (mat.Matrix, error) {
	return k.PredictWith("KNORA-E", X, k.classify)
}

// PredictProba returns committee-averaged class probabilities.
func (k *KNORAE) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return k.PredictProbaWith("KNORA-E", X, k.classify)
}

// Score returns the mean accuracy on X against y.
func (k *KNORAE) Score(X, y mat.Matrix) (float64, error) {
	return k.ScoreWith("KNORA-E", X, y, k.classify)
}

func (k *KNORAE) classify(q ds.Query) (int, []float64, error) {
	// Neighbors are ordered nearest first, so region[:size] is the
	// shrunken region.
	for size := len(q.Neighbors); size >= 1; size-- {
		counts := k.CorrectCounts(q.Neighbors[:size])
		var oracles []int
		for j, c := range counts {
			if c == size {
				oracles = append(oracles, j)
			}
		}
		if len(oracles) > 0 {
			return k.VoteLabel(q, oracles, nil), k.VoteProba(q, oracles, nil), nil
		}
	}

	// Not a single classifier is correct on even the nearest neighbor.
	errors.Warn(errors.NewEmptyRegionWarning("KNORA-E", k.K(), "majority vote of the whole pool"))
	all := k.AllMembers()
	return k.VoteLabel(q, all, nil), k.VoteProba(q, all, nil), nil
}
