package des

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/pkg/errors"
)

// DESP implements DES-Performance. A classifier joins the committee when
// its accuracy over the region beats the random-guess rate 1/nClasses.
type DESP struct {
	*ds.Base
}

// NewDESP creates a DES-P selector over a fitted pool.
func NewDESP(pool []model.Classifier, opts ...ds.Option) *DESP {
	return &DESP{Base: ds.NewBase(pool, opts...)}
}

// Predict labels each row of X by the committee's majority vote.
func (d *DESP) Predict(X mat.Matrix) (mat.Matrix, error) {
	return d.PredictWith("DES-P", X, d.classify)
}

// PredictProba returns committee-averaged class probabilities.
func (d *DESP) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return d.PredictProbaWith("DES-P", X, d.classify)
}

// Score returns the mean accuracy on X against y.
func (d *DESP) Score(X, y mat.Matrix) (float64, error) {
	return d.ScoreWith("DES-P", X, y, d.classify)
}

func (d *DESP) classify(q ds.Query) (int, []float64, error) {
	baseline := 1.0 / float64(len(d.Classes()))

	var selected []int
	for j := range d.Pool() {
		if d.RegionAccuracy(q.Neighbors, j) > baseline {
			selected = append(selected, j)
		}
	}
	if len(selected) == 0 {
		errors.Warn(errors.NewEmptyRegionWarning("DES-P", d.K(), "majority vote of the whole pool"))
		selected = d.AllMembers()
	}

	return d.VoteLabel(q, selected, nil), d.VoteProba(q, selected, nil), nil
}
