// Package dcs implements dynamic classifier selection: methods that pick a
// single most competent base classifier per query.
package dcs

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
)

// OLA implements Overall Local Accuracy: the classifier with the highest
// accuracy over the region of competence answers the query. Ties break by
// pool order.
type OLA struct {
	*ds.Base
}

// NewOLA creates an OLA selector over a fitted pool.
func NewOLA(pool []model.Classifier, opts ...ds.Option) *OLA {
	return &OLA{Base: ds.NewBase(pool, opts...)}
}

// Predict labels each row of X with the locally most accurate classifier.
func (o *OLA) Predict(X mat.Matrix) (mat.Matrix, error) {
	return o.PredictWith("OLA", X, o.classify)
}

// PredictProba returns the selected classifier's class probabilities.
func (o *OLA) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return o.PredictProbaWith("OLA", X, o.classify)
}

// Score returns the mean accuracy on X against y.
func (o *OLA) Score(X, y mat.Matrix) (float64, error) {
	return o.ScoreWith("OLA", X, y, o.classify)
}

func (o *OLA) classify(q ds.Query) (int, []float64, error) {
	best := 0
	bestAcc := -1.0
	for j := range o.Pool() {
		if acc := o.RegionAccuracy(q.Neighbors, j); acc > bestAcc {
			best = j
			bestAcc = acc
		}
	}
	selected := []int{best}
	return q.Labels[best], o.VoteProba(q, selected, nil), nil
}
