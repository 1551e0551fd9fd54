package dcs

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/pkg/errors"
)

// MCB implements Multiple Classifier Behaviour. The region of competence is
// first filtered to neighbors whose behaviour profile (the vector of pool
// predictions) resembles the query's; competence is then overall accuracy
// on the filtered region. Selection only trusts the winner when it beats
// the runner-up by the selection difference threshold, otherwise the whole
// pool votes.
type MCB struct {
	*ds.Base

	similarityThreshold float64
	diffThreshold       float64
	baseOpts            []ds.Option
}

// MCBOption configures MCB on top of the shared ds options.
type MCBOption func(*MCB)

// WithMCBK sets the region size. Default 7.
func WithMCBK(k int) MCBOption {
	return func(m *MCB) { m.baseOpts = append(m.baseOpts, ds.WithK(k)) }
}

// WithSimilarityThreshold sets the minimum fraction of pool members that
// must agree between the query's and a neighbor's behaviour profiles for
// the neighbor to stay in the region. Default 0.7.
func WithSimilarityThreshold(threshold float64) MCBOption {
	return func(m *MCB) { m.similarityThreshold = threshold }
}

// WithDiffThreshold sets the competence margin the best classifier needs
// over the runner-up to be trusted alone. Default 0.1.
func WithDiffThreshold(threshold float64) MCBOption {
	return func(m *MCB) { m.diffThreshold = threshold }
}

// NewMCB creates an MCB selector over a fitted pool.
func NewMCB(pool []model.Classifier, opts ...MCBOption) *MCB {
	m := &MCB{
		similarityThreshold: 0.7,
		diffThreshold:       0.1,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Base = ds.NewBase(pool, m.baseOpts...)
	return m
}

// Predict labels each row of X via behaviour-filtered local accuracy.
func (m *MCB) Predict(X mat.Matrix) (mat.Matrix, error) {
	return m.PredictWith("MCB", X, m.classify)
}

// PredictProba returns the decision's class probabilities.
func (m *MCB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return m.PredictProbaWith("MCB", X, m.classify)
}

// Score returns the mean accuracy on X against y.
func (m *MCB) Score(X, y mat.Matrix) (float64, error) {
	return m.ScoreWith("MCB", X, y, m.classify)
}

func (m *MCB) classify(q ds.Query) (int, []float64, error) {
	region := m.filterRegion(q)

	best, runnerUp := 0, -1.0
	bestAcc := -1.0
	for j := range m.Pool() {
		acc := m.RegionAccuracy(region, j)
		if acc > bestAcc {
			runnerUp = bestAcc
			best = j
			bestAcc = acc
		} else if acc > runnerUp {
			runnerUp = acc
		}
	}

	if len(m.Pool()) > 1 && bestAcc-runnerUp < m.diffThreshold {
		// The winner is not clearly better; a single choice would be
		// arbitrary, so the whole pool votes.
		all := m.AllMembers()
		return m.VoteLabel(q, all, nil), m.VoteProba(q, all, nil), nil
	}
	return q.Labels[best], m.VoteProba(q, []int{best}, nil), nil
}

// filterRegion keeps the neighbors whose behaviour profile agrees with the
// query's on at least similarityThreshold of the pool. An empty result
// falls back to the unfiltered region.
func (m *MCB) filterRegion(q ds.Query) []int {
	filtered := make([]int, 0, len(q.Neighbors))
	for _, i := range q.Neighbors {
		agree := 0
		for j := range m.Pool() {
			if m.DSELPrediction(i, j) == q.Labels[j] {
				agree++
			}
		}
		if float64(agree)/float64(len(m.Pool())) >= m.similarityThreshold {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == 0 {
		errors.Warn(errors.NewEmptyRegionWarning("MCB", m.K(), "unfiltered region of competence"))
		return q.Neighbors
	}
	return filtered
}
