// Package static provides the non-dynamic baselines: pool members chosen
// once on validation data, the yardsticks dynamic selection must beat.
package static

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/pkg/errors"
	deslog "github.com/mathematixy/deslib/pkg/log"
)

// SingleBest keeps the one pool member with the highest validation accuracy
// and delegates every prediction to it.
type SingleBest struct {
	state *model.StateManager
	pool  []model.Classifier

	best     model.Classifier
	bestIdx_ int
	bestAcc_ float64
}

// NewSingleBest creates a SingleBest baseline over a fitted pool.
func NewSingleBest(pool []model.Classifier) *SingleBest {
	return &SingleBest{
		state: model.NewStateManager(),
		pool:  pool,
	}
}

// Fit scores every pool member on X, y and keeps the winner. Ties break by
// pool order.
func (s *SingleBest) Fit(X, y mat.Matrix) error {
	if len(s.pool) == 0 {
		return errors.NewEmptyPoolError("static.SingleBest.Fit", 0, "no base classifiers supplied")
	}

	nSamples, nFeatures := X.Dims()
	s.bestIdx_ = -1
	s.bestAcc_ = -1.0
	for j, clf := range s.pool {
		if !clf.IsFitted() {
			return errors.NewEmptyPoolError("static.SingleBest.Fit", len(s.pool), "pool members must be fitted")
		}
		acc, err := clf.Score(X, y)
		if err != nil {
			return errors.Wrapf(err, "static.SingleBest: pool member %d failed", j)
		}
		if acc > s.bestAcc_ {
			s.bestIdx_ = j
			s.bestAcc_ = acc
		}
	}
	s.best = s.pool[s.bestIdx_]

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()

	slog.Debug("single best selected",
		slog.Int("ds.best_index", s.bestIdx_),
		slog.Float64(deslog.AccuracyKey, s.bestAcc_),
		slog.Int(deslog.PoolSizeKey, len(s.pool)),
	)
	return nil
}

// Predict delegates to the selected classifier.
func (s *SingleBest) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SingleBest", "Predict")
	}
	return s.best.Predict(X)
}

// PredictProba delegates to the selected classifier.
func (s *SingleBest) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SingleBest", "PredictProba")
	}
	return s.best.PredictProba(X)
}

// Score returns the selected classifier's accuracy on X against y.
func (s *SingleBest) Score(X, y mat.Matrix) (float64, error) {
	if !s.state.IsFitted() {
		return 0, errors.NewNotFittedError("SingleBest", "Score")
	}
	return s.best.Score(X, y)
}

// Classes returns the selected classifier's labels.
func (s *SingleBest) Classes() []int {
	if s.best == nil {
		return nil
	}
	return s.best.Classes()
}

// BestIndex returns the pool position of the selected classifier.
func (s *SingleBest) BestIndex() int { return s.bestIdx_ }

// ValidationAccuracy returns the winner's accuracy on the Fit data.
func (s *SingleBest) ValidationAccuracy() float64 { return s.bestAcc_ }

// IsFitted reports whether Fit completed.
func (s *SingleBest) IsFitted() bool { return s.state.IsFitted() }
