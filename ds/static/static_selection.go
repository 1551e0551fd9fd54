package static

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// StaticSelection keeps the top fraction of the pool by validation accuracy
// and combines them by majority vote for every query.
type StaticSelection struct {
	state *model.StateManager
	pool  []model.Classifier

	pctClassifiers float64
	selected_      []int
	classes_       []int
}

// StaticSelectionOption configures StaticSelection.
type StaticSelectionOption func(*StaticSelection)

// WithPctClassifiers sets the fraction of the pool to keep, in (0, 1].
// Default 0.5.
func WithPctClassifiers(pct float64) StaticSelectionOption {
	return func(s *StaticSelection) { s.pctClassifiers = pct }
}

// NewStaticSelection creates a StaticSelection ensemble over a fitted pool.
func NewStaticSelection(pool []model.Classifier, opts ...StaticSelectionOption) *StaticSelection {
	s := &StaticSelection{
		state:          model.NewStateManager(),
		pool:           pool,
		pctClassifiers: 0.5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit ranks the pool by accuracy on X, y and keeps the top fraction,
// always at least one member.
func (s *StaticSelection) Fit(X, y mat.Matrix) error {
	if len(s.pool) == 0 {
		return errors.NewEmptyPoolError("static.StaticSelection.Fit", 0, "no base classifiers supplied")
	}
	if s.pctClassifiers <= 0 || s.pctClassifiers > 1 {
		return errors.NewValidationError("pctClassifiers", "must be in (0, 1]", s.pctClassifiers)
	}

	nSamples, nFeatures := X.Dims()

	type ranked struct {
		idx int
		acc float64
	}
	scores := make([]ranked, len(s.pool))
	classSet := make(map[int]bool)
	for j, clf := range s.pool {
		if !clf.IsFitted() {
			return errors.NewEmptyPoolError("static.StaticSelection.Fit", len(s.pool), "pool members must be fitted")
		}
		acc, err := clf.Score(X, y)
		if err != nil {
			return errors.Wrapf(err, "static.StaticSelection: pool member %d failed", j)
		}
		scores[j] = ranked{idx: j, acc: acc}
		for _, c := range clf.Classes() {
			classSet[c] = true
		}
	}
	// Stable sort keeps pool order among equally accurate members.
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].acc > scores[b].acc })

	keep := int(float64(len(s.pool)) * s.pctClassifiers)
	if keep < 1 {
		keep = 1
	}
	s.selected_ = make([]int, keep)
	for i := 0; i < keep; i++ {
		s.selected_[i] = scores[i].idx
	}
	sort.Ints(s.selected_)

	s.classes_ = make([]int, 0, len(classSet))
	for c := range classSet {
		s.classes_ = append(s.classes_, c)
	}
	sort.Ints(s.classes_)

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// Predict returns the majority vote of the selected members. Ties break
// toward the smaller label.
func (s *StaticSelection) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StaticSelection", "Predict")
	}

	nSamples, _ := X.Dims()
	votes := make([]map[int]int, nSamples)
	for i := range votes {
		votes[i] = make(map[int]int, len(s.classes_))
	}
	for _, j := range s.selected_ {
		pred, err := s.pool[j].Predict(X)
		if err != nil {
			return nil, errors.Wrapf(err, "static.StaticSelection: pool member %d failed", j)
		}
		for i := 0; i < nSamples; i++ {
			votes[i][int(pred.At(i, 0))]++
		}
	}

	out := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := s.classes_[0]
		bestVotes := -1
		for _, label := range s.classes_ {
			if v := votes[i][label]; v > bestVotes {
				best = label
				bestVotes = v
			}
		}
		out.Set(i, 0, float64(best))
	}
	return out, nil
}

// PredictProba averages the selected members' probabilities, columns
// aligned to Classes().
func (s *StaticSelection) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StaticSelection", "PredictProba")
	}

	nSamples, _ := X.Dims()
	colOf := make(map[int]int, len(s.classes_))
	for idx, c := range s.classes_ {
		colOf[c] = idx
	}

	sum := mat.NewDense(nSamples, len(s.classes_), nil)
	for _, j := range s.selected_ {
		proba, err := s.pool[j].PredictProba(X)
		if err != nil {
			return nil, errors.Wrapf(err, "static.StaticSelection: pool member %d failed", j)
		}
		for src, c := range s.pool[j].Classes() {
			dst, ok := colOf[c]
			if !ok {
				continue
			}
			for i := 0; i < nSamples; i++ {
				sum.Set(i, dst, sum.At(i, dst)+proba.At(i, src))
			}
		}
	}
	sum.Scale(1/float64(len(s.selected_)), sum)
	return sum, nil
}

// Score returns the mean accuracy on X against y.
func (s *StaticSelection) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, pred)
}

// Classes returns the sorted union of the pool's labels.
func (s *StaticSelection) Classes() []int { return s.classes_ }

// Selected returns the kept pool indices, sorted.
func (s *StaticSelection) Selected() []int { return s.selected_ }

// IsFitted reports whether Fit completed.
func (s *StaticSelection) IsFitted() bool { return s.state.IsFitted() }
