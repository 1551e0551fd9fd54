// Package neighbors provides brute-force nearest-neighbor search and a
// KNeighborsClassifier. The NearestNeighbors index is the region-of-
// competence engine behind every dynamic-selection method.
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// Metric identifies a distance function.
type Metric string

const (
	// Euclidean is the L2 distance.
	Euclidean Metric = "euclidean"
	// Manhattan is the L1 distance.
	Manhattan Metric = "manhattan"
)

// Distance computes the metric between two equal-length vectors.
func (m Metric) Distance(a, b []float64) float64 {
	switch m {
	case Manhattan:
		sum := 0.0
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	default:
		sum := 0.0
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}

// NearestNeighbors is a brute-force neighbor index over a fitted dataset.
type NearestNeighbors struct {
	state *model.StateManager

	metric Metric

	data       [][]float64
	nFeatures_ int
}

// NNOption is a functional option for NearestNeighbors.
type NNOption func(*NearestNeighbors)

// WithMetric sets the distance metric. Default Euclidean.
func WithMetric(metric Metric) NNOption {
	return func(nn *NearestNeighbors) { nn.metric = metric }
}

// NewNearestNeighbors creates a new NearestNeighbors index.
func NewNearestNeighbors(opts ...NNOption) *NearestNeighbors {
	nn := &NearestNeighbors{
		state:  model.NewStateManager(),
		metric: Euclidean,
	}
	for _, opt := range opts {
		opt(nn)
	}
	return nn
}

// Fit indexes the rows of X.
func (nn *NearestNeighbors) Fit(X mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return errors.NewModelError("NearestNeighbors.Fit", "empty data", errors.ErrEmptyData)
	}

	nn.data = make([][]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		nn.data[i] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			nn.data[i][j] = X.At(i, j)
		}
	}
	nn.nFeatures_ = nFeatures

	nn.state.SetDimensions(nFeatures, nSamples)
	nn.state.SetFitted()
	return nil
}

// NSamples returns the number of indexed samples.
func (nn *NearestNeighbors) NSamples() int {
	return len(nn.data)
}

// KNeighbors returns the indices of the k nearest indexed samples to the
// query, closest first, along with their distances. Distance ties are broken
// by index order to keep regions deterministic.
func (nn *NearestNeighbors) KNeighbors(query []float64, k int) (indices []int, distances []float64, err error) {
	if !nn.state.IsFitted() {
		return nil, nil, errors.NewNotFittedError("NearestNeighbors", "KNeighbors")
	}
	if len(query) != nn.nFeatures_ {
		return nil, nil, errors.NewDimensionError("NearestNeighbors.KNeighbors", nn.nFeatures_, len(query), 1)
	}
	if k < 1 || k > len(nn.data) {
		return nil, nil, errors.NewValidationError("k", "must be in [1, n_indexed_samples]", k)
	}

	type neighbor struct {
		index    int
		distance float64
	}
	all := make([]neighbor, len(nn.data))
	for i, row := range nn.data {
		all[i] = neighbor{index: i, distance: nn.metric.Distance(query, row)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].distance != all[j].distance {
			return all[i].distance < all[j].distance
		}
		return all[i].index < all[j].index
	})

	indices = make([]int, k)
	distances = make([]float64, k)
	for i := 0; i < k; i++ {
		indices[i] = all[i].index
		distances[i] = all[i].distance
	}
	return indices, distances, nil
}

// KNeighborsClassifier is a k-nearest-neighbors voting classifier.
type KNeighborsClassifier struct {
	state *model.StateManager

	k      int
	metric Metric

	index    *NearestNeighbors
	labels   []int
	classes_ []int
}

// KNNOption is a functional option for KNeighborsClassifier.
type KNNOption func(*KNeighborsClassifier)

// WithKNNK sets the number of voting neighbors. Default 5.
func WithKNNK(k int) KNNOption {
	return func(c *KNeighborsClassifier) { c.k = k }
}

// WithKNNMetric sets the distance metric. Default Euclidean.
func WithKNNMetric(metric Metric) KNNOption {
	return func(c *KNeighborsClassifier) { c.metric = metric }
}

// NewKNeighborsClassifier creates a new KNeighborsClassifier.
func NewKNeighborsClassifier(opts ...KNNOption) *KNeighborsClassifier {
	c := &KNeighborsClassifier{
		state:  model.NewStateManager(),
		k:      5,
		metric: Euclidean,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit stores the training data and labels.
func (c *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNeighborsClassifier.Fit", "y must be a column vector (n×1 matrix)")
	}
	if c.k < 1 || c.k > nSamples {
		return errors.NewValidationError("k", "must be in [1, n_samples]", c.k)
	}

	c.index = NewNearestNeighbors(WithMetric(c.metric))
	if err := c.index.Fit(X); err != nil {
		return err
	}

	c.labels = make([]int, nSamples)
	seen := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		c.labels[i] = int(y.At(i, 0))
		seen[c.labels[i]] = true
	}
	c.classes_ = make([]int, 0, len(seen))
	for class := range seen {
		c.classes_ = append(c.classes_, class)
	}
	sort.Ints(c.classes_)

	_, nFeatures := X.Dims()
	c.state.SetDimensions(nFeatures, nSamples)
	c.state.SetFitted()
	return nil
}

// Predict returns the majority label among the k nearest neighbors.
func (c *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for j := 1; j < len(c.classes_); j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		predictions.Set(i, 0, float64(c.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns neighbor vote fractions per class.
func (c *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError("KNeighborsClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	expected, _ := c.state.GetDimensions()
	if nFeatures != expected {
		return nil, errors.NewDimensionError("KNeighborsClassifier.PredictProba", expected, nFeatures, 1)
	}

	columnOf := make(map[int]int, len(c.classes_))
	for i, class := range c.classes_ {
		columnOf[class] = i
	}

	proba := mat.NewDense(nSamples, len(c.classes_), nil)
	query := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			query[j] = X.At(i, j)
		}
		indices, _, err := c.index.KNeighbors(query, c.k)
		if err != nil {
			return nil, err
		}
		for _, idx := range indices {
			col := columnOf[c.labels[idx]]
			proba.Set(i, col, proba.At(i, col)+1)
		}
		for j := 0; j < len(c.classes_); j++ {
			proba.Set(i, j, proba.At(i, j)/float64(c.k))
		}
	}
	return proba, nil
}

// Score returns the mean accuracy on X against y.
func (c *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels seen during fitting.
func (c *KNeighborsClassifier) Classes() []int {
	return c.classes_
}

// IsFitted reports whether Fit completed.
func (c *KNeighborsClassifier) IsFitted() bool {
	return c.state.IsFitted()
}
