// Package tree implements the DecisionTreeClassifier, a CART-style decision
// tree used as the default base learner for classifier pools.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// DecisionTreeClassifier is a CART decision tree for classification,
// compatible with scikit-learn's DecisionTreeClassifier.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "all", "sqrt", "log2"
	randomState     int64

	// Fitted state
	root       *node
	classes_   []int
	nClasses_  int
	nFeatures_ int

	rand *rand.Rand
}

// node is a single tree node. Leaves carry the class distribution of the
// training samples that reached them.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	leaf      bool
	counts    []float64 // per-class sample counts, classes_ order
	total     float64
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// WithCriterion sets the split quality criterion ("gini" or "entropy").
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the tree depth. 0 means grow until pure.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples per leaf.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures controls how many features each split considers:
// "all", "sqrt" or "log2". Random forests use "sqrt".
func WithMaxFeatures(mode string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = mode
	}
}

// WithTreeRandomState fixes the feature-subsampling seed.
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// NewDecisionTreeClassifier creates a new DecisionTreeClassifier.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "all",
		randomState:     -1,
	}

	for _, opt := range opts {
		opt(dt)
	}

	if dt.randomState >= 0 {
		dt.rand = rand.New(rand.NewPCG(uint64(dt.randomState), uint64(dt.randomState)))
	} else {
		dt.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return dt
}

// Fit grows the tree on X (n_samples x n_features) and y (n_samples x 1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector (n×1 matrix)")
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be \"gini\" or \"entropy\"", dt.criterion)
	}

	dt.extractClasses(y, nSamples)
	dt.nFeatures_ = nFeatures

	// Dense copies so split search can index rows directly.
	features := make([][]float64, nSamples)
	labels := make([]int, nSamples)
	classIdx := make(map[int]int, dt.nClasses_)
	for i, class := range dt.classes_ {
		classIdx[class] = i
	}
	for i := 0; i < nSamples; i++ {
		features[i] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			features[i][j] = X.At(i, j)
		}
		labels[i] = classIdx[int(y.At(i, 0))]
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	dt.root = dt.build(features, labels, indices, 1)

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix, nSamples int) {
	seen := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	dt.classes_ = make([]int, 0, len(seen))
	for class := range seen {
		dt.classes_ = append(dt.classes_, class)
	}
	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
}

// build recursively grows the tree below the given sample set.
func (dt *DecisionTreeClassifier) build(features [][]float64, labels, indices []int, depth int) *node {
	counts := make([]float64, dt.nClasses_)
	for _, idx := range indices {
		counts[labels[idx]]++
	}

	n := &node{counts: counts, total: float64(len(indices))}

	if dt.isLeafCondition(counts, len(indices), depth) {
		n.leaf = true
		return n
	}

	feature, threshold, ok := dt.bestSplit(features, labels, indices, counts)
	if !ok {
		n.leaf = true
		return n
	}

	var left, right []int
	for _, idx := range indices {
		if features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	n.feature = feature
	n.threshold = threshold
	n.left = dt.build(features, labels, left, depth+1)
	n.right = dt.build(features, labels, right, depth+1)
	return n
}

func (dt *DecisionTreeClassifier) isLeafCondition(counts []float64, nSamples, depth int) bool {
	if nSamples < dt.minSamplesSplit {
		return true
	}
	if dt.maxDepth > 0 && depth > dt.maxDepth {
		return true
	}
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// bestSplit scans the candidate features and returns the split with the
// largest impurity decrease. ok is false when no split satisfies the
// min-samples-leaf constraint.
func (dt *DecisionTreeClassifier) bestSplit(features [][]float64, labels, indices []int, parentCounts []float64) (int, float64, bool) {
	nSamples := float64(len(indices))
	parentImpurity := dt.impurity(parentCounts, nSamples)

	// Any valid split of an impure node is acceptable, even at zero
	// impurity decrease; the children may become separable deeper down
	// (XOR-like structure needs this).
	bestGain := math.Inf(-1)
	bestFeature := -1
	bestThreshold := 0.0

	type valueLabel struct {
		value float64
		label int
	}

	for _, feature := range dt.candidateFeatures() {
		pairs := make([]valueLabel, len(indices))
		for i, idx := range indices {
			pairs[i] = valueLabel{value: features[idx][feature], label: labels[idx]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

		leftCounts := make([]float64, dt.nClasses_)
		for i := 0; i < len(pairs)-1; i++ {
			leftCounts[pairs[i].label]++

			if pairs[i].value == pairs[i+1].value {
				continue
			}
			nLeft := i + 1
			nRight := len(pairs) - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			rightCounts := make([]float64, dt.nClasses_)
			for c := range rightCounts {
				rightCounts[c] = parentCounts[c] - leftCounts[c]
			}

			weighted := (float64(nLeft)*dt.impurity(leftCounts, float64(nLeft)) +
				float64(nRight)*dt.impurity(rightCounts, float64(nRight))) / nSamples
			gain := parentImpurity - weighted

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// candidateFeatures returns the feature subset considered at one split.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	k := dt.nFeatures_
	switch dt.maxFeatures {
	case "sqrt":
		k = int(math.Ceil(math.Sqrt(float64(dt.nFeatures_))))
	case "log2":
		k = int(math.Ceil(math.Log2(float64(dt.nFeatures_) + 1)))
	}
	if k >= dt.nFeatures_ {
		features := make([]int, dt.nFeatures_)
		for i := range features {
			features[i] = i
		}
		return features
	}
	return dt.rand.Perm(dt.nFeatures_)[:k]
}

func (dt *DecisionTreeClassifier) impurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	if dt.criterion == "entropy" {
		entropy := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / total
				entropy -= p * math.Log2(p)
			}
		}
		return entropy
	}
	// gini
	gini := 1.0
	for _, c := range counts {
		p := c / total
		gini -= p * p
	}
	return gini
}

// Predict returns the predicted label for each row of X.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < dt.nClasses_; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, float64(dt.classes_[best]))
	}

	return predictions, nil
}

// PredictProba returns the class distribution of the leaf each sample lands
// in, columns ordered as Classes().
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures_, nFeatures, 1)
	}

	proba := mat.NewDense(nSamples, dt.nClasses_, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}
		leaf := dt.root
		for !leaf.leaf {
			if row[leaf.feature] <= leaf.threshold {
				leaf = leaf.left
			} else {
				leaf = leaf.right
			}
		}
		for c := 0; c < dt.nClasses_; c++ {
			proba.Set(i, c, leaf.counts[c]/leaf.total)
		}
	}

	return proba, nil
}

// Score returns the mean accuracy on X against y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []int {
	return dt.classes_
}

// IsFitted reports whether Fit completed.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
	}
}
