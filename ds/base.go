// Package ds provides the shared machinery for dynamic selection: the
// DSEL bookkeeping, the region of competence, and the batch prediction
// pipeline that the concrete methods in ds/des, ds/dcs and ds/static
// build on.
//
// Dynamic selection keeps a pool of fitted base classifiers and, for each
// query, estimates the competence of every pool member on the query's
// neighborhood in a held-out dynamic-selection set (DSEL). The methods
// differ only in how they turn neighborhood evidence into a committee.
package ds

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/core/parallel"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/neighbors"
	"github.com/mathematixy/deslib/pkg/errors"
	deslog "github.com/mathematixy/deslib/pkg/log"
)

// Base carries the pool, the DSEL and everything precomputed on it.
// Concrete DS methods embed Base and supply a ClassifyFunc.
type Base struct {
	state *model.StateManager

	pool   []model.Classifier
	k      int
	metric neighbors.Metric

	knn      *neighbors.NearestNeighbors
	dselX    *mat.Dense
	dselY    []int
	classes_ []int

	// Precomputed on DSEL at Fit time. preds[i][j] is pool[j]'s label for
	// DSEL sample i; hits[i][j] records whether that label is correct.
	preds [][]int
	hits  [][]bool
	// proba[j] is pool[j]'s (nDSEL x nClasses) probability matrix on DSEL,
	// columns aligned to Classes().
	proba []*mat.Dense
}

// Option configures a Base (and therefore every DS method).
type Option func(*Base)

// WithK sets the size of the region of competence. Default 7.
func WithK(k int) Option {
	return func(b *Base) { b.k = k }
}

// WithDistanceMetric sets the metric used to build regions of competence.
func WithDistanceMetric(metric neighbors.Metric) Option {
	return func(b *Base) { b.metric = metric }
}

// NewBase wires a pool into the DS machinery. The pool members must
// already be fitted; this is checked at Fit time.
func NewBase(pool []model.Classifier, opts ...Option) *Base {
	b := &Base{
		state:  model.NewStateManager(),
		pool:   pool,
		k:      7,
		metric: neighbors.Euclidean,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fit indexes the DSEL and precomputes every pool member's outputs on it.
// X, y form the dynamic-selection set, typically a split held out from the
// pool's own training data.
func (b *Base) Fit(X, y mat.Matrix) error {
	if len(b.pool) == 0 {
		return errors.NewEmptyPoolError("ds.Fit", 0, "no base classifiers supplied")
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.NewModelError("ds.Fit", "empty DSEL", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("ds.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("ds.Fit", "y must be a column vector (n×1 matrix)")
	}
	if b.k < 1 || b.k > nSamples {
		return errors.NewValidationError("k", "must satisfy 1 <= k <= len(DSEL)", b.k)
	}

	classSet := make(map[int]bool)
	for _, clf := range b.pool {
		if !clf.IsFitted() {
			return errors.NewEmptyPoolError("ds.Fit", len(b.pool), "pool members must be fitted before dynamic selection")
		}
		for _, c := range clf.Classes() {
			classSet[c] = true
		}
	}
	b.classes_ = make([]int, 0, len(classSet))
	for c := range classSet {
		b.classes_ = append(b.classes_, c)
	}
	sort.Ints(b.classes_)

	b.dselX = mat.DenseCopyOf(X)
	b.dselY = make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		b.dselY[i] = int(y.At(i, 0))
	}

	b.knn = neighbors.NewNearestNeighbors(neighbors.WithMetric(b.metric))
	if err := b.knn.Fit(b.dselX); err != nil {
		return err
	}

	if err := b.precomputeDSEL(); err != nil {
		return err
	}

	b.state.SetDimensions(nFeatures, nSamples)
	b.state.SetFitted()

	slog.Debug("dynamic selection fitted",
		slog.Int(deslog.PoolSizeKey, len(b.pool)),
		slog.Int(deslog.NeighborsKey, b.k),
		slog.Int(deslog.SamplesKey, nSamples),
		slog.Int(deslog.ClassesKey, len(b.classes_)),
	)
	return nil
}

// precomputeDSEL runs every pool member over the DSEL once, storing labels,
// the hit matrix and class-aligned probabilities.
func (b *Base) precomputeDSEL() error {
	nSamples, _ := b.dselX.Dims()
	b.preds = make([][]int, nSamples)
	b.hits = make([][]bool, nSamples)
	for i := range b.preds {
		b.preds[i] = make([]int, len(b.pool))
		b.hits[i] = make([]bool, len(b.pool))
	}
	b.proba = make([]*mat.Dense, len(b.pool))

	for j, clf := range b.pool {
		pred, err := clf.Predict(b.dselX)
		if err != nil {
			return errors.Wrapf(err, "ds: pool member %d failed on DSEL", j)
		}
		rawProba, err := clf.PredictProba(b.dselX)
		if err != nil {
			return errors.Wrapf(err, "ds: pool member %d failed on DSEL", j)
		}
		b.proba[j] = b.alignProba(rawProba, clf.Classes())

		for i := 0; i < nSamples; i++ {
			label := int(pred.At(i, 0))
			b.preds[i][j] = label
			b.hits[i][j] = label == b.dselY[i]
		}
	}
	return nil
}

// alignProba maps a classifier's probability columns onto the union class
// list. A member trained on a bootstrap sample may not know every class.
func (b *Base) alignProba(p mat.Matrix, memberClasses []int) *mat.Dense {
	nSamples, _ := p.Dims()
	aligned := mat.NewDense(nSamples, len(b.classes_), nil)
	colOf := make(map[int]int, len(b.classes_))
	for idx, c := range b.classes_ {
		colOf[c] = idx
	}
	for src, c := range memberClasses {
		dst, ok := colOf[c]
		if !ok {
			continue
		}
		for i := 0; i < nSamples; i++ {
			aligned.Set(i, dst, p.At(i, src))
		}
	}
	return aligned
}

// Classes returns the sorted union of the pool members' class labels.
func (b *Base) Classes() []int { return b.classes_ }

// K returns the region-of-competence size.
func (b *Base) K() int { return b.k }

// Pool returns the base classifiers.
func (b *Base) Pool() []model.Classifier { return b.pool }

// NSamplesDSEL returns the number of dynamic-selection samples.
func (b *Base) NSamplesDSEL() int { return len(b.dselY) }

// IsFitted reports whether Fit completed.
func (b *Base) IsFitted() bool { return b.state.IsFitted() }

// DSELLabel returns the true label of DSEL sample i.
func (b *Base) DSELLabel(i int) int { return b.dselY[i] }

// Hit reports whether pool member j classified DSEL sample i correctly.
func (b *Base) Hit(i, j int) bool { return b.hits[i][j] }

// DSELPrediction returns pool member j's label for DSEL sample i.
func (b *Base) DSELPrediction(i, j int) int { return b.preds[i][j] }

// DSELProba returns pool member j's probability for class column c on DSEL
// sample i. Columns follow Classes().
func (b *Base) DSELProba(i, j, c int) float64 { return b.proba[j].At(i, c) }

// ClassIndex maps a label to its column in Classes(), or -1.
func (b *Base) ClassIndex(label int) int {
	for idx, c := range b.classes_ {
		if c == label {
			return idx
		}
	}
	return -1
}

// Region returns the DSEL indices and distances of the query's k nearest
// neighbors, nearest first.
func (b *Base) Region(query []float64) ([]int, []float64, error) {
	return b.knn.KNeighbors(query, b.k)
}

// RegionN is Region with an explicit neighbor count. Callers that query
// with a DSEL sample itself ask for one extra neighbor and drop the sample.
func (b *Base) RegionN(query []float64, k int) ([]int, []float64, error) {
	return b.knn.KNeighbors(query, k)
}

// DSELRow copies out the feature vector of DSEL sample i.
func (b *Base) DSELRow(i int) []float64 {
	_, nFeatures := b.dselX.Dims()
	row := make([]float64, nFeatures)
	for f := 0; f < nFeatures; f++ {
		row[f] = b.dselX.At(i, f)
	}
	return row
}

// Query bundles everything a ClassifyFunc may look at for one test sample:
// the sample itself, its region of competence and the pool's outputs on it.
type Query struct {
	X         []float64
	Neighbors []int     // DSEL indices, nearest first
	Distances []float64 // paired with Neighbors
	Labels    []int     // pool predictions for this sample, len = pool size
	Proba     *mat.Dense // (poolSize x nClasses) pool probabilities, columns per Classes()
}

// ClassifyFunc turns one query into a label and a class-probability vector
// (columns per Classes()). This is the single hook a DS method implements.
type ClassifyFunc func(q Query) (int, []float64, error)

// PredictWith drives the batch pipeline: for each row of X it computes the
// pool outputs and the region of competence, then delegates to classify.
// Rows are processed in parallel.
func (b *Base) PredictWith(name string, X mat.Matrix, classify ClassifyFunc) (pred mat.Matrix, err error) {
	defer errors.Recover(&err, "ds."+name+".Predict")

	proba, err := b.predictProbaWith(name, X, classify, false)
	if err != nil {
		return nil, err
	}
	return proba.labels, nil
}

// PredictProbaWith is the probability counterpart of PredictWith.
func (b *Base) PredictProbaWith(name string, X mat.Matrix, classify ClassifyFunc) (p mat.Matrix, err error) {
	defer errors.Recover(&err, "ds."+name+".PredictProba")

	proba, err := b.predictProbaWith(name, X, classify, true)
	if err != nil {
		return nil, err
	}
	return proba.proba, nil
}

// ScoreWith computes the mean accuracy of classify over X against y.
func (b *Base) ScoreWith(name string, X, y mat.Matrix, classify ClassifyFunc) (float64, error) {
	pred, err := b.PredictWith(name, X, classify)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, pred)
}

type batchResult struct {
	labels *mat.Dense
	proba  *mat.Dense
}

func (b *Base) predictProbaWith(name string, X mat.Matrix, classify ClassifyFunc, wantProba bool) (batchResult, error) {
	var res batchResult
	if !b.state.IsFitted() {
		return res, errors.NewNotFittedError(name, "Predict")
	}

	nSamples, nFeatures := X.Dims()
	wantFeatures, _ := b.state.GetDimensions()
	if nFeatures != wantFeatures {
		return res, errors.NewDimensionError("ds."+name+".Predict", wantFeatures, nFeatures, 1)
	}

	// Pool outputs for the whole batch, one pass per member.
	poolLabels := make([][]int, len(b.pool))
	poolProba := make([]*mat.Dense, len(b.pool))
	for j, clf := range b.pool {
		pred, err := clf.Predict(X)
		if err != nil {
			return res, errors.Wrapf(err, "ds.%s: pool member %d failed", name, j)
		}
		rawProba, err := clf.PredictProba(X)
		if err != nil {
			return res, errors.Wrapf(err, "ds.%s: pool member %d failed", name, j)
		}
		poolLabels[j] = make([]int, nSamples)
		for i := 0; i < nSamples; i++ {
			poolLabels[j][i] = int(pred.At(i, 0))
		}
		poolProba[j] = b.alignProba(rawProba, clf.Classes())
	}

	labels := mat.NewDense(nSamples, 1, nil)
	probaOut := mat.NewDense(nSamples, len(b.classes_), nil)
	errs := make([]error, nSamples)

	parallel.Parallelize(nSamples, func(start, end int) {
		row := make([]float64, nFeatures)
		for i := start; i < end; i++ {
			for f := 0; f < nFeatures; f++ {
				row[f] = X.At(i, f)
			}
			neighborIdx, dists, err := b.Region(row)
			if err != nil {
				errs[i] = err
				continue
			}

			q := Query{
				X:         append([]float64(nil), row...),
				Neighbors: neighborIdx,
				Distances: dists,
				Labels:    make([]int, len(b.pool)),
				Proba:     mat.NewDense(len(b.pool), len(b.classes_), nil),
			}
			for j := range b.pool {
				q.Labels[j] = poolLabels[j][i]
				for c := range b.classes_ {
					q.Proba.Set(j, c, poolProba[j].At(i, c))
				}
			}

			label, proba, err := classify(q)
			if err != nil {
				errs[i] = err
				continue
			}
			labels.Set(i, 0, float64(label))
			if wantProba {
				if len(proba) != len(b.classes_) {
					errs[i] = errors.Newf("ds.%s: classify returned %d probabilities, want %d", name, len(proba), len(b.classes_))
					continue
				}
				for c, p := range proba {
					probaOut.Set(i, c, p)
				}
			}
		}
	})

	for _, err := range errs {
		if err != nil {
			return res, err
		}
	}
	res.labels = labels
	res.proba = probaOut
	return res, nil
}
