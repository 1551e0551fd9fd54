package des

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/naive_bayes"
	"github.com/mathematixy/deslib/neighbors"
	"github.com/mathematixy/deslib/pkg/errors"
	deslog "github.com/mathematixy/deslib/pkg/log"
)

// METADES treats selection itself as a classification problem. During Fit
// a meta-classifier learns, from meta-features extracted on the DSEL,
// whether a base classifier is competent for a sample; at query time base
// classifiers whose competence probability reaches the selection threshold
// form the committee.
//
// The meta-features per (classifier, sample) pair are: the hit vector over
// the k feature-space neighbors, the posterior assigned to each neighbor's
// true label, the mean local accuracy, the hit vector over the kp
// output-profile neighbors, and the classifier's confidence on the sample.
type METADES struct {
	*ds.Base

	k         int
	kp        int
	hc        float64 // consensus threshold for meta-training sample selection
	threshold float64 // competence probability needed to be selected
	meta      model.Classifier

	profileKNN *neighbors.NearestNeighbors
	profiles   *mat.Dense // DSEL output profiles, one row per sample
}

// METADESOption configures META-DES.
type METADESOption func(*METADES)

// WithMETADESK sets the feature-space region size. Default 7.
func WithMETADESK(k int) METADESOption {
	return func(m *METADES) { m.k = k }
}

// WithKp sets the output-profile region size. Default 5.
func WithKp(kp int) METADESOption {
	return func(m *METADES) { m.kp = kp }
}

// WithHc sets the consensus threshold: DSEL samples where the pool agrees
// with a ratio of Hc or more are dropped from meta-training, they carry no
// selection signal. Default 1.0 (only unanimous samples dropped).
func WithHc(hc float64) METADESOption {
	return func(m *METADES) { m.hc = hc }
}

// WithSelectionThreshold sets the competence probability a classifier needs
// to join the committee. Default 0.5.
func WithSelectionThreshold(threshold float64) METADESOption {
	return func(m *METADES) { m.threshold = threshold }
}

// WithMetaClassifier replaces the default MultinomialNB meta-classifier.
func WithMetaClassifier(clf model.Classifier) METADESOption {
	return func(m *METADES) { m.meta = clf }
}

// NewMETADES creates a META-DES selector over a fitted pool.
func NewMETADES(pool []model.Classifier, opts ...METADESOption) *METADES {
	m := &METADES{
		k:         7,
		kp:        5,
		hc:        1.0,
		threshold: 0.5,
		meta:      naive_bayes.NewMultinomialNB(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Base = ds.NewBase(pool, ds.WithK(m.k))
	return m
}

// Fit indexes the DSEL, builds output profiles and trains the
// meta-classifier on competent/incompetent meta-examples.
func (m *METADES) Fit(X, y mat.Matrix) error {
	if err := m.Base.Fit(X, y); err != nil {
		return err
	}

	nSamples := m.NSamplesDSEL()
	if m.kp < 1 || m.kp >= nSamples {
		return errors.NewValidationError("kp", "must satisfy 1 <= kp < len(DSEL)", m.kp)
	}

	if err := m.buildProfiles(); err != nil {
		return err
	}
	return m.fitMeta()
}

// buildProfiles stores each DSEL sample's output profile (the pool's
// probability outputs, flattened) and indexes them for similarity search.
func (m *METADES) buildProfiles() error {
	nSamples := m.NSamplesDSEL()
	nPool := len(m.Pool())
	nClasses := len(m.Classes())

	m.profiles = mat.NewDense(nSamples, nPool*nClasses, nil)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nPool; j++ {
			for c := 0; c < nClasses; c++ {
				m.profiles.Set(i, j*nClasses+c, m.DSELProba(i, j, c))
			}
		}
	}

	m.profileKNN = neighbors.NewNearestNeighbors()
	return m.profileKNN.Fit(m.profiles)
}

// fitMeta assembles the meta-training set and trains the meta-classifier.
func (m *METADES) fitMeta() error {
	nSamples := m.NSamplesDSEL()
	nPool := len(m.Pool())

	candidates := make([]int, 0, nSamples)
	for i := 0; i < nSamples; i++ {
		if m.consensus(i) < m.hc {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		// The pool is unanimous everywhere; train on all samples rather
		// than leaving the meta-classifier unfitted.
		errors.Warn(errors.NewEmptyRegionWarning("META-DES", m.k, "meta-training on the full DSEL"))
		for i := 0; i < nSamples; i++ {
			candidates = append(candidates, i)
		}
	}

	dim := m.metaFeatureDim()
	features := mat.NewDense(len(candidates)*nPool, dim, nil)
	labels := mat.NewDense(len(candidates)*nPool, 1, nil)

	row := 0
	for _, i := range candidates {
		region, profRegion, err := m.trainingRegions(i)
		if err != nil {
			return err
		}
		for j := 0; j < nPool; j++ {
			conf := m.DSELProba(i, j, m.ClassIndex(m.DSELPrediction(i, j)))
			features.SetRow(row, m.metaFeatures(region, profRegion, j, conf))
			if m.Hit(i, j) {
				labels.Set(row, 0, 1)
			}
			row++
		}
	}

	if err := m.meta.Fit(features, labels); err != nil {
		return errors.Wrap(err, "ds.META-DES: meta-classifier training failed")
	}

	slog.Debug("meta-classifier trained",
		slog.Int(deslog.SamplesKey, len(candidates)*nPool),
		slog.Int(deslog.PoolSizeKey, nPool),
		slog.Int(deslog.FeaturesKey, dim),
	)
	return nil
}

// consensus returns the largest fraction of pool members agreeing on a
// label for DSEL sample i.
func (m *METADES) consensus(i int) float64 {
	counts := make(map[int]int)
	best := 0
	for j := range m.Pool() {
		label := m.DSELPrediction(i, j)
		counts[label]++
		if counts[label] > best {
			best = counts[label]
		}
	}
	return float64(best) / float64(len(m.Pool()))
}

// trainingRegions computes sample i's regions with the sample itself
// removed, so the meta-features are leave-one-out.
func (m *METADES) trainingRegions(i int) (region, profRegion []int, err error) {
	region, _, err = m.RegionN(m.DSELRow(i), m.boundedK(m.k+1))
	if err != nil {
		return nil, nil, err
	}
	region = dropSelf(region, i, m.k)

	profile := mat.Row(nil, i, m.profiles)
	profRegion, _, err = m.profileKNN.KNeighbors(profile, m.boundedK(m.kp+1))
	if err != nil {
		return nil, nil, err
	}
	return region, dropSelf(profRegion, i, m.kp), nil
}

func (m *METADES) boundedK(k int) int {
	if n := m.NSamplesDSEL(); k > n {
		return n
	}
	return k
}

// dropSelf removes index self from a neighbor list and truncates it to k.
func dropSelf(indices []int, self, k int) []int {
	out := make([]int, 0, k)
	for _, idx := range indices {
		if idx == self {
			continue
		}
		out = append(out, idx)
		if len(out) == k {
			break
		}
	}
	return out
}

func (m *METADES) metaFeatureDim() int {
	return 2*m.k + m.kp + 2
}

// metaFeatures builds one meta-feature row for pool member j. Regions
// shorter than k/kp (leave-one-out at the DSEL boundary) are zero-padded.
func (m *METADES) metaFeatures(region, profRegion []int, j int, confidence float64) []float64 {
	features := make([]float64, 0, m.metaFeatureDim())

	hitVec := make([]float64, m.k)
	postVec := make([]float64, m.k)
	localAcc := 0.0
	for idx, i := range region {
		if idx >= m.k {
			break
		}
		if m.Hit(i, j) {
			hitVec[idx] = 1
			localAcc++
		}
		postVec[idx] = m.DSELProba(i, j, m.ClassIndex(m.DSELLabel(i)))
	}
	if len(region) > 0 {
		localAcc /= float64(len(region))
	}

	profVec := make([]float64, m.kp)
	for idx, i := range profRegion {
		if idx >= m.kp {
			break
		}
		if m.Hit(i, j) {
			profVec[idx] = 1
		}
	}

	features = append(features, hitVec...)
	features = append(features, postVec...)
	features = append(features, localAcc)
	features = append(features, profVec...)
	features = append(features, confidence)
	return features
}

// Predict labels each row of X by the meta-selected committee's vote.
func (m *METADES) Predict(X mat.Matrix) (mat.Matrix, error) {
	return m.PredictWith("META-DES", X, m.classify)
}

// PredictProba returns committee-averaged class probabilities.
func (m *METADES) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return m.PredictProbaWith("META-DES", X, m.classify)
}

// Score returns the mean accuracy on X against y.
func (m *METADES) Score(X, y mat.Matrix) (float64, error) {
	return m.ScoreWith("META-DES", X, y, m.classify)
}

func (m *METADES) classify(q ds.Query) (int, []float64, error) {
	competences, err := m.estimateCompetences(q)
	if err != nil {
		return 0, nil, err
	}

	var selected []int
	for j, c := range competences {
		if c >= m.threshold {
			selected = append(selected, j)
		}
	}
	if len(selected) == 0 {
		errors.Warn(errors.NewEmptyRegionWarning("META-DES", m.k, "majority vote of the whole pool"))
		selected = m.AllMembers()
	}

	return m.VoteLabel(q, selected, nil), m.VoteProba(q, selected, nil), nil
}

// estimateCompetences runs the meta-classifier over every pool member's
// meta-feature row for this query.
func (m *METADES) estimateCompetences(q ds.Query) ([]float64, error) {
	nPool := len(m.Pool())
	nClasses := len(m.Classes())

	profile := make([]float64, nPool*nClasses)
	for j := 0; j < nPool; j++ {
		for c := 0; c < nClasses; c++ {
			profile[j*nClasses+c] = q.Proba.At(j, c)
		}
	}
	profRegion, _, err := m.profileKNN.KNeighbors(profile, m.kp)
	if err != nil {
		return nil, err
	}

	features := mat.NewDense(nPool, m.metaFeatureDim(), nil)
	for j := 0; j < nPool; j++ {
		conf := q.Proba.At(j, m.ClassIndex(q.Labels[j]))
		features.SetRow(j, m.metaFeatures(q.Neighbors, profRegion, j, conf))
	}

	proba, err := m.meta.PredictProba(features)
	if err != nil {
		return nil, errors.Wrap(err, "ds.META-DES: meta-classifier prediction failed")
	}

	// Column of the "competent" meta-class. A meta-training set with only
	// incompetent examples has no such column; every competence is zero
	// and the select-all fallback kicks in.
	competentCol := -1
	for idx, c := range m.meta.Classes() {
		if c == 1 {
			competentCol = idx
		}
	}

	competences := make([]float64, nPool)
	if competentCol >= 0 {
		for j := 0; j < nPool; j++ {
			competences[j] = proba.At(j, competentCol)
		}
	}
	return competences, nil
}
