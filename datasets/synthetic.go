// Package datasets provides synthetic classification-data generators and a
// CSV loader, sufficient to exercise pools and dynamic-selection methods
// without external data dependencies.
package datasets

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// GenOption configures the synthetic generators.
type GenOption func(*genConfig)

type genConfig struct {
	seed        int64
	informative int
	classSep    float64
	flipY       float64
	clusterStd  float64
}

// WithGenSeed fixes the generator seed for reproducible datasets.
func WithGenSeed(seed int64) GenOption {
	return func(c *genConfig) { c.seed = seed }
}

// WithInformative sets how many features carry class signal; the remaining
// features are pure noise. 0 means all features are informative.
func WithInformative(n int) GenOption {
	return func(c *genConfig) { c.informative = n }
}

// WithClassSep scales the distance between class clusters. Larger values
// make the problem easier. Default 1.0.
func WithClassSep(sep float64) GenOption {
	return func(c *genConfig) { c.classSep = sep }
}

// WithFlipY sets the fraction of labels randomly reassigned, injecting label
// noise. Default 0.
func WithFlipY(fraction float64) GenOption {
	return func(c *genConfig) { c.flipY = fraction }
}

// WithClusterStd sets the within-cluster standard deviation for GenBlobs.
// Default 1.0.
func WithClusterStd(std float64) GenOption {
	return func(c *genConfig) { c.clusterStd = std }
}

func newGenRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = rand.Int64()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// GenClassification generates a random n-class classification problem.
//
// Each class gets a Gaussian cluster whose center sits on a vertex of a
// hypercube with side 2*classSep in the informative subspace; non-informative
// features are standard Gaussian noise. Samples are distributed evenly
// across classes, remainder going to the lowest labels.
func GenClassification(nSamples, nFeatures, nClasses int, opts ...GenOption) (*mat.Dense, *mat.Dense) {
	cfg := &genConfig{seed: -1, classSep: 1.0}
	for _, opt := range opts {
		opt(cfg)
	}
	informative := cfg.informative
	if informative <= 0 || informative > nFeatures {
		informative = nFeatures
	}

	r := newGenRand(cfg.seed)

	// Hypercube vertex per class: feature d of class c keeps bit d of c.
	centers := make([][]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		centers[c] = make([]float64, informative)
		for d := 0; d < informative; d++ {
			if (c>>(d%8))&1 == 1 {
				centers[c][d] = cfg.classSep
			} else {
				centers[c][d] = -cfg.classSep
			}
		}
		if nClasses == 2 && c == 1 {
			// With two classes every bit pattern is identical beyond bit 0;
			// separate them along all informative dimensions.
			for d := 0; d < informative; d++ {
				centers[c][d] = cfg.classSep
			}
		}
		if nClasses == 2 && c == 0 {
			for d := 0; d < informative; d++ {
				centers[c][d] = -cfg.classSep
			}
		}
	}

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewDense(nSamples, 1, nil)

	for i := 0; i < nSamples; i++ {
		class := i % nClasses
		for j := 0; j < nFeatures; j++ {
			v := r.NormFloat64()
			if j < informative {
				v += centers[class][j]
			}
			X.Set(i, j, v)
		}
		y.Set(i, 0, float64(class))
	}

	if cfg.flipY > 0 {
		nFlips := int(float64(nSamples) * cfg.flipY)
		for f := 0; f < nFlips; f++ {
			i := r.IntN(nSamples)
			y.Set(i, 0, float64(r.IntN(nClasses)))
		}
	}

	// Shuffle rows so class labels are not blocked.
	perm := r.Perm(nSamples)
	XShuffled := mat.NewDense(nSamples, nFeatures, nil)
	yShuffled := mat.NewDense(nSamples, 1, nil)
	for i, p := range perm {
		for j := 0; j < nFeatures; j++ {
			XShuffled.Set(i, j, X.At(p, j))
		}
		yShuffled.Set(i, 0, y.At(p, 0))
	}

	return XShuffled, yShuffled
}

// GenBlobs generates isotropic Gaussian blobs around the given centers.
// The label of each sample is the index of its center.
func GenBlobs(nSamples int, centers [][]float64, opts ...GenOption) (*mat.Dense, *mat.Dense) {
	cfg := &genConfig{seed: -1, clusterStd: 1.0}
	for _, opt := range opts {
		opt(cfg)
	}

	r := newGenRand(cfg.seed)
	nFeatures := len(centers[0])

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		c := i % len(centers)
		for j := 0; j < nFeatures; j++ {
			X.Set(i, j, centers[c][j]+r.NormFloat64()*cfg.clusterStd)
		}
		y.Set(i, 0, float64(c))
	}

	return X, y
}
