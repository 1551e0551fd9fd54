package model_selection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Splitter defines interface for cross-validation splitters.
type Splitter interface {
	Split(X, y mat.Matrix) []Fold
	GetNSplits() int
}

// Fold represents a single fold in cross-validation.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitting.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds
}

// StratifiedKFold implements stratified k-fold cross-validation: every fold
// keeps approximately the class proportions of y.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a new stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	classIndices := make(map[float64][]int)
	var labels []float64
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		if _, ok := classIndices[label]; !ok {
			labels = append(labels, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range labels {
			idx := classIndices[label]
			r.Shuffle(len(idx), func(i, j int) {
				idx[i], idx[j] = idx[j], idx[i]
			})
		}
	}

	// Deal every class round-robin into the folds.
	testSets := make([][]int, skf.NSplits)
	for _, label := range labels {
		for i, sampleIdx := range classIndices[label] {
			fold := i % skf.NSplits
			testSets[fold] = append(testSets[fold], sampleIdx)
		}
	}

	folds := make([]Fold, skf.NSplits)
	for i := 0; i < skf.NSplits; i++ {
		inTest := make(map[int]bool, len(testSets[i]))
		for _, idx := range testSets[i] {
			inTest[idx] = true
		}
		trainIndices := make([]int, 0, nSamples-len(testSets[i]))
		for j := 0; j < nSamples; j++ {
			if !inTest[j] {
				trainIndices = append(trainIndices, j)
			}
		}
		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testSets[i],
		}
	}

	return folds
}
