// Package deslib provides dynamic ensemble selection for Go, with a
// scikit-learn-like API built on top of gonum matrices.
//
// Dynamic selection (DS) techniques work by estimating, for every query
// sample, the competence of each classifier in a pool of pre-trained base
// classifiers, then selecting only the locally competent ones (or the single
// most competent one) to label that sample. The library ships the pool
// builders, the competence-region machinery and the established DS methods
// from the literature.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/mathematixy/deslib/datasets"
//	    "github.com/mathematixy/deslib/ds"
//	    "github.com/mathematixy/deslib/ds/des"
//	    "github.com/mathematixy/deslib/ensemble"
//	    "github.com/mathematixy/deslib/model_selection"
//	)
//
//	func main() {
//	    X, y := datasets.GenClassification(1000, 10, 2, datasets.WithGenSeed(42))
//
//	    // Hold out a test split, then carve a DSEL split out of training data.
//	    XTrain, XTest, yTrain, yTest, _ := model_selection.TrainTestSplit(X, y,
//	        model_selection.WithTestSize(0.25), model_selection.WithSplitSeed(42))
//	    XTrain, XDsel, yTrain, yDsel, _ := model_selection.TrainTestSplit(XTrain, yTrain,
//	        model_selection.WithTestSize(0.5), model_selection.WithSplitSeed(42))
//
//	    pool := ensemble.NewRandomForestClassifier(ensemble.WithForestNEstimators(10))
//	    if err := pool.Fit(XTrain, yTrain); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    knu := des.NewKNORAU(pool.Estimators(), ds.WithK(7))
//	    if err := knu.Fit(XDsel, yDsel); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    acc, _ := knu.Score(XTest, yTest)
//	    fmt.Printf("KNORA-U accuracy: %.3f\n", acc)
//	}
//
// # Packages
//
//   - ds: shared dynamic-selection machinery (DSEL indexing, regions of
//     competence, the prediction pipeline)
//   - ds/des: dynamic ensemble selection (KNORA-U, KNORA-E, DES-P, META-DES)
//   - ds/dcs: dynamic classifier selection (OLA, LCA, MCB, Rank)
//   - ds/static: static baselines (SingleBest, StaticSelection)
//   - ensemble: pool builders (RandomForestClassifier, BaggingClassifier)
//   - tree: DecisionTreeClassifier (CART)
//   - neighbors: brute-force nearest neighbors and KNeighborsClassifier
//   - linear_model: Perceptron and LogisticRegression base learners
//   - naive_bayes: MultinomialNB (default META-DES meta-classifier)
//   - model_selection: TrainTestSplit, KFold, StratifiedKFold
//   - datasets: synthetic generators and CSV loading
//   - metrics: classification metrics
//   - preprocessing: StandardScaler
//   - core/model: estimator interfaces, state management, persistence
//   - core/parallel: chunked parallel execution helpers
//
// # Error Handling
//
// Every Fit/Predict/Score returns an explicit error. Calling Predict before
// Fit yields a NotFittedError from pkg/errors; shape mismatches yield
// DimensionError. Competence estimation never fails a prediction outright:
// each method defines a documented fallback when no classifier qualifies.
package deslib
