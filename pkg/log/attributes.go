// Package log defines standard attribute keys for dynamic-selection
// operations.
//
// Using these keys consistently across the library enables structured log
// filtering by model, operation and data shape. The keys follow a
// hierarchical naming convention ("model.name", "data.samples", "ds.k").
package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "RandomForestClassifier", "KNORAU", "METADES"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "predict_proba", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "ensemble", "ds/des", "neighbors"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	// Examples: "training", "inference", "dsel_indexing"
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct labels.
	ClassesKey = "data.classes"
)

// Dynamic-selection context.
const (
	// PoolSizeKey indicates the number of base classifiers in the pool.
	PoolSizeKey = "ds.pool_size"

	// NeighborsKey indicates the size k of the region of competence.
	NeighborsKey = "ds.k"

	// SelectedKey indicates how many pool members were selected for a query.
	SelectedKey = "ds.selected"

	// FallbackKey records which fallback path resolved a query.
	// Examples: "pool_majority", "reduced_k"
	FallbackKey = "ds.fallback"
)

// Performance metrics.
const (
	// AccuracyKey reports a mean accuracy value.
	AccuracyKey = "metric.accuracy"

	// DurationMsKey reports an operation duration in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
