// Package metrics は分類モデルの評価指標を提供する
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/pkg/errors"
)

// AccuracyScore は正解率（accuracy）を計算する
//
// パラメータ:
//   - yTrue: 正解ラベル (n×1 行列)
//   - yPred: 予測ラベル (n×1 行列)
//
// 戻り値:
//   - float64: 正しく分類されたサンプルの割合 [0, 1]
func AccuracyScore(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := checkPairedLabels("AccuracyScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.At(i, 0) == yPred.At(i, 0) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// ErrorRate は誤分類率（1 - accuracy）を計算する
func ErrorRate(yTrue, yPred mat.Matrix) (float64, error) {
	acc, err := AccuracyScore(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix は混同行列を計算する。
// 返される行列の (i, j) 成分は、正解がlabels[i]で予測がlabels[j]だった
// サンプル数。labelsは両者に現れるラベルの昇順ソート。
func ConfusionMatrix(yTrue, yPred mat.Matrix) (cm *mat.Dense, labels []int, err error) {
	n, err := checkPairedLabels("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		seen[int(yTrue.At(i, 0))] = true
		seen[int(yPred.At(i, 0))] = true
	}
	labels = make([]int, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	index := make(map[int]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	cm = mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r := index[int(yTrue.At(i, 0))]
		c := index[int(yPred.At(i, 0))]
		cm.Set(r, c, cm.At(r, c)+1)
	}

	return cm, labels, nil
}

// PrecisionScore はマクロ平均の適合率を計算する。
// あるクラスに対する予測が一つもない場合、そのクラスの適合率は0として扱い、
// UndefinedMetricWarningを発行する。
func PrecisionScore(yTrue, yPred mat.Matrix) (float64, error) {
	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for j := range labels {
		var tp, predicted float64
		for i := range labels {
			predicted += cm.At(i, j)
		}
		tp = cm.At(j, j)
		if predicted == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))
			continue
		}
		sum += tp / predicted
	}

	return sum / float64(len(labels)), nil
}

// RecallScore はマクロ平均の再現率を計算する。
func RecallScore(yTrue, yPred mat.Matrix) (float64, error) {
	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := range labels {
		var tp, actual float64
		for j := range labels {
			actual += cm.At(i, j)
		}
		tp = cm.At(i, i)
		if actual == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true samples", 0))
			continue
		}
		sum += tp / actual
	}

	return sum / float64(len(labels)), nil
}

// F1Score はマクロ平均のF1値を計算する。
func F1Score(yTrue, yPred mat.Matrix) (float64, error) {
	precision, err := PrecisionScore(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	recall, err := RecallScore(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	if precision+recall == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision and recall both zero", 0))
		return 0, nil
	}

	return 2 * precision * recall / (precision + recall), nil
}

// checkPairedLabels は2つのラベル列の形状を検証し、サンプル数を返す
func checkPairedLabels(op string, yTrue, yPred mat.Matrix) (int, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 {
		return 0, errors.NewValueError(op, "empty label vector")
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError(op, "labels must be a column vector (n×1 matrix)")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError(op, rTrue, rPred, 0)
	}

	return rTrue, nil
}
