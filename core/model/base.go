package model

import "fmt"

// EstimatorState は推定器の学習状態を表す
type EstimatorState int

const (
	// NotFitted は推定器が未学習の状態
	NotFitted EstimatorState = iota
	// Fitted は推定器が学習済みの状態
	Fitted
)

// BaseEstimator は全ての推定器の基底となる構造体。
// 具体的なモデル（決定木、パーセプトロン、動的選択器など）に埋め込んで使う。
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted は推定器が学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted は推定器を学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset は推定器を初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// GobEncode は学習状態をシリアライズする。
// stateは非公開フィールドなので、gobに明示的な表現を与える。
func (e BaseEstimator) GobEncode() ([]byte, error) {
	return []byte{byte(e.state)}, nil
}

// GobDecode はシリアライズされた学習状態を復元する
func (e *BaseEstimator) GobDecode(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("invalid BaseEstimator state: %d bytes", len(data))
	}
	e.state = EstimatorState(data[0])
	return nil
}
