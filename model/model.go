package model

import "context"

// PairModel 是比较阶段的分类模型抽象：输入行动对的差分特征，
// 输出"第一个行动更优"的概率 (0-1)。
// 具体实现可以是本地模型（LR）或远程 RPC（XGBoost / TF Serving 等）。
type PairModel interface {
	Name() string
	Predict(ctx context.Context, features map[string]float64) (float64, error)
}
