package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LRModel 是逻辑回归二分类模型，用于行动对比较。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 输出 P 表示第一个行动更优的概率。
type LRModel struct {
	Bias    float64            // 偏置项
	Weights map[string]float64 // 特征权重，key 与 feature.Extractor.ExtractPair 的输出一致
}

// LoadLRModel 从 JSON 文件加载模型：{"bias": 0.1, "weights": {"diff_ghg_reduction": 2.3}}
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return &LRModel{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(_ context.Context, features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return 1 / (1 + math.Exp(-score)), nil
}

var _ PairModel = (*LRModel)(nil)
