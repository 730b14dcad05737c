package feature

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelMetadata 是比较模型训练时导出的特征元数据（model_meta.json）。
type ModelMetadata struct {
	// FeatureColumns 训练时使用的特征列（按顺序），例如 "diff_ghg_reduction"
	FeatureColumns []string `json:"feature_columns"`
	ModelVersion   string   `json:"model_version"`
	// Normalized 为 true 时推理前需要用 Scaler 标准化
	Normalized bool `json:"normalized"`
}

// Scaler 是 Z-score 标准化参数，对应 feature_scaler.json。
type Scaler map[string]ScalerParams

type ScalerParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

func readJSON(path, what string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", what, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", what, err)
	}
	return nil
}

// LoadModelMetadata 从 JSON 文件加载模型特征元数据，并检查特征列均可由 Extractor 生成。
func LoadModelMetadata(path string, e *Extractor) (*ModelMetadata, error) {
	var meta ModelMetadata
	if err := readJSON(path, "model metadata", &meta); err != nil {
		return nil, err
	}
	if missing := meta.Unknown(e); len(missing) > 0 {
		return nil, fmt.Errorf("model metadata: unknown feature columns %v", missing)
	}
	return &meta, nil
}

func LoadScaler(path string) (Scaler, error) {
	var s Scaler
	if err := readJSON(path, "feature scaler", &s); err != nil {
		return nil, err
	}
	return s, nil
}

// Unknown 返回 Extractor 无法生成的特征列。
func (m *ModelMetadata) Unknown(e *Extractor) []string {
	prefix := ""
	if e != nil {
		prefix = e.Prefix
	}
	known := make(map[string]bool, 2*len(Names()))
	for _, n := range Names() {
		known[prefix+n] = true
		known[prefix+"diff_"+n] = true
	}
	var unknown []string
	for _, col := range m.FeatureColumns {
		if !known[col] {
			unknown = append(unknown, col)
		}
	}
	return unknown
}

// Select 只保留 FeatureColumns 中的特征，缺失的列填 0。
func (m *ModelMetadata) Select(features map[string]float64) map[string]float64 {
	if m == nil || len(m.FeatureColumns) == 0 {
		return features
	}
	out := make(map[string]float64, len(m.FeatureColumns))
	for _, col := range m.FeatureColumns {
		out[col] = features[col]
	}
	return out
}

// Normalize 返回 (x - mean) / std；不在 Scaler 中或 std <= 0 的特征保持原值。
func (s Scaler) Normalize(features map[string]float64) map[string]float64 {
	if len(s) == 0 {
		return features
	}
	out := make(map[string]float64, len(features))
	for k, v := range features {
		out[k] = v
		if p, ok := s[k]; ok && p.Std > 0 {
			out[k] = (v - p.Mean) / p.Std
		}
	}
	return out
}
