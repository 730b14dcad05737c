package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/conv"
)

// KServe 协议版本。
const (
	KServeV1 = "v1"
	KServeV2 = "v2"
)

// KServeModel 调用 KServe 部署的行动对分类器。
//
// KServe V1：
//   - POST /v1/models/{model_name}:predict
//   - 请求：{"instances": [[...], ...]}，响应：{"predictions": [...]}
//
// KServe V2（Open Inference Protocol）：
//   - POST /v2/models/{model_name}[/versions/{version}]/infer
//   - 请求：{"inputs": [{"name": "input0", "shape": [batch, dim], "datatype": "FP64", "data": [...]}]}
//   - 响应：{"outputs": [{"name": "...", "data": [...]}]}
//
// 特征按 FeatureOrder 排列成向量；FeatureOrder 为空时按特征名排序。
type KServeModel struct {
	Endpoint     string
	ModelName    string
	ModelVersion string
	Protocol     string // 默认 v2
	InputName    string // V2 输入张量名，默认 input0
	OutputName   string // V2 输出张量名，为空取 outputs[0]
	FeatureOrder []string
	Token        string // 非空时使用 Bearer 认证

	client *http.Client
}

// NewKServeModel 创建 KServe 模型客户端。
func NewKServeModel(endpoint, modelName string, timeout time.Duration) *KServeModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &KServeModel{
		Endpoint:  endpoint,
		ModelName: modelName,
		Protocol:  KServeV2,
		InputName: "input0",
		client:    &http.Client{Timeout: timeout},
	}
}

func (m *KServeModel) Name() string { return "kserve." + m.ModelName }

func (m *KServeModel) Predict(ctx context.Context, features map[string]float64) (float64, error) {
	scores, err := m.PredictBatch(ctx, []map[string]float64{features})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// PredictBatch 批量预测，返回与输入一一对应的概率。
func (m *KServeModel) PredictBatch(ctx context.Context, featuresList []map[string]float64) ([]float64, error) {
	if len(featuresList) == 0 {
		return nil, nil
	}
	keys := m.FeatureOrder
	if len(keys) == 0 {
		keys = sortedKeys(featuresList[0])
	}
	rows := make([][]float64, len(featuresList))
	for i, f := range featuresList {
		row := make([]float64, len(keys))
		for j, k := range keys {
			row[j] = f[k]
		}
		rows[i] = row
	}

	var (
		url  string
		body any
	)
	if m.Protocol == KServeV1 {
		url = fmt.Sprintf("%s/v1/models/%s:predict", m.Endpoint, m.ModelName)
		body = map[string]any{"instances": rows}
	} else {
		path := fmt.Sprintf("%s/v2/models/%s", m.Endpoint, m.ModelName)
		if m.ModelVersion != "" {
			path = fmt.Sprintf("%s/versions/%s", path, m.ModelVersion)
		}
		url = path + "/infer"
		data := make([]float64, 0, len(rows)*len(keys))
		for _, r := range rows {
			data = append(data, r...)
		}
		body = map[string]any{
			"inputs": []map[string]any{{
				"name":     m.InputName,
				"shape":    []int{len(rows), len(keys)},
				"datatype": "FP64",
				"data":     data,
			}},
		}
	}

	respBody, err := m.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	var predictions []float64
	if m.Protocol == KServeV1 {
		predictions, err = parseV1Predictions(respBody)
	} else {
		predictions, err = m.parseV2Outputs(respBody)
	}
	if err != nil {
		return nil, err
	}
	if len(predictions) != len(featuresList) {
		return nil, fmt.Errorf("kserve: expected %d predictions, got %d", len(featuresList), len(predictions))
	}
	return predictions, nil
}

func (m *KServeModel) post(ctx context.Context, url string, body any) ([]byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("kserve marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("kserve create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.Token)
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kserve request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kserve read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kserve error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}

func parseV1Predictions(body []byte) ([]float64, error) {
	var out struct {
		Predictions []any `json:"predictions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("kserve v1 parse response: %w", err)
	}
	predictions := make([]float64, 0, len(out.Predictions))
	for _, v := range out.Predictions {
		if f, ok := scalar(v); ok {
			predictions = append(predictions, f)
		}
	}
	return predictions, nil
}

type v2OutputTensor struct {
	Name     string `json:"name"`
	Shape    []int  `json:"shape"`
	Datatype string `json:"datatype"`
	Data     []any  `json:"data"`
}

func (m *KServeModel) parseV2Outputs(body []byte) ([]float64, error) {
	var out struct {
		Outputs []v2OutputTensor `json:"outputs"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("kserve v2 parse response: %w", err)
	}
	if len(out.Outputs) == 0 {
		return nil, fmt.Errorf("kserve v2 empty outputs")
	}
	tensor := &out.Outputs[0]
	for i := range out.Outputs {
		if m.OutputName != "" && out.Outputs[i].Name == m.OutputName {
			tensor = &out.Outputs[i]
			break
		}
	}
	predictions := make([]float64, 0, len(tensor.Data))
	for _, v := range tensor.Data {
		if f, ok := scalar(v); ok {
			predictions = append(predictions, f)
		}
	}
	return predictions, nil
}

// scalar 取标量；多输出时取第一个元素。
func scalar(v any) (float64, bool) {
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return 0, false
		}
		v = arr[0]
	}
	return conv.ToFloat64(v)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ PairModel = (*KServeModel)(nil)
