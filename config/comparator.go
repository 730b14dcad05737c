package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/feature"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/model"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/conv"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/llm"
)

// BuildComparator 根据配置构建比较器，type 为空时使用 linear。
//
//	type: linear      weights: {ghg_reduction: 0.4, ...}
//	type: classifier  model: lr, path: model.json | model: rpc, endpoint: http://... | model: kserve, endpoint, name
//	                  metadata_path, scaler_path（可选，训练时导出的特征列与标准化参数）
//	type: llm         endpoint, model, api_key_env, rps, max_retries, backoff（毫秒或 "500ms"）
//
// timeout 可写为秒数或 "30s"。
func BuildComparator(cfg map[string]any) (compare.Comparator, error) {
	switch t := conv.ConfigGet(cfg, "type", "linear"); t {
	case "linear", "":
		var weights map[string]float64
		if w, ok := cfg["weights"].(map[string]any); ok {
			weights = conv.MapToFloat64(w)
		}
		if err := compare.ValidateWeights(weights); err != nil {
			return nil, err
		}
		return compare.NewLinear(weights), nil

	case "classifier":
		m, err := buildPairModel(cfg)
		if err != nil {
			return nil, err
		}
		c := compare.NewClassifier(m)
		if th, ok := conv.ToFloat64(cfg["threshold"]); ok {
			c.Threshold = th
		}
		if path := conv.ConfigGet(cfg, "metadata_path", ""); path != "" {
			if c.Metadata, err = feature.LoadModelMetadata(path, c.Extractor); err != nil {
				return nil, err
			}
		}
		if path := conv.ConfigGet(cfg, "scaler_path", ""); path != "" {
			if c.Scaler, err = feature.LoadScaler(path); err != nil {
				return nil, err
			}
		}
		return c, nil

	case "llm":
		client, err := BuildLLMClient(cfg)
		if err != nil {
			return nil, err
		}
		opts := []compare.LLMOption{compare.WithLogger(zap.L().Named("compare.llm"))}
		if l := BuildLimiter(cfg); l != nil {
			opts = append(opts, compare.WithLimiter(l))
		}
		if _, ok := cfg["max_retries"]; ok {
			backoff := conv.ConfigGetDuration(cfg, "backoff", time.Millisecond, 500*time.Millisecond)
			opts = append(opts, compare.WithRetry(int(conv.ConfigGetInt64(cfg, "max_retries", 2)), backoff))
		}
		return compare.NewLLM(client, opts...), nil

	default:
		return nil, fmt.Errorf("unknown comparator type %q (supported: linear, classifier, llm)", t)
	}
}

func buildPairModel(cfg map[string]any) (model.PairModel, error) {
	switch m := conv.ConfigGet(cfg, "model", "lr"); m {
	case "lr":
		if path := conv.ConfigGet(cfg, "path", ""); path != "" {
			lr, err := model.LoadLRModel(path)
			if err != nil {
				return nil, err
			}
			return lr, nil
		}
		weightsMap, ok := cfg["weights"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("classifier lr: path or weights required")
		}
		bias, _ := conv.ToFloat64(cfg["bias"])
		return &model.LRModel{Bias: bias, Weights: conv.MapToFloat64(weightsMap)}, nil
	case "rpc":
		endpoint := conv.ConfigGet(cfg, "endpoint", "")
		if endpoint == "" {
			return nil, fmt.Errorf("classifier rpc: endpoint not found")
		}
		timeout := conv.ConfigGetDuration(cfg, "timeout", time.Second, 5*time.Second)
		return model.NewRPCModel(conv.ConfigGet(cfg, "name", "rpc"), endpoint, timeout), nil
	case "kserve":
		endpoint := conv.ConfigGet(cfg, "endpoint", "")
		name := conv.ConfigGet(cfg, "name", "")
		if endpoint == "" || name == "" {
			return nil, fmt.Errorf("classifier kserve: endpoint and name required")
		}
		km := model.NewKServeModel(endpoint, name, conv.ConfigGetDuration(cfg, "timeout", time.Second, 5*time.Second))
		if p := conv.ConfigGet(cfg, "protocol", ""); p != "" {
			km.Protocol = p
		}
		km.ModelVersion = conv.ConfigGet(cfg, "version", "")
		km.OutputName = conv.ConfigGet(cfg, "output_name", "")
		km.FeatureOrder = conv.SliceAnyToString(cfg["feature_order"])
		return km, nil
	default:
		return nil, fmt.Errorf("unknown classifier model %q (supported: lr, rpc, kserve)", m)
	}
}

// BuildLLMClient 构建 OpenAI 兼容的对话客户端，API key 从 api_key_env 指定的环境变量读取。
func BuildLLMClient(cfg map[string]any) (*llm.OpenAIClient, error) {
	endpoint := conv.ConfigGet(cfg, "endpoint", "https://api.openai.com/v1/chat/completions")
	modelName := conv.ConfigGet(cfg, "model", "")
	if modelName == "" {
		return nil, fmt.Errorf("llm: model not found")
	}
	apiKey := os.Getenv(conv.ConfigGet(cfg, "api_key_env", "OPENAI_API_KEY"))
	var opts []llm.Option
	if timeout := conv.ConfigGetDuration(cfg, "timeout", time.Second, 0); timeout > 0 {
		opts = append(opts, llm.WithTimeout(timeout))
	}
	if temp, ok := conv.ToFloat64(cfg["temperature"]); ok {
		opts = append(opts, llm.WithTemperature(temp))
	}
	return llm.NewOpenAIClient(endpoint, apiKey, modelName, opts...), nil
}

// BuildLimiter 根据 rps / burst 构建限流器，rps 未配置时返回 nil（不限流）。
func BuildLimiter(cfg map[string]any) *rate.Limiter {
	rps, ok := conv.ToFloat64(cfg["rps"])
	if !ok || rps <= 0 {
		return nil
	}
	burst := int(conv.ConfigGetInt64(cfg, "burst", 1))
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
