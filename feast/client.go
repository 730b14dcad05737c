// Package feast 从 Feast 在线特征库读取城市画像。
//
// 城市的人口、排放、气候风险等指标通常由 ETL 物化到 Feast，
// 这里按 locode 实时查询并组装为 core.CityProfile。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征查询的最小接口，便于替换实现与测试。
type Client interface {
	// GetOnlineFeatures 获取在线特征，features 形如 "city_stats:population"
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["city_stats:population", "city_risk:flooding"]
	Features []string

	// EntityRows 实体行，例如 [{"locode": "BR CCI"}]
	EntityRows []map[string]any

	// Project 项目名称（可选）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量，缺失的特征不出现在 Values 中
type FeatureVector struct {
	Values    map[string]any
	EntityRow map[string]any
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// Token 非空时使用静态 Token 认证
	Token string
	TLS   bool
}

// WithTimeout 配置选项：设置单次查询超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithToken 配置选项：使用静态 Token 认证
func WithToken(token string, tls bool) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
		c.TLS = tls
	}
}
