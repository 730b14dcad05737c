package core

import "time"

// RankConfig 是排序服务的配置接口，用于提供默认值。
type RankConfig interface {
	// DefaultTopK 返回默认返回的行动数
	DefaultTopK() int

	// DefaultLanguages 返回默认的解释语言
	DefaultLanguages() []string

	// DefaultBulkConcurrency 返回批量排序的默认并发城市数
	DefaultBulkConcurrency() int

	// DefaultCityTimeout 返回单个城市排序的默认超时时间
	DefaultCityTimeout() time.Duration
}

// DefaultRankConfig 是默认的排序配置实现。
type DefaultRankConfig struct{}

func (c *DefaultRankConfig) DefaultTopK() int {
	return 20
}

func (c *DefaultRankConfig) DefaultLanguages() []string {
	return []string{"en"}
}

func (c *DefaultRankConfig) DefaultBulkConcurrency() int {
	return 4
}

func (c *DefaultRankConfig) DefaultCityTimeout() time.Duration {
	return 10 * time.Minute
}
