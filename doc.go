// Package prioritizer 为城市排序候选气候行动（Climate Action Prioritizer）。
//
// 设计要点：
// - Comparator-first: 排序只依赖成对比较器（定量打分 / 分类模型 / 大模型），排序算法不关心比较器实现
// - 两种排序策略: 循环赛（全部两两比较，按胜场排序）与 quickselect（只比较得出前 K 名所需的对）
// - Pipeline 可配置: 过滤 → 排序 → 重排 → 解释，Node 通过 YAML 组装
// - 解释不影响排序: 单个行动解释失败只标记为缺失
package prioritizer

import (
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/compare"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pipeline"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/rank"
)

// 轻量 facade：便于直接 import 根包使用核心抽象。
type (
	Pipeline   = pipeline.Pipeline
	Node       = pipeline.Node
	Kind       = pipeline.Kind
	Comparator = compare.Comparator
	Outcome    = compare.Outcome
	Ranker     = rank.Ranker
)

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess

	FirstPreferred  = compare.FirstPreferred
	SecondPreferred = compare.SecondPreferred
)

var (
	Tournament      = rank.Tournament
	QuickselectTopK = rank.QuickselectTopK
)
