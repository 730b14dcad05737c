package core

import "github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/utils"

// Item 是 Pipeline 中流转的载体：行动本身只读，名次、标签、解释由各 Node 写入。
// Labels 用于解释与观测（过滤原因、排序策略、胜场数等）。
type Item struct {
	Action      *Action
	Rank        int
	Explanation *Explanation
	Labels      map[string]utils.Label
}

func NewItem(action *Action) *Item {
	return &Item{
		Action: action,
		Labels: make(map[string]utils.Label),
	}
}

// NewItems 将行动列表包装为 Item 列表，保持顺序。
func NewItems(actions []*Action) []*Item {
	out := make([]*Item, 0, len(actions))
	for _, a := range actions {
		if a == nil {
			continue
		}
		out = append(out, NewItem(a))
	}
	return out
}

// Actions 提取 Item 列表中的行动，保持顺序。
func Actions(items []*Item) []*Action {
	out := make([]*Action, 0, len(items))
	for _, it := range items {
		if it == nil || it.Action == nil {
			continue
		}
		out = append(out, it.Action)
	}
	return out
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Ranked 转换为对外的排序结果。
func (it *Item) Ranked() RankedAction {
	return RankedAction{Action: it.Action, Rank: it.Rank, Explanation: it.Explanation}
}
