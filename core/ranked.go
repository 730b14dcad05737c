package core

// Explanation 是排名结果的多语言解释，key 为语言代码（如 "en"、"es"、"pt"）。
type Explanation struct {
	Texts map[string]string `json:"explanations"`
}

// Text 返回指定语言的解释文本。
func (e *Explanation) Text(lang string) (string, bool) {
	if e == nil || e.Texts == nil {
		return "", false
	}
	s, ok := e.Texts[lang]
	return s, ok
}

// RankedAction 是排序结果中的一条：行动 + 名次（1 为最优先）+ 可选解释。
// 每次排序重新生成，生成后不再修改。
type RankedAction struct {
	Action      *Action      `json:"action"`
	Rank        int          `json:"rank"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// ActionID 返回对应行动的 ID。
func (r RankedAction) ActionID() string {
	if r.Action == nil {
		return ""
	}
	return r.Action.ActionID
}
