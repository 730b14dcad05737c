package compare

import (
	"context"
	"fmt"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/feature"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/model"
)

// Classifier 是基于训练好的二分类模型的比较器：
// 模型给出 a 优于 b 的概率，>= Threshold 判为 +1。
//
// 模型不保证严格反对称（p(a,b) 与 1-p(b,a) 可能不一致），
// 这里按原样使用，不做修正；失败不重试。
type Classifier struct {
	Model     model.PairModel
	Extractor *feature.Extractor
	Threshold float64

	// Metadata 非空时只向模型传递训练时使用的特征列
	Metadata *feature.ModelMetadata
	// Scaler 非空时在推理前做 Z-score 标准化
	Scaler feature.Scaler
}

func NewClassifier(m model.PairModel) *Classifier {
	return &Classifier{
		Model:     m,
		Extractor: feature.NewExtractor(),
		Threshold: 0.5,
	}
}

func (c *Classifier) Name() string { return "classifier." + c.Model.Name() }

func (c *Classifier) Compare(ctx context.Context, city *core.CityProfile, a, b *core.Action) (Outcome, error) {
	features := c.Metadata.Select(c.Extractor.ExtractPair(city, a, b))
	p, err := c.Model.Predict(ctx, c.Scaler.Normalize(features))
	if err != nil {
		return 0, fmt.Errorf("classifier %s: %w", c.Model.Name(), err)
	}
	if p >= c.Threshold {
		return FirstPreferred, nil
	}
	return SecondPreferred, nil
}

var _ Comparator = (*Classifier)(nil)
