package feast

import (
	"context"
	"fmt"
	"strings"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/catalog"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// CitySource 从 Feast 在线特征组装城市画像。
//
// Mapping 的 key 为特征名称，value 为画像字段：
//
//	name / country_code / biome                字符串字段
//	population / population_density / area / elevation  数值字段
//	emissions.<sector>                         部门排放
//	risk.<hazard>                              灾害风险
//
// 所有映射特征均缺失时视为城市不存在。
type CitySource struct {
	Client    Client
	Project   string
	EntityKey string // 默认 "locode"
	Mapping   map[string]string
}

// DefaultMapping 是常用的城市特征映射。
func DefaultMapping() map[string]string {
	return map[string]string{
		"city_profile:name":               "name",
		"city_profile:country_code":       "country_code",
		"city_profile:biome":              "biome",
		"city_profile:population":         "population",
		"city_profile:population_density": "population_density",
		"city_profile:area":               "area",
		"city_profile:elevation":          "elevation",
	}
}

func (s *CitySource) City(ctx context.Context, locode string) (*core.CityProfile, error) {
	key := s.EntityKey
	if key == "" {
		key = "locode"
	}
	features := make([]string, 0, len(s.Mapping))
	for f := range s.Mapping {
		features = append(features, f)
	}

	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: []map[string]any{{key: locode}},
		Project:    s.Project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("feast: city %s: %v", locode, err))
	}
	if len(resp.FeatureVectors) == 0 || len(resp.FeatureVectors[0].Values) == 0 {
		return nil, catalog.CityNotFound(locode)
	}

	city := &core.CityProfile{Locode: locode}
	for feature, v := range resp.FeatureVectors[0].Values {
		if err := apply(city, s.Mapping[feature], v); err != nil {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("feast: city %s feature %s: %v", locode, feature, err))
		}
	}
	return city, nil
}

// apply 将单个特征值写入画像字段。
func apply(city *core.CityProfile, field string, v any) error {
	if sector, ok := strings.CutPrefix(field, "emissions."); ok {
		f, err := number(v)
		if err != nil {
			return err
		}
		if city.Emissions == nil {
			city.Emissions = make(map[string]float64)
		}
		city.Emissions[sector] = f
		return nil
	}
	if hazard, ok := strings.CutPrefix(field, "risk."); ok {
		f, err := number(v)
		if err != nil {
			return err
		}
		if city.RiskScores == nil {
			city.RiskScores = make(map[string]float64)
		}
		city.RiskScores[hazard] = f
		return nil
	}

	switch field {
	case "name", "country_code", "biome":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		switch field {
		case "name":
			city.Name = s
		case "country_code":
			city.CountryCode = s
		default:
			city.Biome = s
		}
		return nil
	}

	f, err := number(v)
	if err != nil {
		return err
	}
	switch field {
	case "population":
		city.Population = int64(f)
	case "population_density":
		city.PopulationDensity = f
	case "area":
		city.Area = f
	case "elevation":
		city.Elevation = f
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
	return nil
}

func number(v any) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return f, nil
}

var _ catalog.CitySource = (*CitySource)(nil)
