package core

// CityProfile 是排序上下文中的城市画像，单次排序期间只读。
//
//	维度        作用
//	排放        计算减排行动的相对影响
//	生物群系    排序前过滤不兼容的行动
//	气候风险    过滤 + 适应类行动的比较特征
type CityProfile struct {
	Locode      string `yaml:"locode" json:"locode"`
	Name        string `yaml:"name" json:"name"`
	CountryCode string `yaml:"country_code" json:"country_code,omitempty"`

	Population        int64   `yaml:"population" json:"population,omitempty"`
	PopulationDensity float64 `yaml:"population_density" json:"population_density,omitempty"`
	Area              float64 `yaml:"area" json:"area,omitempty"`
	Elevation         float64 `yaml:"elevation" json:"elevation,omitempty"`

	// Biome 为空时不做生物群系过滤
	Biome string `yaml:"biome" json:"biome,omitempty"`

	// Emissions: sector -> tCO2e
	Emissions map[string]float64 `yaml:"emissions" json:"emissions,omitempty"`

	// RiskScores: hazard -> 归一化风险值 (0-1)
	RiskScores map[string]float64 `yaml:"risk_scores" json:"risk_scores,omitempty"`
}

// TotalEmissions 返回所有部门排放之和。
func (c *CityProfile) TotalEmissions() float64 {
	if c == nil {
		return 0
	}
	total := 0.0
	for _, v := range c.Emissions {
		total += v
	}
	return total
}

// SectorShare 返回某部门排放占总排放的比例，总排放为 0 时返回 0。
func (c *CityProfile) SectorShare(sector string) float64 {
	total := c.TotalEmissions()
	if total <= 0 {
		return 0
	}
	return c.Emissions[sector] / total
}

// Risk 返回某灾害的风险值，未知灾害返回 0。
func (c *CityProfile) Risk(hazard string) float64 {
	if c == nil || c.RiskScores == nil {
		return 0
	}
	return c.RiskScores[hazard]
}
