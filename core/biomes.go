package core

import (
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// Biomes 是行动允许的生物群系集合，空集合表示不限制。
// 反序列化时既接受单个字符串，也接受字符串数组。
type Biomes []string

// Allows 判断城市生物群系是否在集合内（区分大小写）。
// 集合为空或城市未设置生物群系时返回 true。
func (b Biomes) Allows(biome string) bool {
	if len(b) == 0 || biome == "" {
		return true
	}
	return slices.Contains(b, biome)
}

func (b *Biomes) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*b = fromOne(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*b = Biomes(many)
	return nil
}

func (b *Biomes) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var one string
		if err := n.Decode(&one); err != nil {
			return err
		}
		*b = fromOne(one)
		return nil
	}
	var many []string
	if err := n.Decode(&many); err != nil {
		return err
	}
	*b = Biomes(many)
	return nil
}

func fromOne(s string) Biomes {
	if s == "" {
		return nil
	}
	return Biomes{s}
}
