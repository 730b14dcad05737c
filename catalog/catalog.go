// Package catalog 加载行动目录与城市画像。
//
// 文件格式按扩展名判断：.yaml / .yml 为 YAML，其余按 JSON 解析。
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Format 是目录文件格式。
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf 根据扩展名判断文件格式。
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func decode(data []byte, format Format, v any) error {
	if format == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// LoadActions 从文件加载行动目录。
func LoadActions(path string) ([]*core.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	return ParseActions(data, FormatOf(path))
}

// ParseActions 解析行动目录并校验：ActionID 不能为空且不能重复。
func ParseActions(data []byte, format Format) ([]*core.Action, error) {
	var actions []*core.Action
	if err := decode(data, format, &actions); err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			fmt.Sprintf("catalog: parse actions: %v", err))
	}
	if err := ValidateActions(actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// ValidateActions 校验行动目录。
func ValidateActions(actions []*core.Action) error {
	seen := make(map[string]bool, len(actions))
	for i, a := range actions {
		if a == nil || a.ActionID == "" {
			return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: action #%d has no ActionID", i))
		}
		if seen[a.ActionID] {
			return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: duplicate ActionID %q", a.ActionID))
		}
		seen[a.ActionID] = true
	}
	return nil
}
