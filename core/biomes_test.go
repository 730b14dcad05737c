package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBiomes_Allows(t *testing.T) {
	tests := []struct {
		name   string
		biomes Biomes
		city   string
		want   bool
	}{
		{name: "unrestricted", biomes: nil, city: "desert", want: true},
		{name: "city without biome", biomes: Biomes{"desert"}, city: "", want: true},
		{name: "member", biomes: Biomes{"desert", "steppe"}, city: "steppe", want: true},
		{name: "not a member", biomes: Biomes{"desert", "steppe"}, city: "tropical_rainforest", want: false},
		{name: "case sensitive", biomes: Biomes{"desert"}, city: "Desert", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.biomes.Allows(tt.city))
		})
	}
}

func TestBiomes_Decode(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"ActionID":"a","Biome":"desert"}`), &a))
	assert.Equal(t, Biomes{"desert"}, a.Biome)

	require.NoError(t, json.Unmarshal([]byte(`{"ActionID":"b","Biome":["desert","steppe"]}`), &a))
	assert.Equal(t, Biomes{"desert", "steppe"}, a.Biome)

	var empty Action
	require.NoError(t, json.Unmarshal([]byte(`{"ActionID":"c","Biome":""}`), &empty))
	assert.Empty(t, empty.Biome)

	var y Action
	require.NoError(t, yaml.Unmarshal([]byte("action_id: d\nbiome: [coastal, wetland]\n"), &y))
	assert.Equal(t, Biomes{"coastal", "wetland"}, y.Biome)

	require.NoError(t, yaml.Unmarshal([]byte("action_id: e\nbiome: coastal\n"), &y))
	assert.Equal(t, Biomes{"coastal"}, y.Biome)

	assert.Error(t, json.Unmarshal([]byte(`{"Biome":3}`), &a))
}
