package feast

import (
	"context"
	"errors"
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// fakeClient 用 SDK 行数据模拟在线特征库。
type fakeClient struct {
	rows map[string]feastsdk.Row
	err  error
	req  *GetOnlineFeaturesRequest
}

func (c *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	c.req = req
	if c.err != nil {
		return nil, c.err
	}
	vectors := make([]FeatureVector, len(req.EntityRows))
	for i, er := range req.EntityRows {
		locode, _ := er["locode"].(string)
		vectors[i] = FeatureVector{Values: rowValues(c.rows[locode], req.Features), EntityRow: er}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

func (c *fakeClient) Close() error { return nil }

func newSource(c Client) *CitySource {
	mapping := DefaultMapping()
	mapping["city_emissions:stationary_energy"] = "emissions.stationary_energy"
	mapping["city_emissions:transportation"] = "emissions.transportation"
	mapping["city_risk:flooding"] = "risk.flooding"
	return &CitySource{Client: c, Project: "citycatalyst", Mapping: mapping}
}

func TestCitySource(t *testing.T) {
	client := &fakeClient{rows: map[string]feastsdk.Row{
		"BR CCI": {
			"city_profile:name":                feastsdk.StrVal("Caxias do Sul"),
			"city_profile:biome":               feastsdk.StrVal("tropical_rainforest"),
			"city_profile:population":          feastsdk.Int64Val(463338),
			"city_profile:elevation":           feastsdk.FloatVal(817),
			"city_emissions:stationary_energy": feastsdk.DoubleVal(1500.5),
			"city_emissions:transportation":    feastsdk.DoubleVal(900),
			"city_risk:flooding":               feastsdk.DoubleVal(0.62),
		},
	}}
	src := newSource(client)

	city, err := src.City(context.Background(), "BR CCI")
	require.NoError(t, err)
	assert.Equal(t, "Caxias do Sul", city.Name)
	assert.Equal(t, "tropical_rainforest", city.Biome)
	assert.Equal(t, int64(463338), city.Population)
	assert.InDelta(t, 817, city.Elevation, 1e-9)
	assert.Equal(t, map[string]float64{"stationary_energy": 1500.5, "transportation": 900}, city.Emissions)
	assert.Equal(t, 0.62, city.Risk("flooding"))
	assert.Equal(t, "", city.CountryCode)

	require.NotNil(t, client.req)
	assert.Equal(t, "citycatalyst", client.req.Project)
	assert.Equal(t, "BR CCI", client.req.EntityRows[0]["locode"])
}

func TestCitySource_Errors(t *testing.T) {
	_, err := newSource(&fakeClient{}).City(context.Background(), "XX XXX")
	assert.True(t, core.IsNotFound(err))

	_, err = newSource(&fakeClient{err: errors.New("connection refused")}).City(context.Background(), "BR CCI")
	assert.True(t, core.IsUnavailable(err))

	bad := &fakeClient{rows: map[string]feastsdk.Row{
		"BR CCI": {"city_profile:population": feastsdk.StrVal("many")},
	}}
	_, err = newSource(bad).City(context.Background(), "BR CCI")
	assert.True(t, core.IsInvalidInput(err))
}

func TestFromSDKValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "string", in: "BR CCI", want: "BR CCI"},
		{name: "int", in: 100, want: 100.0},
		{name: "int64", in: int64(100), want: 100.0},
		{name: "float64", in: 3.5, want: 3.5},
		{name: "bool", in: true, want: 1.0},
		{name: "bytes", in: []byte("x"), want: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fromSDKValue(toSDKValue(tt.in)))
		})
	}
	assert.Nil(t, fromSDKValue(nil))
}

func TestGrpcClient_GetOnlineFeatures(t *testing.T) {
	t.Skip("requires a running Feast serving instance")

	client, err := NewGrpcClient("localhost", 6565, "citycatalyst")
	require.NoError(t, err)
	defer client.Close()

	src := &CitySource{Client: client, Mapping: DefaultMapping()}
	_, err = src.City(context.Background(), "BR CCI")
	require.NoError(t, err)
}
