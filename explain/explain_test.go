package explain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/pkg/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var city = &core.CityProfile{Locode: "BR CCI", Name: "Caxias do Sul", CountryCode: "BR"}

func ranked(ids ...string) []core.RankedAction {
	out := make([]core.RankedAction, len(ids))
	for i, id := range ids {
		out[i] = core.RankedAction{Action: &core.Action{ActionID: id, Name: "Action " + id}, Rank: i + 1}
	}
	return out
}

func TestStatic(t *testing.T) {
	s := &Static{Templates: map[string]string{"es": "{name} ocupa el puesto {rank} en {city}."}}
	expl, err := s.Explain(context.Background(), "BR", city, &core.Action{ActionID: "x", Name: "Bike lanes"}, 2, []string{"en", "es"})
	require.NoError(t, err)

	en, ok := expl.Text("en")
	require.True(t, ok)
	assert.Equal(t, "Bike lanes is ranked #2 for Caxias do Sul (BR).", en)
	es, _ := expl.Text("es")
	assert.Equal(t, "Bike lanes ocupa el puesto 2 en Caxias do Sul.", es)
}

// fakeClient 按行动 ID 返回预设回答，并记录调用次数。
type fakeClient struct {
	mu      sync.Mutex
	calls   int
	answers map[string]string
}

func (c *fakeClient) Chat(_ context.Context, messages []llm.Message) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	prompt := messages[len(messages)-1].Content
	for id, ans := range c.answers {
		if strings.Contains(prompt, "("+id+")") {
			if ans == "" {
				return "", errors.New("upstream timeout")
			}
			return ans, nil
		}
	}
	return "not json", nil
}

func TestLLMEnricher(t *testing.T) {
	client := &fakeClient{answers: map[string]string{
		"a1": "```json\n{\"en\": \"Cuts energy emissions.\", \"pt\": \"Reduz emissões.\"}\n```",
		"a2": `{"fr": "Bonjour"}`,
	}}
	e := NewLLMEnricher(client, nil, nil)

	expl, err := e.Explain(context.Background(), "BR", city, &core.Action{ActionID: "a1"}, 1, []string{"en", "pt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "Cuts energy emissions.", "pt": "Reduz emissões."}, expl.Texts)

	_, err = e.Explain(context.Background(), "BR", city, &core.Action{ActionID: "a2"}, 2, []string{"en"})
	assert.Error(t, err)

	expl, err = e.Explain(context.Background(), "BR", city, &core.Action{ActionID: "a1"}, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, expl)
}

func TestApply_FailuresDegradeToMissing(t *testing.T) {
	client := &fakeClient{answers: map[string]string{
		"ok1":  `{"en": "first"}`,
		"fail": "",
		"ok2":  `{"en": "third"}`,
	}}
	in := ranked("ok1", "fail", "ok2")

	out, err := Apply(context.Background(), NewLLMEnricher(client, nil, nil), "BR", city, in, []string{"en"}, 2, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "first", out[0].Explanation.Texts["en"])
	assert.Nil(t, out[1].Explanation)
	assert.Equal(t, "third", out[2].Explanation.Texts["en"])
	assert.Equal(t, 3, client.calls, "one call per ranked action")

	for i := range out {
		assert.Equal(t, in[i].Rank, out[i].Rank)
		assert.Nil(t, in[i].Explanation, "input must not be modified")
	}
}

func TestApply_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Apply(ctx, &Static{}, "BR", city, ranked("a", "b"), []string{"en"}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNode(t *testing.T) {
	items := []*core.Item{core.NewItem(&core.Action{ActionID: "a", Name: "Solar"})}
	items[0].Rank = 1
	n := &Node{Enricher: &Static{}, Languages: []string{"en"}}
	assert.Equal(t, "explain.static", n.Name())

	rctx := &core.RankContext{City: city, Languages: []string{"en", "pt"}}
	out, err := n.Process(context.Background(), rctx, items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Explanation.Texts, 2)
	assert.Equal(t, "ok", out[0].Labels["explanation"].Value)
}
