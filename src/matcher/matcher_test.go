package matcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
)

func contract(name string, body contracts.Pattern, headers map[string]contracts.Pattern) contracts.Contract {
	return contracts.Contract{
		Name: name,
		Input: contracts.Input{
			From:    contracts.At("orders.in"),
			Body:    body,
			Headers: headers,
		},
		Output: contracts.Output{SentTo: contracts.At("orders.out"), Body: name + "-reply"},
	}
}

func message(body string, headers map[string]string) broker.Message {
	return broker.Message{Topic: "orders.in", Value: []byte(body), Headers: headers}
}

func TestMatch_LiteralBody(t *testing.T) {
	group := []contracts.Contract{contract("create", contracts.Literal("CREATE"), nil)}

	res := Match(message("CREATE", nil), group)
	require.True(t, res.Matched)
	assert.Equal(t, "create", res.Contract.Name)
	assert.Equal(t, 0, res.Index)

	res = Match(message("DELETE", nil), group)
	assert.False(t, res.Matched)
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, NoMatch, res)
}

func TestMatch_FirstMatchWins(t *testing.T) {
	group := []contracts.Contract{
		contract("wildcard", contracts.MustRegex(".*"), nil),
		contract("create", contracts.Literal("CREATE"), nil),
	}

	res := Match(message("CREATE", nil), group)
	require.True(t, res.Matched)
	assert.Equal(t, "wildcard", res.Contract.Name)

	// Reversed declaration order flips the winner.
	reversed := []contracts.Contract{group[1], group[0]}
	res = Match(message("CREATE", nil), reversed)
	require.True(t, res.Matched)
	assert.Equal(t, "create", res.Contract.Name)
}

func TestMatch_SkipsNonMatchingToLaterContract(t *testing.T) {
	group := []contracts.Contract{
		contract("create", contracts.Literal("CREATE"), nil),
		contract("delete", contracts.Literal("DELETE"), nil),
	}

	res := Match(message("DELETE", nil), group)
	require.True(t, res.Matched)
	assert.Equal(t, "delete", res.Contract.Name)
	assert.Equal(t, 1, res.Index)
}

func TestMatch_AbsentBodyIsWildcard(t *testing.T) {
	group := []contracts.Contract{contract("any", contracts.Any(), nil)}

	assert.True(t, Match(message("anything", nil), group).Matched)
	assert.True(t, Match(message("", nil), group).Matched)
}

func TestMatch_Headers(t *testing.T) {
	group := []contracts.Contract{
		contract("typed", contracts.Any(), map[string]contracts.Pattern{
			"type": contracts.Literal("order"),
			"id":   contracts.MustRegex("[0-9]+"),
		}),
	}

	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{"all present and accepted", map[string]string{"type": "order", "id": "17"}, true},
		{"extra headers are ignored", map[string]string{"type": "order", "id": "17", "trace": "x"}, true},
		{"missing header", map[string]string{"type": "order"}, false},
		{"rejected literal", map[string]string{"type": "invoice", "id": "17"}, false},
		{"rejected regex", map[string]string{"type": "order", "id": "abc"}, false},
		{"no headers at all", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(message("", tt.headers), group).Matched)
		})
	}
}

func TestMatch_AbsentHeaderPatternIsDontCare(t *testing.T) {
	group := []contracts.Contract{
		contract("loose", contracts.Any(), map[string]contracts.Pattern{"optional": contracts.Any()}),
	}
	assert.True(t, Match(message("", nil), group).Matched)
}

func TestMatch_JSONBodyIgnoresFormatting(t *testing.T) {
	group := []contracts.Contract{
		contract("json", contracts.Literal(`{"action":"CREATE","id":1}`), nil),
	}

	assert.True(t, Match(message(`{ "id": 1, "action": "CREATE" }`, nil), group).Matched)
	assert.False(t, Match(message(`{"id":2,"action":"CREATE"}`, nil), group).Matched)
	assert.False(t, Match(message(`not json`, nil), group).Matched)
}

func TestMatch_JSONNumbersCompareExactly(t *testing.T) {
	group := []contracts.Contract{
		contract("big-id", contracts.Literal(`{"id":9007199254740993}`), nil),
	}

	assert.True(t, Match(message(`{"id": 9007199254740993}`, nil), group).Matched)
	assert.False(t, Match(message(`{"id":9007199254740992}`, nil), group).Matched)
	assert.False(t, Match(message(`{"id":9007199254740993.5}`, nil), group).Matched)

	amounts := []contracts.Contract{
		contract("amount", contracts.Literal(`[{"amount":10}]`), nil),
	}
	assert.True(t, Match(message(`[{"amount":10.0}]`, nil), amounts).Matched)
	assert.True(t, Match(message(`[{"amount":1e1}]`, nil), amounts).Matched)
	assert.False(t, Match(message(`[{"amount":10.01}]`, nil), amounts).Matched)
	assert.False(t, Match(message(`[{"amount":"10"}]`, nil), amounts).Matched)
}

func TestMatch_RegexBodyOverBytes(t *testing.T) {
	group := []contracts.Contract{
		contract("numbers", contracts.MustRegex(`order-[0-9]+`), nil),
	}
	assert.True(t, Match(message("order-123", nil), group).Matched)
	assert.False(t, Match(message("order-123 trailing", nil), group).Matched)
}

func TestMatch_EmptyGroup(t *testing.T) {
	assert.Equal(t, NoMatch, Match(message("CREATE", nil), nil))
}

func TestMatch_PureUnderConcurrency(t *testing.T) {
	group := []contracts.Contract{
		contract("create", contracts.Literal("CREATE"), nil),
		contract("wildcard", contracts.MustRegex(".*"), nil),
	}
	inputs := []string{"CREATE", "DELETE", "CREATE", "UPDATE"}
	want := []string{"create", "wildcard", "create", "wildcard"}

	var wg sync.WaitGroup
	errs := make(chan string, 400)
	for g := 0; g < 100; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, in := range inputs {
				first := Match(message(in, nil), group)
				second := Match(message(in, nil), group)
				if first.Contract.Name != want[i] || second.Contract.Name != want[i] {
					errs <- in
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for in := range errs {
		t.Errorf("inconsistent match for %q", in)
	}
}
