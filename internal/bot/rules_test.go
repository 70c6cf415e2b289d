// internal/bot/rules_test.go
package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionHolds(t *testing.T) {
	fields := map[string]float64{
		"known_own_cards": 2,
		"draw_pile_size":  10,
	}

	cases := []struct {
		name string
		cond *Condition
		want bool
	}{
		{"nil is always", nil, true},
		{"always", &Condition{Op: "always"}, true},
		{"empty op is always", &Condition{}, true},
		{"cmp eq", &Condition{Op: "cmp", Field: "known_own_cards", Cmp: "eq", Value: 2}, true},
		{"cmp lt", &Condition{Op: "cmp", Field: "draw_pile_size", Cmp: "lt", Value: 5}, false},
		{"cmp ge", &Condition{Op: "cmp", Field: "draw_pile_size", Cmp: "ge", Value: 10}, true},
		{"missing field fails", &Condition{Op: "cmp", Field: "nope", Cmp: "eq", Value: 0}, false},
		{"and", &Condition{Op: "and", Args: []Condition{
			{Op: "cmp", Field: "known_own_cards", Cmp: "ge", Value: 1},
			{Op: "cmp", Field: "draw_pile_size", Cmp: "gt", Value: 5},
		}}, true},
		{"or short-circuits", &Condition{Op: "or", Args: []Condition{
			{Op: "cmp", Field: "known_own_cards", Cmp: "gt", Value: 99},
			{Op: "always"},
		}}, true},
		{"not", &Condition{Op: "not", Args: []Condition{{Op: "always"}}}, false},
		{"unknown op fails", &Condition{Op: "maybe"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cond.Holds(fields))
		})
	}
}

func TestLoadRuleSetSortsByPriority(t *testing.T) {
	raw := `{
		"jack_swap": [
			{"priority": 30, "action": {"use": true, "strategy": "random_pair"}},
			{"priority": 10, "action": {"use": true, "strategy": "highest_own_for_lowest_theirs"},
			 "condition": {"op": "cmp", "field": "known_opponent_cards", "cmp": "ge", "value": 1},
			 "probability": {"easy": 0.5, "expert": 1.0}}
		]
	}`
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)

	rules := rs[EventJackSwap]
	require.Len(t, rules, 2)
	assert.Equal(t, 10, rules[0].Priority, "lower priority is evaluated first")
	assert.Equal(t, "highest_own_for_lowest_theirs", rules[0].Action.Strategy)
	assert.Equal(t, 1.0, rules[0].Probability["expert"])
}

func TestLoadRuleSetMissingFile(t *testing.T) {
	_, err := LoadRuleSet(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
