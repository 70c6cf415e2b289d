// internal/bot/rules.go
package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/quartet-cards/quartet/internal/models"
)

// EventType names one decision point a rule list can be attached to.
type EventType string

const (
	EventDrawSource EventType = "draw_source"
	EventPlayCard   EventType = "play_card"
	EventSameRank   EventType = "same_rank"
	EventJackSwap   EventType = "jack_swap"
	EventQueenPeek  EventType = "queen_peek"
	EventCollect    EventType = "collect_from_discard"
)

// Condition is a boolean tree evaluated against a prepared numeric snapshot
// of the decision view. Supported ops: "always" (or empty), "and", "or",
// "not", "cmp". A cmp node compares snapshot field Field against Value with
// one of eq/ne/lt/le/gt/ge.
type Condition struct {
	Op    string      `json:"op"`
	Args  []Condition `json:"args,omitempty"`
	Field string      `json:"field,omitempty"`
	Cmp   string      `json:"cmp,omitempty"`
	Value float64     `json:"value,omitempty"`
}

// Holds evaluates the condition tree against the snapshot fields.
func (c *Condition) Holds(fields map[string]float64) bool {
	if c == nil {
		return true
	}
	switch c.Op {
	case "", "always":
		return true
	case "and":
		for i := range c.Args {
			if !c.Args[i].Holds(fields) {
				return false
			}
		}
		return true
	case "or":
		for i := range c.Args {
			if c.Args[i].Holds(fields) {
				return true
			}
		}
		return false
	case "not":
		if len(c.Args) == 0 {
			return false
		}
		return !c.Args[0].Holds(fields)
	case "cmp":
		v, ok := fields[c.Field]
		if !ok {
			return false
		}
		switch c.Cmp {
		case "eq":
			return v == c.Value
		case "ne":
			return v != c.Value
		case "lt":
			return v < c.Value
		case "le":
			return v <= c.Value
		case "gt":
			return v > c.Value
		case "ge":
			return v >= c.Value
		}
	}
	return false
}

// Action is what a fired rule does: use the opportunity (with a named
// target-selection strategy) or explicitly skip it.
type Action struct {
	Use      bool   `json:"use"`
	Strategy string `json:"strategy,omitempty"`
}

// Rule is one prioritized entry of a decision list. A rule fires only when
// its condition holds, its per-difficulty probability roll passes, AND its
// action resolves to a valid target; otherwise evaluation continues with the
// next rule.
type Rule struct {
	Priority    int                           `json:"priority"`
	Condition   *Condition                    `json:"condition,omitempty"`
	Action      Action                        `json:"action"`
	Probability map[models.Difficulty]float64 `json:"probability,omitempty"`
}

// RuleSet maps each decision point to its ordered rule list.
type RuleSet map[EventType][]Rule

// sortRules orders every list by ascending priority (lower evaluated first).
func (rs RuleSet) sortRules() {
	for ev := range rs {
		rules := rs[ev]
		sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
		rs[ev] = rules
	}
}

// LoadRuleSet reads a JSON rule configuration from disk.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set %s: %w", path, err)
	}
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rule set %s: %w", path, err)
	}
	rs.sortRules()
	return rs, nil
}
