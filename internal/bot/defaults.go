// internal/bot/defaults.go
package bot

import "github.com/quartet-cards/quartet/internal/models"

// DefaultRuleSet is the shipped decision configuration. Sites that want
// different behavior load a JSON rule set instead (see LoadRuleSet).
func DefaultRuleSet() RuleSet {
	return RuleSet{
		EventJackSwap: {
			{
				// Trade a known high card for a known low opponent card.
				Priority: 10,
				Condition: &Condition{Op: "and", Args: []Condition{
					{Op: "cmp", Field: "known_own_cards", Cmp: "ge", Value: 1},
					{Op: "cmp", Field: "known_opponent_cards", Cmp: "ge", Value: 1},
				}},
				Action: Action{Use: true, Strategy: "highest_own_for_lowest_theirs"},
				Probability: map[models.Difficulty]float64{
					models.DifficultyEasy:   0.50,
					models.DifficultyMedium: 0.70,
					models.DifficultyHard:   0.90,
					models.DifficultyExpert: 1.00,
				},
			},
			{
				// Blind gamble when nothing is known: only the reckless tiers.
				Priority:  20,
				Condition: &Condition{Op: "cmp", Field: "known_opponent_cards", Cmp: "eq", Value: 0},
				Action:    Action{Use: true, Strategy: "random_pair"},
				Probability: map[models.Difficulty]float64{
					models.DifficultyEasy:   0.40,
					models.DifficultyMedium: 0.25,
					models.DifficultyHard:   0.10,
					models.DifficultyExpert: 0.00,
				},
			},
		},
		EventQueenPeek: {
			{
				Priority: 10,
				Action:   Action{Use: true, Strategy: "unknown_opponent"},
				Probability: map[models.Difficulty]float64{
					models.DifficultyEasy:   0.60,
					models.DifficultyMedium: 0.80,
					models.DifficultyHard:   0.95,
					models.DifficultyExpert: 1.00,
				},
			},
		},
		EventCollect: {
			{Priority: 10, Action: Action{Use: true}},
		},
	}
}
