// internal/bot/difficulty.go
package bot

import "github.com/quartet-cards/quartet/internal/models"

// Profile is the per-difficulty tuning surface for a computer seat: how long
// it appears to think, how eager it is to act, how often it deliberately
// misplays, and how often it picks the best known option over a random one.
type Profile struct {
	DecisionDelayMs     int64   `json:"decision_delay_ms"`
	DrawFromDiscardProb float64 `json:"draw_from_discard_probability"`
	SameRankPlayProb    float64 `json:"same_rank_play_probability"`
	WrongRankProb       float64 `json:"wrong_rank_probability"`
	OptimalProb         float64 `json:"optimal_probability"`
}

// DefaultProfiles mirrors the shipped difficulty ladder. Expert plays
// mistake-free; easy hesitates and misfires.
var DefaultProfiles = map[models.Difficulty]Profile{
	models.DifficultyEasy: {
		DecisionDelayMs:     1800,
		DrawFromDiscardProb: 0.30,
		SameRankPlayProb:    0.50,
		WrongRankProb:       0.20,
		OptimalProb:         0.60,
	},
	models.DifficultyMedium: {
		DecisionDelayMs:     1400,
		DrawFromDiscardProb: 0.40,
		SameRankPlayProb:    0.65,
		WrongRankProb:       0.10,
		OptimalProb:         0.80,
	},
	models.DifficultyHard: {
		DecisionDelayMs:     1100,
		DrawFromDiscardProb: 0.50,
		SameRankPlayProb:    0.80,
		WrongRankProb:       0.05,
		OptimalProb:         0.95,
	},
	models.DifficultyExpert: {
		DecisionDelayMs:     900,
		DrawFromDiscardProb: 0.60,
		SameRankPlayProb:    0.95,
		WrongRankProb:       0.00,
		OptimalProb:         1.00,
	},
}

func (e *Engine) profileFor(d models.Difficulty) Profile {
	if p, ok := e.profiles[d]; ok {
		return p
	}
	return DefaultProfiles[models.DifficultyMedium]
}
