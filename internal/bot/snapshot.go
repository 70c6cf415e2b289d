// internal/bot/snapshot.go
package bot

import (
	"strings"

	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/engine"
)

// snapshotFields flattens the decision view into the numeric fields condition
// trees compare against.
func snapshotFields(view engine.DecisionView) map[string]float64 {
	fields := map[string]float64{
		"draw_pile_size":  float64(view.DrawPileSize),
		"collection_size": float64(view.CollectionSize),
		"final_round":     0,
	}
	if view.FinalRound {
		fields["final_round"] = 1
	}

	knownOwn, unknownOwn, playableOwn := 0, 0, 0
	highestOwn := -1.0
	for _, s := range view.Hand {
		if s.Blank || s.Locked {
			continue
		}
		playableOwn++
		if s.Known {
			knownOwn++
			if float64(s.Points) > highestOwn {
				highestOwn = float64(s.Points)
			}
		} else {
			unknownOwn++
		}
	}
	fields["playable_own_cards"] = float64(playableOwn)
	fields["known_own_cards"] = float64(knownOwn)
	fields["unknown_own_cards"] = float64(unknownOwn)
	fields["highest_known_own_points"] = highestOwn

	knownTheirs := 0
	lowestTheirs := 99.0
	unknownTheirs := 0
	for _, o := range view.Opponents {
		for _, s := range o.Hand {
			if s.Blank || s.Locked {
				continue
			}
			if s.Known {
				knownTheirs++
				if float64(s.Points) < lowestTheirs {
					lowestTheirs = float64(s.Points)
				}
			} else {
				unknownTheirs++
			}
		}
	}
	fields["known_opponent_cards"] = float64(knownTheirs)
	fields["unknown_opponent_cards"] = float64(unknownTheirs)
	fields["lowest_known_opponent_points"] = lowestTheirs
	fields["opponents"] = float64(len(view.Opponents))

	if view.DiscardTop != nil {
		fields["discard_top_points"] = float64(view.DiscardTop.Points)
		fields["discard_matches_collection"] = 0
		if view.CollectionRank != "" && strings.EqualFold(view.DiscardTop.Rank, view.CollectionRank) {
			fields["discard_matches_collection"] = 1
		}
	}
	return fields
}

// DecisionCard is one playable own card with the seat's knowledge attached.
type DecisionCard struct {
	CardID uuid.UUID
	Rank   string
	Points int
	Known  bool
}

// playableCards lists the seat's legal play targets: unlocked, non-blank hand
// slots plus the drawn card when held.
func (e *Engine) playableCards(view engine.DecisionView) []DecisionCard {
	var out []DecisionCard
	for _, s := range view.Hand {
		if s.Blank || s.Locked {
			continue
		}
		if view.DrawnCard != nil && s.CardID == view.DrawnCard.ID {
			continue
		}
		out = append(out, DecisionCard{CardID: s.CardID, Rank: s.Rank, Points: s.Points, Known: s.Known})
	}
	if view.DrawnCard != nil {
		out = append(out, DecisionCard{
			CardID: view.DrawnCard.ID,
			Rank:   view.DrawnCard.Rank,
			Points: view.DrawnCard.Points,
			Known:  true,
		})
	}
	return out
}
