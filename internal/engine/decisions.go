// internal/engine/decisions.go
package engine

import (
	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// DecisionMaker drives every action point for a computer-controlled player.
// The engine builds a DecisionView snapshot under its own lock and calls the
// maker synchronously; implementations must not call back into the match.
type DecisionMaker interface {
	// ThinkDelay returns how long the player appears to deliberate before its
	// turn action is executed.
	ThinkDelay(view DecisionView) int64 // milliseconds

	// DrawSource picks "deck" or "discard" at the start of a turn.
	// canDiscard is false when the discard pile is empty or its top card is
	// blocked from collection play.
	DrawSource(view DecisionView, canDiscard bool) string

	// PlayCard picks which card id to play after drawing. Returning the drawn
	// card's id plays it directly; returning a hand card id relocates the
	// drawn card into the vacated slot.
	PlayCard(view DecisionView) uuid.UUID

	// SameRank decides whether to interject during an open same-rank window,
	// returning the card id to throw in, or uuid.Nil to stay out.
	SameRank(view DecisionView, topRank string) uuid.UUID

	// JackSwap picks two (owner, card) pairs to exchange. Either pair may
	// name the acting player or any opponent. Returning zero targets skips
	// the power.
	JackSwap(view DecisionView) (first SwapTarget, second SwapTarget)

	// QueenPeek picks an opponent card to look at, or uuid.Nil to skip.
	QueenPeek(view DecisionView) uuid.UUID

	// CollectFromDiscard decides whether to take the top discard into the
	// collection when it matches the player's nominated rank.
	CollectFromDiscard(view DecisionView, top *models.Card) bool

	// InitialPeek picks the two starting cards to look at and the collection
	// rank to nominate ("" defers to the first peeked card's rank).
	InitialPeek(view DecisionView) ([2]uuid.UUID, string)
}

// SwapTarget names one side of a jack swap: a card and the player whose hand
// holds it.
type SwapTarget struct {
	PlayerID uuid.UUID
	CardID   uuid.UUID
}

// DecisionSlot is one hand slot as the deciding player sees it. Rank and
// Points are populated only when the card is in the deciding player's
// knowledge; unknown cards carry the id alone.
type DecisionSlot struct {
	Index  int
	CardID uuid.UUID
	Rank   string
	Points int
	Known  bool
	Locked bool // collected cards cannot be played or swapped
	Blank  bool
}

// DecisionOpponent summarizes one opposing seat.
type DecisionOpponent struct {
	PlayerID       uuid.UUID
	Hand           []DecisionSlot
	CollectionSize int
	CalledFinal    bool
}

// DecisionView is the knowledge-filtered snapshot a computer player decides
// from. It never exposes a card the player has not legitimately observed.
type DecisionView struct {
	PlayerID       uuid.UUID
	Difficulty     models.Difficulty
	CollectionRank string
	CollectionSize int
	Hand           []DecisionSlot
	DrawnCard      *models.Card // always known to its holder
	DiscardTop     *models.Card
	DrawPileSize   int
	Opponents      []DecisionOpponent
	FinalRound     bool
}

// decisionView builds the snapshot for player p. Assumes lock is held.
func (m *Match) decisionView(p *models.Player) DecisionView {
	view := DecisionView{
		PlayerID:       p.ID,
		Difficulty:     p.Difficulty,
		CollectionRank: p.CollectionRank,
		CollectionSize: len(p.CollectionCards),
		DrawnCard:      p.DrawnCard,
		DiscardTop:     m.discardTop(),
		DrawPileSize:   len(m.DrawPile),
		FinalRound:     m.FinalRoundCalled,
	}
	view.Hand = m.decisionSlots(p, p)
	for _, other := range m.Players {
		if other.ID == p.ID {
			continue
		}
		view.Opponents = append(view.Opponents, DecisionOpponent{
			PlayerID:       other.ID,
			Hand:           m.decisionSlots(p, other),
			CollectionSize: len(other.CollectionCards),
			CalledFinal:    other.CalledFinal,
		})
	}
	return view
}

// decisionSlots renders owner's hand through viewer's knowledge.
// Assumes lock is held.
func (m *Match) decisionSlots(viewer, owner *models.Player) []DecisionSlot {
	slots := make([]DecisionSlot, 0, len(owner.Hand))
	for i, c := range owner.Hand {
		slot := DecisionSlot{Index: i}
		if c == nil {
			slot.Blank = true
			slots = append(slots, slot)
			continue
		}
		slot.CardID = c.ID
		slot.Locked = owner.IsCollected(c.ID)
		if known := viewer.Knows(owner.ID, c.ID); known != nil {
			slot.Rank = known.Rank
			slot.Points = known.Points
			slot.Known = true
		}
		slots = append(slots, slot)
	}
	return slots
}
