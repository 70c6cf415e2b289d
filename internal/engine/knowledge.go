// internal/engine/knowledge.go
package engine

import (
	"github.com/quartet-cards/quartet/internal/models"
)

// rememberProb is the chance a player retains knowledge across a
// reveal-relevant event. Humans track the table with their own eyes, so the
// decay model only applies to computer seats.
func (m *Match) rememberProb(p *models.Player) float64 {
	if p.IsHuman {
		return 1.0
	}
	if prob, ok := m.RememberProbs[p.Difficulty]; ok {
		return prob
	}
	return 1.0
}

// rollRemember runs one independent retention roll for a player.
// Assumes lock is held (rng access).
func (m *Match) rollRemember(p *models.Player) bool {
	return m.rng.Float64() < m.rememberProb(p)
}

// noteOwnDraw records the drawn card. The drawer always knows its own draw.
// A draw off the discard pile happened face-up, so every other seat rolls to
// remember where the card went. Assumes lock is held.
func (m *Match) noteOwnDraw(owner *models.Player, card *models.Card, public bool) {
	owner.Remember(owner.ID, card)
	if !public {
		return
	}
	for _, o := range m.Players {
		if o.ID == owner.ID {
			continue
		}
		if m.rollRemember(o) {
			o.Remember(owner.ID, card)
		}
	}
}

// noteCardPlayed clears a card that just hit the discard pile from every
// seat's knowledge. Whether an observer "remembers it was played" or simply
// forgets it, the belief entry is gone either way: the card is face-up public
// state now. Assumes lock is held.
func (m *Match) noteCardPlayed(card *models.Card) {
	for _, o := range m.Players {
		o.Forget(card.ID)
	}
}

// noteSwap decays knowledge across a blind Jack swap. For each observer and
// each of the two moved cards, independently: an observer who believed it
// knew the card either relocates that belief to the card's new owner (on a
// remember roll) or drops it entirely. Called after the hand slots have been
// exchanged, so cardA now sits with ownerB and cardB with ownerA. The two
// owners may be any pair of seats, the acting player included.
// Assumes lock is held.
func (m *Match) noteSwap(ownerA *models.Player, cardA *models.Card, ownerB *models.Player, cardB *models.Card) {
	moves := []struct {
		card     *models.Card
		oldOwner *models.Player
		newOwner *models.Player
	}{
		{cardA, ownerA, ownerB},
		{cardB, ownerB, ownerA},
	}
	for _, o := range m.Players {
		for _, mv := range moves {
			known := o.Knows(mv.oldOwner.ID, mv.card.ID)
			if known == nil {
				continue
			}
			o.Forget(mv.card.ID)
			if m.rollRemember(o) {
				o.Remember(mv.newOwner.ID, known)
			}
		}
	}
}

// notePeek records a Queen peek: the peeker learns the target card with
// certainty. Nobody else learns anything. Assumes lock is held.
func (m *Match) notePeek(peeker, owner *models.Player, card *models.Card) {
	peeker.Remember(owner.ID, card)
}
