// internal/engine/deck.go
package engine

import (
	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// buildDeck creates the 54-card match deck (52 standard + 2 jokers) and
// registers every card in the match's lookup index. The draw pile itself only
// carries card identities; full data is resolved through the index.
func (m *Match) buildDeck() {
	suits := []string{"H", "D", "C", "S"}
	ranks := []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	points := map[string]int{
		"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8,
		"9": 9, "10": 10, "J": 11, "Q": 12, "K": 13,
	}

	for _, suit := range suits {
		for _, rank := range ranks {
			cid, _ := uuid.NewRandom()
			card := &models.Card{ID: cid, Suit: suit, Rank: rank, Points: points[rank]}
			m.cardIndex[cid] = card
			m.DrawPile = append(m.DrawPile, cid)
		}
	}
	// Jokers score zero. Rank "O" avoids conflict with Jack "J".
	for _, suit := range []string{"R", "B"} {
		cid, _ := uuid.NewRandom()
		m.cardIndex[cid] = &models.Card{ID: cid, Suit: suit, Rank: "O", Points: 0}
		m.DrawPile = append(m.DrawPile, cid)
	}

	m.rng.Shuffle(len(m.DrawPile), func(i, j int) {
		m.DrawPile[i], m.DrawPile[j] = m.DrawPile[j], m.DrawPile[i]
	})
	m.log.WithField("cards", len(m.DrawPile)).Debug("deck built and shuffled")
}

// lookupCard resolves a card identity to its full data.
func (m *Match) lookupCard(cardID uuid.UUID) *models.Card {
	return m.cardIndex[cardID]
}

// popDrawPile removes and resolves the top card of the draw pile. When the
// pile is exhausted it reshuffles the discard pile (minus its revealed top
// card) back into the draw pile first. Returns nil only when no card can be
// produced at all.
func (m *Match) popDrawPile() *models.Card {
	if len(m.DrawPile) == 0 {
		m.reshuffleDiscardIntoDraw()
	}
	if len(m.DrawPile) == 0 {
		return nil
	}
	id := m.DrawPile[0]
	m.DrawPile = m.DrawPile[1:]
	card := m.lookupCard(id)
	if card == nil {
		// Index miss means the deck was corrupted; abort the draw.
		m.log.WithField("card_id", id).Error("draw pile id missing from card index")
		return nil
	}
	return card
}

// popDiscardPile removes and returns the top of the discard pile (already
// full data), or nil when empty.
func (m *Match) popDiscardPile() *models.Card {
	if len(m.DiscardPile) == 0 {
		return nil
	}
	idx := len(m.DiscardPile) - 1
	card := m.DiscardPile[idx]
	m.DiscardPile = m.DiscardPile[:idx]
	return card
}

// discardTop returns the revealed top of the discard pile without removing
// it, or nil when the pile is empty.
func (m *Match) discardTop() *models.Card {
	if len(m.DiscardPile) == 0 {
		return nil
	}
	return m.DiscardPile[len(m.DiscardPile)-1]
}

// reshuffleDiscardIntoDraw moves every discard card except the revealed top
// back into the draw pile and shuffles. A single-card (or empty) discard pile
// leaves both piles unchanged.
func (m *Match) reshuffleDiscardIntoDraw() {
	if len(m.DiscardPile) <= 1 {
		return
	}
	top := m.DiscardPile[len(m.DiscardPile)-1]
	recycled := m.DiscardPile[:len(m.DiscardPile)-1]
	for _, c := range recycled {
		m.DrawPile = append(m.DrawPile, c.ID)
	}
	m.DiscardPile = []*models.Card{top}
	m.rng.Shuffle(len(m.DrawPile), func(i, j int) {
		m.DrawPile[i], m.DrawPile[j] = m.DrawPile[j], m.DrawPile[i]
	})
	m.log.WithField("recycled", len(recycled)).Info("draw pile exhausted, reshuffled discard pile")
	m.fireEvent(MatchEvent{
		Type:    EventDrawPileReshuffle,
		Payload: map[string]interface{}{"drawPileSize": len(m.DrawPile)},
	})
	m.logAction(uuid.Nil, string(EventDrawPileReshuffle), map[string]interface{}{"newSize": len(m.DrawPile)})
}

// dealHands gives every player their four starting cards.
func (m *Match) dealHands() {
	for _, p := range m.Players {
		p.Hand = make([]*models.Card, 0, startingHandSize)
		for i := 0; i < startingHandSize; i++ {
			card := m.popDrawPile()
			if card == nil {
				m.log.WithField("player", p.ID).Warn("draw pile ran out during initial deal")
				break
			}
			p.Hand = append(p.Hand, card)
		}
	}
}
