// internal/engine/turn.go
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// ProcessPlayerAction is the single entry point for player-initiated actions
// coming off a websocket (or a test). It locks the match and dispatches on
// the action type; every handler below assumes the lock is held.
func (m *Match) ProcessPlayerAction(playerID uuid.UUID, action models.MatchAction) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.GameOver {
		return
	}

	switch action.ActionType {
	case "draw":
		source, _ := payloadString(action.Payload, "source")
		m.HandleDrawCard(playerID, source)
	case "play":
		if id, ok := payloadUUID(action.Payload, "card_id"); ok {
			m.HandlePlayCard(playerID, id)
		} else {
			m.rejectAction(playerID, "Malformed card id.")
		}
	case "same_rank_play":
		if id, ok := payloadUUID(action.Payload, "card_id"); ok {
			m.HandleSameRankPlay(playerID, id)
		} else {
			m.rejectAction(playerID, "Malformed card id.")
		}
	case "collect_from_discard":
		m.HandleCollectFromDiscard(playerID)
	case "jack_swap":
		card1, ok1 := payloadUUID(action.Payload, "first_card_id")
		owner1, ok2 := payloadUUID(action.Payload, "first_player_id")
		card2, ok3 := payloadUUID(action.Payload, "second_card_id")
		owner2, ok4 := payloadUUID(action.Payload, "second_player_id")
		if ok1 && ok2 && ok3 && ok4 {
			m.HandleJackSwap(playerID,
				SwapTarget{PlayerID: owner1, CardID: card1},
				SwapTarget{PlayerID: owner2, CardID: card2})
		} else {
			m.rejectAction(playerID, "A swap needs two (card, player) pairs.")
		}
	case "queen_peek":
		if id, ok := payloadUUID(action.Payload, "card_id"); ok {
			m.HandleQueenPeek(playerID, id)
		} else {
			m.rejectAction(playerID, "Malformed card id.")
		}
	case "skip_special":
		m.HandleSkipSpecial(playerID)
	case "complete_initial_peek":
		id1, ok1 := payloadUUID(action.Payload, "card1_id")
		id2, ok2 := payloadUUID(action.Payload, "card2_id")
		rank, _ := payloadString(action.Payload, "collection_rank")
		if ok1 && ok2 {
			m.HandleCompleteInitialPeek(playerID, [2]uuid.UUID{id1, id2}, rank)
		} else {
			m.rejectAction(playerID, "Pick exactly two of your cards to peek.")
		}
	case "call_final_round":
		m.HandleCallFinalRound(playerID)
	case "sync":
		m.sendSyncState(playerID)
	default:
		m.rejectAction(playerID, "Unknown action type.")
	}
}

// beginTurn enters the player_turn phase for the current seat and, for a
// computer seat, schedules its whole turn after a think delay.
// Assumes lock is held.
func (m *Match) beginTurn() {
	if m.GameOver {
		return
	}
	cur := m.currentPlayer()
	if cur == nil {
		return
	}
	m.Phase = PhasePlayerTurn
	for _, p := range m.Players {
		p.Status = models.StatusWaiting
		p.CardToPeek = nil
	}
	cur.Status = models.StatusDrawingCard

	m.logAction(cur.ID, string(EventPlayerTurn), map[string]interface{}{"turn": m.TurnID})
	m.fireEvent(MatchEvent{
		Type:    EventPlayerTurn,
		Player:  &EventPlayer{ID: cur.ID},
		Payload: map[string]interface{}{"turn": m.TurnID},
	})

	if !cur.IsHuman {
		m.scheduleComputerTurn(cur)
	}
}

// scheduleComputerTurn arms the think timer for a computer seat. The callback
// re-validates the turn id so a turn that ended in the meantime (disconnect
// advance, match end) is a no-op. Assumes lock is held.
func (m *Match) scheduleComputerTurn(p *models.Player) {
	turnID := m.TurnID
	delay := m.CosmeticDelay
	if m.Decisions != nil {
		if ms := m.Decisions.ThinkDelay(m.decisionView(p)); ms > 0 {
			delay = time.Duration(ms) * time.Millisecond
		}
	}
	m.resetTimer(&m.thinkTimer, delay, func() {
		m.Mu.Lock()
		defer m.Mu.Unlock()
		if m.GameOver || m.Phase != PhasePlayerTurn || m.TurnID != turnID {
			return
		}
		cur := m.currentPlayer()
		if cur == nil || cur.ID != p.ID {
			return
		}
		m.runComputerTurn(cur)
	})
}

// runComputerTurn executes a complete computer turn: an opportunistic
// collection grab, then a draw, then a play. Assumes lock is held.
func (m *Match) runComputerTurn(p *models.Player) {
	if m.Decisions == nil {
		// No decision maker wired: draw from the deck and play the drawn card.
		m.HandleDrawCard(p.ID, "deck")
		if p.DrawnCard != nil {
			m.HandlePlayCard(p.ID, p.DrawnCard.ID)
		}
		return
	}

	if top := m.discardTop(); top != nil && p.MatchesCollectionRank(top.Rank) {
		if m.Decisions.CollectFromDiscard(m.decisionView(p), top) {
			m.HandleCollectFromDiscard(p.ID)
			if m.GameOver {
				return
			}
		}
	}

	canDiscard := m.discardTop() != nil
	source := m.Decisions.DrawSource(m.decisionView(p), canDiscard)
	m.HandleDrawCard(p.ID, source)
	if p.DrawnCard == nil {
		// Both piles empty; nothing to do but pass.
		m.advanceTurn()
		return
	}

	played := m.Decisions.PlayCard(m.decisionView(p))
	if _, idx := p.HandCard(played); idx < 0 {
		played = p.DrawnCard.ID
	}
	m.HandlePlayCard(p.ID, played)
}

// HandleDrawCard draws the current player's card from the chosen source
// ("deck" or "discard"). The card joins the hand as a trailing slot and is
// held as the turn's drawn card until it or a hand card is played.
// Assumes lock is held.
func (m *Match) HandleDrawCard(playerID uuid.UUID, source string) {
	cur := m.currentPlayer()
	if m.Phase != PhasePlayerTurn || cur == nil || cur.ID != playerID {
		m.rejectAction(playerID, "It is not your turn to draw.")
		return
	}
	if cur.DrawnCard != nil {
		m.rejectAction(playerID, "You have already drawn this turn.")
		return
	}

	fromDiscard := source == "discard"
	var card *models.Card
	if fromDiscard {
		card = m.popDiscardPile()
		if card == nil {
			m.rejectAction(playerID, "The discard pile is empty.")
			return
		}
	} else {
		card = m.popDrawPile()
		if card == nil {
			m.rejectAction(playerID, "No cards are left to draw.")
			return
		}
	}

	cur.DrawnCard = card
	cur.Hand = append(cur.Hand, card)
	cur.Status = models.StatusPlayingCard
	idx := len(cur.Hand) - 1
	m.noteOwnDraw(cur, card, fromDiscard)

	m.logAction(playerID, string(EventPlayerDraw), map[string]interface{}{
		"card_id": card.ID.String(),
		"source":  source,
	})
	// The table sees which identity moved; the face is public only when it
	// came off the discard pile.
	m.fireEvent(MatchEvent{
		Type:    EventPlayerDraw,
		Player:  &EventPlayer{ID: cur.ID},
		Card:    buildEventCard(&cardRef{card: card, idx: idx, owner: cur.ID}, fromDiscard),
		Payload: map[string]interface{}{"source": source, "drawPileSize": len(m.DrawPile)},
	})
	m.fireEventToPlayer(cur.ID, MatchEvent{
		Type: EventPrivateDraw,
		Card: buildEventCard(&cardRef{card: card, idx: idx, owner: cur.ID}, true),
	})
}

// HandlePlayCard plays one card face-up onto the discard pile: either the
// drawn card itself or any unlocked hand card, in which case the drawn card
// drops face-down into the vacated slot. Assumes lock is held.
func (m *Match) HandlePlayCard(playerID uuid.UUID, cardID uuid.UUID) {
	cur := m.currentPlayer()
	if m.Phase != PhasePlayerTurn || cur == nil || cur.ID != playerID {
		m.rejectAction(playerID, "It is not your turn to play.")
		return
	}
	if cur.DrawnCard == nil {
		m.rejectAction(playerID, "Draw a card before playing.")
		return
	}
	card, idx := cur.HandCard(cardID)
	if card == nil || idx < 0 {
		m.rejectAction(playerID, "That card is not in your hand.")
		return
	}
	if cur.IsCollected(cardID) {
		m.rejectAction(playerID, "Collected cards are locked and cannot be played.")
		return
	}
	m.playCard(cur, cardID)
}

// playCard moves the card onto the discard pile, relocating the held drawn
// card into the vacated slot when a different hand card was chosen, then
// opens the same-rank window. Assumes lock is held.
func (m *Match) playCard(p *models.Player, cardID uuid.UUID) {
	card, idx := p.HandCard(cardID)
	if card == nil {
		return
	}
	drawn := p.DrawnCard

	if drawn != nil && drawn.ID != card.ID {
		// Relocate the drawn card face-down into the played card's slot and
		// retire its trailing slot.
		di := lastHandIndexOf(p, drawn.ID)
		p.Hand[idx] = drawn
		if di >= 0 && di != idx {
			removeHandSlot(p, di)
		}
	} else {
		removeHandSlot(p, idx)
	}
	p.DrawnCard = nil
	p.Status = models.StatusWaiting

	m.DiscardPile = append(m.DiscardPile, card)
	m.noteCardPlayed(card)

	m.logAction(p.ID, string(EventPlayerPlay), map[string]interface{}{
		"card_id": card.ID.String(),
		"rank":    card.Rank,
	})
	m.fireEvent(MatchEvent{
		Type:   EventPlayerPlay,
		Player: &EventPlayer{ID: p.ID},
		Card:   buildEventCard(&cardRef{card: card, idx: idx, owner: p.ID}, true),
	})

	if power := card.Special(); power != "" {
		m.queueSpecial(p.ID, card.ID, power)
	}
	m.openSameRankWindow(card.Rank)
}

// HandleCollectFromDiscard moves the top discard into the acting player's
// collection when its rank matches their nomination. The card re-enters the
// hand face-down but is locked: it can never again be played, swapped or
// counted for points. Available outside the suspension windows to any player.
// Assumes lock is held.
func (m *Match) HandleCollectFromDiscard(playerID uuid.UUID) {
	p := m.playerByID(playerID)
	if p == nil {
		return
	}
	if m.Phase == PhaseSameRank || m.Phase == PhaseInitialPeek {
		m.rejectAction(playerID, "You cannot collect right now.")
		return
	}
	top := m.discardTop()
	if top == nil {
		m.rejectAction(playerID, "The discard pile is empty.")
		return
	}
	if !p.MatchesCollectionRank(top.Rank) {
		m.rejectAction(playerID, "The top card does not match your collection rank.")
		return
	}

	card := m.popDiscardPile()
	p.CollectionCards = append(p.CollectionCards, card)
	// The copy occupies a fresh slot at the end of the hand; blank slots stay
	// reserved for penalty insertions.
	p.Hand = append(p.Hand, card)
	idx := len(p.Hand) - 1

	// The grab happened face-up, so every seat gets to remember where the
	// card went.
	for _, o := range m.Players {
		o.Remember(p.ID, card)
	}

	m.logAction(playerID, string(EventCollectSuccess), map[string]interface{}{
		"card_id": card.ID.String(),
		"rank":    card.Rank,
		"total":   len(p.CollectionCards),
	})
	m.fireEvent(MatchEvent{
		Type:    EventCollectSuccess,
		Player:  &EventPlayer{ID: p.ID},
		Card:    buildEventCard(&cardRef{card: card, idx: idx, owner: p.ID}, true),
		Payload: map[string]interface{}{"total": len(p.CollectionCards)},
	})

	if len(p.CollectionCards) >= startingHandSize {
		m.EndMatch(p)
	}
}

// advanceTurn rotates to the next eligible seat, ending the match instead
// when a win condition holds or the final round has come back to its caller.
// Assumes lock is held.
func (m *Match) advanceTurn() {
	if m.GameOver {
		return
	}
	if w := m.winnerByState(); w != nil {
		m.EndMatch(w)
		return
	}

	m.TurnID++
	for i := 0; i < len(m.Players); i++ {
		m.CurrentPlayerIndex = (m.CurrentPlayerIndex + 1) % len(m.Players)
		next := m.Players[m.CurrentPlayerIndex]
		if m.FinalRoundCalled && next.ID == m.FinalRoundCallerID {
			m.EndMatch(nil)
			return
		}
		if next.IsHuman && !next.Connected {
			continue
		}
		m.beginTurn()
		return
	}
	// Every seat is gone.
	m.EndMatch(nil)
}

func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, bool) {
	if payload == nil {
		return uuid.Nil, false
	}
	s, ok := payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func payloadString(payload map[string]interface{}, key string) (string, bool) {
	if payload == nil {
		return "", false
	}
	s, ok := payload[key].(string)
	return s, ok
}
