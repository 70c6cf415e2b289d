// internal/engine/specials.go
package engine

import (
	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// queueSpecial appends a special-power event in play order. Entries are never
// executed immediately: they wait for the turn's same-rank window to close so
// that interjections (which may queue further specials) are captured first.
// Assumes lock is held.
func (m *Match) queueSpecial(playerID, cardID uuid.UUID, power models.SpecialPower) {
	m.SpecialQueue = append(m.SpecialQueue, SpecialCardEvent{
		PlayerID: playerID,
		CardID:   cardID,
		Power:    power,
	})
	m.log.WithFields(map[string]interface{}{
		"player": playerID,
		"power":  power,
		"queued": len(m.SpecialQueue),
	}).Debug("special power queued")
}

// cardOnDiscard reports whether the card id is anywhere in the discard pile.
func (m *Match) cardOnDiscard(cardID uuid.UUID) bool {
	for _, c := range m.DiscardPile {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

// processNextSpecial pops and activates the head of the special queue, or
// leaves the special window and advances the turn when the queue is drained.
// Unprocessable entries (owner gone, card no longer resolvable on the discard
// pile) are skipped without halting the match. Assumes lock is held.
func (m *Match) processNextSpecial() {
	if m.GameOver {
		return
	}
	for _, p := range m.Players {
		if p.Status == models.StatusPeeking {
			p.Status = models.StatusWaiting
		}
	}
	if len(m.SpecialQueue) == 0 {
		m.pendingSpecial = nil
		m.Phase = PhasePlayerTurn
		m.advanceTurn()
		return
	}

	ev := m.SpecialQueue[0]
	m.SpecialQueue = m.SpecialQueue[1:]

	owner := m.playerByID(ev.PlayerID)
	if owner == nil || m.lookupCard(ev.CardID) == nil || !m.cardOnDiscard(ev.CardID) {
		m.log.WithFields(map[string]interface{}{
			"player": ev.PlayerID,
			"card":   ev.CardID,
		}).Warn("skipping unprocessable special event")
		m.processNextSpecial()
		return
	}

	m.Phase = PhaseSpecialCards
	m.pendingSpecial = &ev
	m.specialEpoch++
	epoch := m.specialEpoch

	switch ev.Power {
	case models.PowerJackSwap:
		owner.Status = models.StatusJackSwap
	case models.PowerQueenPeek:
		owner.Status = models.StatusQueenPeek
	}

	m.logAction(ev.PlayerID, string(EventSpecialPending), map[string]interface{}{"power": string(ev.Power)})
	m.fireEvent(MatchEvent{
		Type:   EventSpecialPending,
		Player: &EventPlayer{ID: ev.PlayerID},
		Payload: map[string]interface{}{
			"power":      string(ev.Power),
			"durationMs": m.SpecialDecision.Milliseconds(),
		},
	})

	if !owner.IsHuman {
		m.resetTimer(&m.cosmeticTimer, m.CosmeticDelay, func() {
			m.Mu.Lock()
			defer m.Mu.Unlock()
			if m.GameOver || m.pendingSpecial == nil || m.specialEpoch != epoch {
				return
			}
			m.runComputerSpecial(owner, ev)
		})
	}

	// Decision timeout: the power is forfeited and the queue moves on.
	m.resetTimer(&m.specialTimer, m.SpecialDecision, func() {
		m.Mu.Lock()
		defer m.Mu.Unlock()
		if m.GameOver || m.pendingSpecial == nil || m.specialEpoch != epoch {
			return
		}
		m.log.WithField("player", ev.PlayerID).Info("special decision timed out, skipping power")
		m.finishSpecial(owner)
	})
}

// runComputerSpecial resolves a computer seat's pending power through the
// decision maker. An unresolvable or declined target skips the power.
// Assumes lock is held.
func (m *Match) runComputerSpecial(owner *models.Player, ev SpecialCardEvent) {
	if m.Decisions == nil {
		m.finishSpecial(owner)
		return
	}
	switch ev.Power {
	case models.PowerJackSwap:
		first, second := m.Decisions.JackSwap(m.decisionView(owner))
		if first.CardID == uuid.Nil || second.CardID == uuid.Nil {
			m.finishSpecial(owner)
			return
		}
		m.HandleJackSwap(owner.ID, first, second)
	case models.PowerQueenPeek:
		target := m.Decisions.QueenPeek(m.decisionView(owner))
		if target == uuid.Nil {
			m.finishSpecial(owner)
			return
		}
		m.HandleQueenPeek(owner.ID, target)
	default:
		m.finishSpecial(owner)
	}
}

// pendingSpecialFor validates that playerID owns the currently pending power
// of the given kind, rejecting with a reason otherwise. Assumes lock is held.
func (m *Match) pendingSpecialFor(playerID uuid.UUID, power models.SpecialPower) *SpecialCardEvent {
	if m.Phase != PhaseSpecialCards || m.pendingSpecial == nil {
		m.rejectAction(playerID, "No special power is awaiting a decision.")
		return nil
	}
	if m.pendingSpecial.PlayerID != playerID {
		m.rejectAction(playerID, "This special power is not yours to use.")
		return nil
	}
	if m.pendingSpecial.Power != power {
		m.rejectAction(playerID, "That is not the pending power.")
		return nil
	}
	return m.pendingSpecial
}

// locateSwapTarget resolves a swap target to the named owner's seat, the card
// and its hand index. A nil player means the target could not be resolved or
// is locked; the reject has already been sent. Assumes lock is held.
func (m *Match) locateSwapTarget(actorID uuid.UUID, t SwapTarget) (*models.Player, *models.Card, int) {
	owner := m.playerByID(t.PlayerID)
	if owner == nil {
		m.rejectAction(actorID, "Swap target names an unknown player.")
		return nil, nil, -1
	}
	card, idx := owner.HandCard(t.CardID)
	if card == nil {
		m.rejectAction(actorID, "Swap target is not in that player's hand.")
		return nil, nil, -1
	}
	if owner.IsCollected(t.CardID) {
		m.rejectAction(actorID, "That card is locked in a collection.")
		return nil, nil, -1
	}
	return owner, card, idx
}

// HandleJackSwap exchanges two cards between the hands they sit in. Any two
// seats may be named, the acting player's own included, so a swap can shuffle
// cards between two opponents. The swap is blind: card faces are not
// revealed, and each observer's knowledge of the two moved cards decays
// independently. Assumes lock is held.
func (m *Match) HandleJackSwap(playerID uuid.UUID, first, second SwapTarget) {
	if m.pendingSpecialFor(playerID, models.PowerJackSwap) == nil {
		return
	}
	p := m.playerByID(playerID)

	if first.CardID == second.CardID {
		m.rejectAction(playerID, "A swap needs two distinct cards.")
		return
	}
	firstOwner, firstCard, firstIdx := m.locateSwapTarget(playerID, first)
	if firstOwner == nil {
		return
	}
	secondOwner, secondCard, secondIdx := m.locateSwapTarget(playerID, second)
	if secondOwner == nil {
		return
	}

	firstOwner.Hand[firstIdx], secondOwner.Hand[secondIdx] = secondCard, firstCard
	m.noteSwap(firstOwner, firstCard, secondOwner, secondCard)

	m.logAction(playerID, string(EventJackSwap), map[string]interface{}{
		"first_card":    first.CardID.String(),
		"first_player":  firstOwner.ID.String(),
		"second_card":   second.CardID.String(),
		"second_player": secondOwner.ID.String(),
	})
	m.fireEvent(MatchEvent{
		Type:   EventJackSwap,
		Player: &EventPlayer{ID: playerID},
		Card1:  buildEventCard(&cardRef{card: secondCard, idx: firstIdx, owner: firstOwner.ID}, false),
		Card2:  buildEventCard(&cardRef{card: firstCard, idx: secondIdx, owner: secondOwner.ID}, false),
	})

	m.finishSpecial(p)
}

// HandleQueenPeek lets the acting player privately look at one opponent card.
// Assumes lock is held.
func (m *Match) HandleQueenPeek(playerID uuid.UUID, targetCardID uuid.UUID) {
	if m.pendingSpecialFor(playerID, models.PowerQueenPeek) == nil {
		return
	}
	p := m.playerByID(playerID)

	var owner *models.Player
	var card *models.Card
	idx := -1
	for _, o := range m.Players {
		if o.ID == playerID {
			continue
		}
		if c, i := o.HandCard(targetCardID); c != nil {
			owner, card, idx = o, c, i
			break
		}
	}
	if owner == nil {
		m.rejectAction(playerID, "Peek target is not in any opponent's hand.")
		return
	}
	if owner.IsCollected(targetCardID) {
		m.rejectAction(playerID, "That card is locked in a collection.")
		return
	}

	m.notePeek(p, owner, card)
	p.CardToPeek = card
	p.Status = models.StatusPeeking

	m.logAction(playerID, string(EventQueenPeek), map[string]interface{}{
		"card_id": targetCardID.String(),
		"owner":   owner.ID.String(),
	})
	m.fireEvent(MatchEvent{
		Type:   EventQueenPeek,
		Player: &EventPlayer{ID: playerID},
		Card:   buildEventCard(&cardRef{card: card, idx: idx, owner: owner.ID}, false),
	})
	m.fireEventToPlayer(playerID, MatchEvent{
		Type: EventPrivateQueenPeek,
		Card: buildEventCard(&cardRef{card: card, idx: idx, owner: owner.ID}, true),
	})

	m.finishSpecial(p)
}

// HandleSkipSpecial forfeits the pending power voluntarily.
// Assumes lock is held.
func (m *Match) HandleSkipSpecial(playerID uuid.UUID) {
	if m.Phase != PhaseSpecialCards || m.pendingSpecial == nil || m.pendingSpecial.PlayerID != playerID {
		m.rejectAction(playerID, "No special power of yours is awaiting a decision.")
		return
	}
	m.finishSpecial(m.playerByID(playerID))
}

// finishSpecial retires the pending entry, invalidates its timers and, after
// a short cosmetic delay, moves to the next queue entry (or out of the
// special window). Assumes lock is held.
func (m *Match) finishSpecial(owner *models.Player) {
	m.pendingSpecial = nil
	m.specialEpoch++
	if m.specialTimer != nil {
		m.specialTimer.Stop()
	}
	// A peeking player keeps that status while the cosmetic delay plays out;
	// processNextSpecial resets it when the queue moves on.
	if owner != nil && owner.Status != models.StatusPeeking {
		owner.Status = models.StatusWaiting
	}
	m.resetTimer(&m.cosmeticTimer, m.CosmeticDelay, func() {
		m.Mu.Lock()
		defer m.Mu.Unlock()
		if m.GameOver || m.Phase != PhaseSpecialCards {
			return
		}
		m.processNextSpecial()
	})
}
