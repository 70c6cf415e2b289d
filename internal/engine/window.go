// internal/engine/window.go
package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// openSameRankWindow suspends the match for the fixed interjection window
// after a card lands on the discard pile. Every computer seat gets exactly
// one decision, scheduled at a random offset inside the window in randomized
// seat order; the close timer waits for the whole group before the window is
// considered closed. Assumes lock is held.
func (m *Match) openSameRankWindow(rank string) {
	if m.GameOver {
		return
	}
	m.Phase = PhaseSameRank
	m.windowEpoch++
	epoch := m.windowEpoch

	for _, p := range m.Players {
		p.Status = models.StatusSameRankWindow
	}
	m.logAction(uuid.Nil, string(EventSameRankWindowOpen), map[string]interface{}{"rank": rank})
	m.fireEvent(MatchEvent{
		Type: EventSameRankWindowOpen,
		Payload: map[string]interface{}{
			"rank":       rank,
			"durationMs": m.SameRankWindow.Milliseconds(),
		},
	})

	var interjectors sync.WaitGroup
	if m.Decisions != nil {
		for _, i := range m.rng.Perm(len(m.Players)) {
			p := m.Players[i]
			if p.IsHuman {
				continue
			}
			interjectors.Add(1)
			time.AfterFunc(m.randomOffsetWithin(m.SameRankWindow), func() {
				defer interjectors.Done()
				m.Mu.Lock()
				defer m.Mu.Unlock()
				// The window this decision belongs to may already be gone.
				if m.GameOver || m.Phase != PhaseSameRank || m.windowEpoch != epoch {
					return
				}
				m.computerSameRank(p)
			})
		}
	}

	m.resetTimer(&m.sameRankTimer, m.SameRankWindow, func() {
		// All computer interjections must have been applied (or skipped)
		// before the window may close.
		interjectors.Wait()
		m.Mu.Lock()
		defer m.Mu.Unlock()
		m.closeSameRankWindowLocked(epoch)
	})
}

// randomOffsetWithin picks a uniform offset in [0, d). Assumes lock is held
// (rng access).
func (m *Match) randomOffsetWithin(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(m.rng.Int63n(int64(d)))
}

// computerSameRank runs one computer seat's interjection decision against the
// live top of the discard pile. Assumes lock is held.
func (m *Match) computerSameRank(p *models.Player) {
	top := m.discardTop()
	if top == nil {
		return
	}
	cardID := m.Decisions.SameRank(m.decisionView(p), top.Rank)
	if cardID == uuid.Nil {
		return
	}
	m.HandleSameRankPlay(p.ID, cardID)
}

// closeSameRankWindowLocked transitions out of the window exactly once: a
// second close attempt (stale timer, race with a disposal) sees the bumped
// epoch or changed phase and does nothing. Assumes lock is held.
func (m *Match) closeSameRankWindowLocked(epoch int) {
	if m.GameOver || m.Phase != PhaseSameRank || m.windowEpoch != epoch {
		return
	}
	m.windowEpoch++

	for _, p := range m.Players {
		p.Status = models.StatusWaiting
	}
	m.logAction(uuid.Nil, string(EventSameRankWindowClose), nil)
	m.fireEvent(MatchEvent{Type: EventSameRankWindowClose})

	if len(m.SpecialQueue) > 0 {
		m.Phase = PhaseSpecialCards
		m.computerCollectSweep()
		if m.GameOver {
			return
		}
		m.processNextSpecial()
		return
	}

	// Collection grabs are legal again the moment the window closes; give
	// computer seats their look before the next turn begins.
	m.Phase = PhasePlayerTurn
	m.computerCollectSweep()
	if m.GameOver {
		return
	}
	m.advanceTurn()
}

// computerCollectSweep lets each computer seat, in randomized order, grab the
// top discard into its collection when the rank matches. Each grab exposes a
// new top card, so the sweep re-reads the pile per seat. Assumes lock is held.
func (m *Match) computerCollectSweep() {
	if m.Decisions == nil {
		return
	}
	for _, i := range m.rng.Perm(len(m.Players)) {
		p := m.Players[i]
		if p.IsHuman {
			continue
		}
		top := m.discardTop()
		if top == nil {
			return
		}
		if !p.MatchesCollectionRank(top.Rank) {
			continue
		}
		if m.Decisions.CollectFromDiscard(m.decisionView(p), top) {
			m.HandleCollectFromDiscard(p.ID)
			if m.GameOver {
				return
			}
		}
	}
}

// HandleSameRankPlay attempts an out-of-turn interjection against the current
// top of the discard pile. A card that already left the hand fails silently
// (a faster interjector beat this one); a wrong-rank attempt costs a penalty
// card but is expected gameplay, not an error. Assumes lock is held.
func (m *Match) HandleSameRankPlay(playerID uuid.UUID, cardID uuid.UUID) {
	p := m.playerByID(playerID)
	if p == nil {
		return
	}
	if m.Phase != PhaseSameRank {
		m.rejectAction(playerID, "No same-rank window is open.")
		return
	}
	card, idx := p.HandCard(cardID)
	if card == nil || idx < 0 {
		m.log.WithFields(map[string]interface{}{
			"player": playerID,
			"card":   cardID,
		}).Debug("same-rank attempt on a card no longer in hand")
		return
	}
	if p.IsCollected(cardID) {
		m.rejectAction(playerID, "Collected cards are locked and cannot be played.")
		return
	}
	top := m.discardTop()
	if top == nil {
		return
	}

	if !strings.EqualFold(card.Rank, top.Rank) {
		m.applySameRankPenalty(p, card)
		return
	}

	removeHandSlot(p, idx)
	m.DiscardPile = append(m.DiscardPile, card)
	m.noteCardPlayed(card)

	m.logAction(playerID, string(EventSameRankSuccess), map[string]interface{}{
		"card_id": card.ID.String(),
		"rank":    card.Rank,
	})
	m.fireEvent(MatchEvent{
		Type:   EventSameRankSuccess,
		Player: &EventPlayer{ID: p.ID},
		Card:   buildEventCard(&cardRef{card: card, idx: idx, owner: p.ID}, true),
	})

	if power := card.Special(); power != "" {
		m.queueSpecial(p.ID, card.ID, power)
	}
	// A successful interjection never restarts or extends the window.
}

// applySameRankPenalty draws one card into the offender's hand, preferring a
// blank slot. The penalty card is face-down even to its new owner.
// Assumes lock is held.
func (m *Match) applySameRankPenalty(p *models.Player, attempted *models.Card) {
	penalty := m.popDrawPile()
	if penalty == nil {
		m.rejectAction(p.ID, "No penalty card could be drawn.")
		return
	}
	placeInSlot(p, firstBlankSlot(p), penalty)
	idx := handIndexOf(p, penalty.ID)

	m.logAction(p.ID, string(EventSameRankPenalty), map[string]interface{}{
		"attempted_rank": attempted.Rank,
		"penalty_card":   penalty.ID.String(),
	})
	m.fireEvent(MatchEvent{
		Type:    EventSameRankPenalty,
		Player:  &EventPlayer{ID: p.ID},
		Card:    buildEventCard(&cardRef{card: penalty, idx: idx, owner: p.ID}, false),
		Payload: map[string]interface{}{"attemptedRank": attempted.Rank},
	})
	m.fireEventToPlayer(p.ID, MatchEvent{
		Type: EventPrivateRankPenalty,
		Card: buildEventCard(&cardRef{card: penalty, idx: idx, owner: p.ID}, false),
	})
}
