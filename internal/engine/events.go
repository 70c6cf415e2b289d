// internal/engine/events.go
package engine

import (
	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// MatchEventType is an enum-like type for broadcasting match actions.
type MatchEventType string

const (
	EventMatchStart          MatchEventType = "match_start"
	EventPrivateInitialPeek  MatchEventType = "private_initial_peek"  // Private reveal of the two peeked cards
	EventPlayerTurn          MatchEventType = "player_turn"           // Public notification of whose turn it is
	EventPlayerDraw          MatchEventType = "player_draw"           // Public draw notification (card id only)
	EventPrivateDraw         MatchEventType = "private_draw"          // Private draw details for the drawing human
	EventPlayerPlay          MatchEventType = "player_play"           // Public play onto the discard pile (full card)
	EventSameRankWindowOpen  MatchEventType = "same_rank_window_open"
	EventSameRankWindowClose MatchEventType = "same_rank_window_close"
	EventSameRankSuccess     MatchEventType = "same_rank_success"
	EventSameRankPenalty     MatchEventType = "same_rank_penalty"         // Public notification of penalty draw
	EventPrivateRankPenalty  MatchEventType = "private_same_rank_penalty" // Private penalty card details
	EventSpecialPending      MatchEventType = "special_pending"           // A queued special power awaits its owner's decision
	EventJackSwap            MatchEventType = "jack_swap"                 // Public swap notification (ids and owners only)
	EventQueenPeek           MatchEventType = "queen_peek"                // Public peek notification (obfuscated)
	EventPrivateQueenPeek    MatchEventType = "private_queen_peek"        // Private reveal for the peeking player
	EventCollectSuccess      MatchEventType = "collect_success"
	EventFinalRoundCalled    MatchEventType = "final_round_called"
	EventActionRejected      MatchEventType = "action_rejected" // Private rejected-action signal with a reason
	EventDrawPileReshuffle   MatchEventType = "draw_pile_reshuffle"
	EventPrivateSyncState    MatchEventType = "private_sync_state" // Full per-viewer snapshot
	EventMatchEnd            MatchEventType = "match_end"
)

// EventPlayer identifies a player within event payloads.
type EventPlayer struct {
	ID uuid.UUID `json:"id"`
}

// EventCard identifies a card within event payloads. Rank/Suit/Points are set
// only when the event reveals them; Idx is a pointer so index zero survives
// omitempty.
type EventCard struct {
	ID     uuid.UUID    `json:"id"`
	Rank   string       `json:"rank,omitempty"`
	Suit   string       `json:"suit,omitempty"`
	Points int          `json:"points,omitempty"`
	Idx    *int         `json:"idx,omitempty"`
	Owner  *EventPlayer `json:"owner,omitempty"`
}

// MatchEvent is the outbound unit broadcast to clients on every externally
// visible change. Consumers that need the complete picture reconcile against
// the State snapshot carried by private_sync_state events.
type MatchEvent struct {
	Type    MatchEventType         `json:"type"`
	Player  *EventPlayer           `json:"player,omitempty"`
	Card    *EventCard             `json:"card,omitempty"`
	Card1   *EventCard             `json:"card1,omitempty"`
	Card2   *EventCard             `json:"card2,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *ViewState             `json:"state,omitempty"`
}

// fireEvent broadcasts an event to all connected players.
// Assumes lock is held.
func (m *Match) fireEvent(ev MatchEvent) {
	if m.BroadcastFn != nil {
		m.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player.
// Assumes lock is held.
func (m *Match) fireEventToPlayer(playerID uuid.UUID, ev MatchEvent) {
	if m.BroadcastToPlayerFn == nil {
		return
	}
	p := m.playerByID(playerID)
	if p != nil && p.IsHuman && p.Connected {
		m.BroadcastToPlayerFn(playerID, ev)
	}
}

// rejectAction surfaces a precondition violation to the actor with a
// human-readable reason. State is otherwise unchanged.
// Assumes lock is held.
func (m *Match) rejectAction(playerID uuid.UUID, reason string) {
	m.log.WithFields(map[string]interface{}{
		"player": playerID,
		"reason": reason,
	}).Debug("action rejected")
	m.fireEventToPlayer(playerID, MatchEvent{
		Type:    EventActionRejected,
		Payload: map[string]interface{}{"message": reason},
	})
	m.logAction(playerID, string(EventActionRejected), map[string]interface{}{"reason": reason})
}

func buildEventCard(c *cardRef, reveal bool) *EventCard {
	if c == nil || c.card == nil {
		return nil
	}
	ev := &EventCard{ID: c.card.ID}
	if c.idx >= 0 {
		idx := c.idx
		ev.Idx = &idx
	}
	if c.owner != uuid.Nil {
		ev.Owner = &EventPlayer{ID: c.owner}
	}
	if reveal {
		ev.Rank = c.card.Rank
		ev.Suit = c.card.Suit
		ev.Points = c.card.Points
	}
	return ev
}

// cardRef bundles a card with its presentation context for event building.
type cardRef struct {
	card  *models.Card
	idx   int
	owner uuid.UUID
}
