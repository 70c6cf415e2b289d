// internal/engine/snapshot.go
package engine

import (
	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// ViewCard is a card as one specific viewer is allowed to see it. Rank, suit
// and points are present only when the viewer legitimately knows the card.
type ViewCard struct {
	ID     uuid.UUID `json:"id"`
	Rank   string    `json:"rank,omitempty"`
	Suit   string    `json:"suit,omitempty"`
	Points int       `json:"points,omitempty"`
	Blank  bool      `json:"blank,omitempty"`
	Locked bool      `json:"locked,omitempty"`
}

// ViewPlayer is one seat in a viewer-specific snapshot. CollectionRank is
// disclosed only on the viewer's own entry.
type ViewPlayer struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name,omitempty"`
	IsHuman        bool                `json:"is_human"`
	Hand           []ViewCard          `json:"hand"`
	CollectionRank string              `json:"collection_rank,omitempty"`
	CollectionSize int                 `json:"collection_size"`
	Status         models.PlayerStatus `json:"status"`
	CalledFinal    bool                `json:"called_final,omitempty"`
	Connected      bool                `json:"connected"`
}

// ViewState is the full reconnect/refresh snapshot for one viewer. It carries
// exactly the information that viewer could have assembled from the event
// stream: public piles, obfuscated hands plus the viewer's own knowledge.
type ViewState struct {
	MatchID          uuid.UUID    `json:"match_id"`
	ViewerID         uuid.UUID    `json:"viewer_id"`
	Phase            Phase        `json:"phase"`
	TurnID           int          `json:"turn"`
	CurrentPlayerID  uuid.UUID    `json:"current_player_id"`
	DrawPileSize     int          `json:"draw_pile_size"`
	DiscardSize      int          `json:"discard_size"`
	DiscardTop       *ViewCard    `json:"discard_top,omitempty"`
	Players          []ViewPlayer `json:"players"`
	DrawnCard        *ViewCard    `json:"drawn_card,omitempty"`
	PeekCard         *ViewCard    `json:"peek_card,omitempty"`
	FinalRoundCalled bool         `json:"final_round_called,omitempty"`
}

// viewStateFor renders the match through one viewer's knowledge.
// Assumes lock is held.
func (m *Match) viewStateFor(viewerID uuid.UUID) ViewState {
	viewer := m.playerByID(viewerID)
	state := ViewState{
		MatchID:          m.ID,
		ViewerID:         viewerID,
		Phase:            m.Phase,
		TurnID:           m.TurnID,
		DrawPileSize:     len(m.DrawPile),
		DiscardSize:      len(m.DiscardPile),
		FinalRoundCalled: m.FinalRoundCalled,
	}
	if cur := m.currentPlayer(); cur != nil {
		state.CurrentPlayerID = cur.ID
	}
	if top := m.discardTop(); top != nil {
		state.DiscardTop = revealedViewCard(top)
	}
	for _, p := range m.Players {
		vp := ViewPlayer{
			ID:             p.ID,
			Name:           p.Name,
			IsHuman:        p.IsHuman,
			CollectionSize: len(p.CollectionCards),
			Status:         p.Status,
			CalledFinal:    p.CalledFinal,
			Connected:      p.Connected,
		}
		if viewer != nil && p.ID == viewer.ID {
			vp.CollectionRank = p.CollectionRank
		}
		for _, c := range p.Hand {
			vp.Hand = append(vp.Hand, m.viewCardFor(viewer, p, c))
		}
		state.Players = append(state.Players, vp)
	}
	if viewer != nil {
		if viewer.DrawnCard != nil {
			state.DrawnCard = revealedViewCard(viewer.DrawnCard)
		}
		if viewer.CardToPeek != nil {
			state.PeekCard = revealedViewCard(viewer.CardToPeek)
		}
	}
	return state
}

// viewCardFor renders one hand slot of owner through viewer's knowledge.
func (m *Match) viewCardFor(viewer, owner *models.Player, c *models.Card) ViewCard {
	if c == nil {
		return ViewCard{Blank: true}
	}
	vc := ViewCard{ID: c.ID, Locked: owner.IsCollected(c.ID)}
	if viewer == nil {
		return vc
	}
	if known := viewer.Knows(owner.ID, c.ID); known != nil {
		vc.Rank = known.Rank
		vc.Suit = known.Suit
		vc.Points = known.Points
	}
	return vc
}

func revealedViewCard(c *models.Card) *ViewCard {
	return &ViewCard{ID: c.ID, Rank: c.Rank, Suit: c.Suit, Points: c.Points}
}
