// internal/models/player.go
package models

import (
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Difficulty grades a computer player's play quality. Humans have none.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// PlayerStatus reflects what a player is currently allowed (or expected) to do.
type PlayerStatus string

const (
	StatusWaiting        PlayerStatus = "waiting"
	StatusDrawingCard    PlayerStatus = "drawing_card"
	StatusPlayingCard    PlayerStatus = "playing_card"
	StatusSameRankWindow PlayerStatus = "same_rank_window"
	StatusJackSwap       PlayerStatus = "jack_swap"
	StatusQueenPeek      PlayerStatus = "queen_peek"
	StatusPeeking        PlayerStatus = "peeking"
	StatusInitialPeek    PlayerStatus = "initial_peek"
)

// Player holds one seat's full state for the duration of a match.
//
// Hand is an index-stable slot sequence: a nil entry is a blank slot (empty
// but positionally present). CollectionCards is the registry of cards this
// player has permanently collected; they remain in the hand face-down but are
// never playable again. KnownCards is this player's belief about specific
// face-down cards, keyed owner id -> card id (self-knowledge included).
type Player struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	IsHuman    bool       `json:"isHuman"`
	Difficulty Difficulty `json:"difficulty,omitempty"`

	Hand            []*Card `json:"hand"`
	CollectionRank  string  `json:"collectionRank"`
	CollectionCards []*Card `json:"collectionCards"`

	KnownCards map[uuid.UUID]map[uuid.UUID]*Card `json:"-"`

	Status PlayerStatus `json:"status"`

	// DrawnCard holds the card drawn this turn until it is played or
	// relocated into the slot vacated by the played card.
	DrawnCard *Card `json:"-"`

	// CardToPeek is the transient one-card reveal after a Queen peek.
	CardToPeek *Card `json:"-"`

	PeekedInitial bool            `json:"-"`
	CalledFinal   bool            `json:"-"`
	Connected     bool            `json:"connected"`
	Conn          *websocket.Conn `json:"-"`
}

// HandCard returns the card with the given id and its slot index, or nil, -1.
// Blank slots are skipped.
func (p *Player) HandCard(cardID uuid.UUID) (*Card, int) {
	for i, c := range p.Hand {
		if c != nil && c.ID == cardID {
			return c, i
		}
	}
	return nil, -1
}

// IsCollected reports whether the card id is in this player's collection
// registry (and therefore locked: present in hand but never playable).
func (p *Player) IsCollected(cardID uuid.UUID) bool {
	for _, c := range p.CollectionCards {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

// MatchesCollectionRank reports whether rank equals the player's collection
// rank, ignoring case.
func (p *Player) MatchesCollectionRank(rank string) bool {
	return p.CollectionRank != "" && strings.EqualFold(rank, p.CollectionRank)
}

// Knows returns the card the player believes sits in owner's hand under
// cardID, or nil if it has no such belief.
func (p *Player) Knows(ownerID, cardID uuid.UUID) *Card {
	bucket, ok := p.KnownCards[ownerID]
	if !ok {
		return nil
	}
	return bucket[cardID]
}

// Remember records a belief that owner holds card.
func (p *Player) Remember(ownerID uuid.UUID, card *Card) {
	if p.KnownCards == nil {
		p.KnownCards = make(map[uuid.UUID]map[uuid.UUID]*Card)
	}
	bucket, ok := p.KnownCards[ownerID]
	if !ok {
		bucket = make(map[uuid.UUID]*Card)
		p.KnownCards[ownerID] = bucket
	}
	bucket[card.ID] = card
}

// Forget drops any belief about cardID, regardless of presumed owner.
func (p *Player) Forget(cardID uuid.UUID) {
	for _, bucket := range p.KnownCards {
		delete(bucket, cardID)
	}
}
