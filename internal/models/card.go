// internal/models/card.go
package models

import "github.com/google/uuid"

// SpecialPower identifies the deferred ability a card grants when played.
type SpecialPower string

const (
	PowerJackSwap  SpecialPower = "jack_swap"
	PowerQueenPeek SpecialPower = "queen_peek"
)

// Card is an immutable card record. ID is unique and stable for the match.
// Rank "O" is the joker (avoids conflict with Jack "J").
type Card struct {
	ID     uuid.UUID `json:"id"`
	Rank   string    `json:"rank"`
	Suit   string    `json:"suit"`
	Points int       `json:"points"`
}

// Special returns the card's special power, or "" for cards without one.
func (c *Card) Special() SpecialPower {
	switch c.Rank {
	case "J":
		return PowerJackSwap
	case "Q":
		return PowerQueenPeek
	default:
		return ""
	}
}
