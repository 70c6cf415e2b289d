// internal/models/room.go
package models

import "github.com/google/uuid"

// RoomSeat describes one participant of a room about to become a match.
// Computer seats carry a difficulty; human seats leave it empty.
type RoomSeat struct {
	PlayerID   uuid.UUID  `json:"player_id"`
	Name       string     `json:"name"`
	IsHuman    bool       `json:"is_human"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// RoomMetadata is the payload handed to the engine when a room starts a
// match. Seat order becomes turn order.
type RoomMetadata struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Seats []RoomSeat `json:"seats"`

	// FinalRoundPenalty is added to a caller's score when their final-round
	// call does not win. Zero means the default of 1.
	FinalRoundPenalty int `json:"final_round_penalty,omitempty"`
}
