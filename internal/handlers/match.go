// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// createMatchRequest is the POST /match/create body. Seats are listed in
// turn order; computer seats carry a difficulty.
type createMatchRequest struct {
	Name              string `json:"name"`
	FinalRoundPenalty int    `json:"final_round_penalty,omitempty"`
	Seats             []struct {
		Name       string `json:"name"`
		IsHuman    bool   `json:"is_human"`
		Difficulty string `json:"difficulty,omitempty"`
	} `json:"seats"`
}

type createMatchResponse struct {
	MatchID uuid.UUID         `json:"match_id"`
	Seats   []models.RoomSeat `json:"seats"`
}

// CreateMatchHandler starts a new match. Each seat is assigned a fresh player
// id; human clients use theirs to attach over the match websocket.
func CreateMatchHandler(ms *MatchServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if len(req.Seats) < 2 {
			http.Error(w, "A match needs at least two seats", http.StatusBadRequest)
			return
		}

		room := models.RoomMetadata{
			Name:              req.Name,
			FinalRoundPenalty: req.FinalRoundPenalty,
		}
		room.ID, _ = uuid.NewRandom()
		for _, s := range req.Seats {
			seat := models.RoomSeat{
				Name:       s.Name,
				IsHuman:    s.IsHuman,
				Difficulty: models.Difficulty(s.Difficulty),
			}
			seat.PlayerID, _ = uuid.NewRandom()
			room.Seats = append(room.Seats, seat)
		}

		m := ms.CreateMatchFromRoom(room)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createMatchResponse{
			MatchID: m.ID,
			Seats:   room.Seats,
		})
	}
}
