package models

// MatchAction captures a player's in-game move as received from transport.
type MatchAction struct {
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload"`
}
