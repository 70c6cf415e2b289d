// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quartet-cards/quartet/internal/engine"
	"github.com/quartet-cards/quartet/internal/middleware"
	"github.com/quartet-cards/quartet/internal/models"
)

// MatchMessage is the incoming WebSocket message shape during a match. Type
// maps directly to an engine action type; Payload carries its arguments.
type MatchMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// MatchWSHandler upgrades the HTTP connection to WebSocket for a specific
// match instance: /match/ws/{match_id}?player_id={id}. It verifies the player
// belongs to the match, registers the connection, and runs the read loop.
func MatchWSHandler(logger *logrus.Logger, ms *MatchServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/match/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing match_id in path (/match/ws/{match_id})", http.StatusBadRequest)
			return
		}
		matchID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid match_id format", http.StatusBadRequest)
			return
		}
		playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
		if err != nil {
			http.Error(w, "Missing or invalid player_id query parameter", http.StatusBadRequest)
			return
		}

		m, ok := ms.Store.GetMatch(matchID)
		if !ok {
			http.Error(w, "Match not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"match"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for match %s: %v", matchID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "match" {
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'match' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		// Verify the player is actually seated at this match.
		seated := false
		m.Mu.Lock()
		for _, p := range m.Players {
			if p.ID == playerID && p.IsHuman {
				seated = true
				break
			}
		}
		if m.BroadcastFn == nil {
			m.BroadcastFn = createBroadcastFunc(m, logger)
		}
		if m.BroadcastToPlayerFn == nil {
			m.BroadcastToPlayerFn = createBroadcastToPlayerFunc(m, logger)
		}
		m.Mu.Unlock()
		if !seated {
			logger.Warnf("Player %s is not a human seat in match %s. Closing connection.", playerID, matchID)
			c.Close(websocket.StatusPolicyViolation, "You are not a player in this match.")
			return
		}

		// Attach the connection and send the viewer's snapshot.
		m.HandleReconnect(playerID, c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readMatchMessages(ctx, c, m, playerID, logger)

		m.HandleDisconnect(playerID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}

// createBroadcastFunc returns a function suitable for Match.BroadcastFn. It
// snapshots the connected players, then marshals and sends asynchronously so
// slow sockets never block engine logic.
func createBroadcastFunc(m *engine.Match, logger *logrus.Logger) func(ev engine.MatchEvent) {
	return func(ev engine.MatchEvent) {
		// Called while the match lock is held: collect targets, send later.
		var playersToSend []*models.Player
		for _, p := range m.Players {
			if p.IsHuman && p.Connected && p.Conn != nil {
				playersToSend = append(playersToSend, p)
			}
		}
		if len(playersToSend) == 0 {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for match %s: %v", ev.Type, m.ID, err)
			return
		}

		go func(players []*models.Player, data []byte, matchID uuid.UUID) {
			for _, pl := range players {
				if pl.Conn == nil {
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				err := pl.Conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					logger.Warnf("Failed to write broadcast message to player %s in match %s: %v", pl.ID, matchID, err)
				}
			}
		}(playersToSend, msgBytes, m.ID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// Match.BroadcastToPlayerFn.
func createBroadcastToPlayerFunc(m *engine.Match, logger *logrus.Logger) func(targetPlayerID uuid.UUID, ev engine.MatchEvent) {
	return func(targetPlayerID uuid.UUID, ev engine.MatchEvent) {
		// Called while the match lock is held.
		var targetConn *websocket.Conn
		for _, pl := range m.Players {
			if pl.ID == targetPlayerID {
				if pl.Connected && pl.Conn != nil {
					targetConn = pl.Conn
				}
				break
			}
		}
		if targetConn == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in match %s: %v", ev.Type, targetPlayerID, m.ID, err)
			return
		}
		go func(conn *websocket.Conn, data []byte) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Warnf("Failed to write private message to player %s in match %s: %v", targetPlayerID, m.ID, err)
			}
		}(targetConn, msgBytes)
	}
}

// readMatchMessages reads client messages until the connection drops and
// routes each one into the engine's action dispatcher.
func readMatchMessages(ctx context.Context, c *websocket.Conn, m *engine.Match, playerID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s in match %s.", playerID, m.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s in match %s.", playerID, m.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %s in match %s: %v", playerID, m.ID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg MatchMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		switch msg.Type {
		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})
		case "":
			sendWsError(ctx, c, "Missing action type.")
		default:
			m.ProcessPlayerAction(playerID, models.MatchAction{
				ActionType: msg.Type,
				Payload:    msg.Payload,
			})
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client with
// a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logrus.Warnf("Error writing WebSocket message: %v", err)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
