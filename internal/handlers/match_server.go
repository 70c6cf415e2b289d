// internal/handlers/match_server.go
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quartet-cards/quartet/internal/bot"
	"github.com/quartet-cards/quartet/internal/database"
	"github.com/quartet-cards/quartet/internal/engine"
	"github.com/quartet-cards/quartet/internal/models"
)

// endedMatchRetention is how long a finished match stays queryable before it
// is evicted from the in-memory store.
const endedMatchRetention = 5 * time.Minute

// MatchServer bundles the live match registry with the shared computer-seat
// decision engine.
type MatchServer struct {
	Store     *engine.MatchStore
	Decisions engine.DecisionMaker
	Logger    *logrus.Logger
}

func NewMatchServer(logger *logrus.Logger) *MatchServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &MatchServer{
		Store:     engine.NewMatchStore(),
		Decisions: bot.New(nil, logger),
		Logger:    logger,
	}
}

// CreateMatchFromRoom builds a match from room metadata, registers it and
// deals the opening hands. Results are persisted when the match ends, and the
// instance is evicted from the store after a retention window.
func (ms *MatchServer) CreateMatchFromRoom(room models.RoomMetadata) *engine.Match {
	m := engine.NewMatch(room, ms.Logger)
	m.Decisions = ms.Decisions
	m.OnMatchEnd = func(matchID uuid.UUID, winner uuid.UUID, scores map[uuid.UUID]int) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := database.RecordMatchResults(ctx, matchID, scores, winner); err != nil {
				ms.Logger.WithError(err).WithField("match", matchID).Error("failed to record match results")
			}
		}()
		time.AfterFunc(endedMatchRetention, func() {
			ms.Store.DeleteMatch(matchID)
		})
	}
	ms.Store.AddMatch(m)
	m.Begin()
	return m
}
