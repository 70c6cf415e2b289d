// internal/engine/turn_test.go
package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartet-cards/quartet/internal/models"
)

// stubDecisions is a deterministic DecisionMaker: always draws from the deck
// and plays the drawn card, never interjects and never uses powers.
type stubDecisions struct{}

func (stubDecisions) ThinkDelay(view DecisionView) int64 { return 1 }

func (stubDecisions) DrawSource(view DecisionView, canDiscard bool) string { return "deck" }

func (stubDecisions) PlayCard(view DecisionView) uuid.UUID {
	if view.DrawnCard != nil {
		return view.DrawnCard.ID
	}
	return uuid.Nil
}

func (stubDecisions) SameRank(view DecisionView, topRank string) uuid.UUID { return uuid.Nil }

func (stubDecisions) JackSwap(view DecisionView) (SwapTarget, SwapTarget) {
	return SwapTarget{}, SwapTarget{}
}

func (stubDecisions) QueenPeek(view DecisionView) uuid.UUID { return uuid.Nil }

func (stubDecisions) CollectFromDiscard(view DecisionView, top *models.Card) bool { return false }

func (stubDecisions) InitialPeek(view DecisionView) ([2]uuid.UUID, string) {
	var ids [2]uuid.UUID
	n := 0
	for _, s := range view.Hand {
		if s.Blank {
			continue
		}
		ids[n] = s.CardID
		n++
		if n == 2 {
			break
		}
	}
	return ids, ""
}

func TestProcessPlayerActionDispatchesDraw(t *testing.T) {
	m, players, _ := setupTestMatch(t, 2)
	p0 := players[0]

	m.ProcessPlayerAction(p0.ID, models.MatchAction{
		ActionType: "draw",
		Payload:    map[string]interface{}{"source": "deck"},
	})

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.NotNil(t, p0.DrawnCard)
}

func TestProcessPlayerActionRejectsMalformedCardID(t *testing.T) {
	m, players, mb := setupTestMatch(t, 2)
	p0 := players[0]

	m.ProcessPlayerAction(p0.ID, models.MatchAction{
		ActionType: "play",
		Payload:    map[string]interface{}{"card_id": "not-a-uuid"},
	})

	ev := mb.lastPlayerEvent(p0.ID)
	require.NotNil(t, ev)
	assert.Equal(t, EventActionRejected, ev.Type)
}

func TestProcessPlayerActionRejectsUnknownType(t *testing.T) {
	m, players, mb := setupTestMatch(t, 2)
	p0 := players[0]

	m.ProcessPlayerAction(p0.ID, models.MatchAction{ActionType: "moonwalk"})

	ev := mb.lastPlayerEvent(p0.ID)
	require.NotNil(t, ev)
	assert.Equal(t, EventActionRejected, ev.Type)
}

func TestComputerSeatsPlayUnattended(t *testing.T) {
	room := models.RoomMetadata{Name: "cpu-only"}
	room.ID = uuid.New()
	room.Seats = []models.RoomSeat{
		{PlayerID: uuid.New(), Name: "cpu1", Difficulty: models.DifficultyExpert},
		{PlayerID: uuid.New(), Name: "cpu2", Difficulty: models.DifficultyExpert},
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	m := NewMatch(room, logger)
	m.SameRankWindow = 20 * time.Millisecond
	m.SpecialDecision = 40 * time.Millisecond
	m.CosmeticDelay = 2 * time.Millisecond
	m.SettleDelay = 2 * time.Millisecond
	m.Decisions = stubDecisions{}
	defer m.Dispose()

	m.Begin()

	require.Eventually(t, func() bool {
		m.Mu.Lock()
		defer m.Mu.Unlock()
		return m.GameOver || m.TurnID >= 3
	}, 5*time.Second, 10*time.Millisecond, "computer seats should drive the match on their own")
}

func TestAdvanceTurnSkipsDisconnectedHumans(t *testing.T) {
	m, players, _ := setupTestMatch(t, 3)
	p1, p2 := players[1], players[2]

	m.Mu.Lock()
	p1.Connected = false
	m.advanceTurn()
	assert.Equal(t, p2.ID, m.currentPlayer().ID, "a disconnected seat is skipped")
	m.Mu.Unlock()
}
