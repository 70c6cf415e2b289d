// internal/engine/match.go
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quartet-cards/quartet/internal/cache"
	"github.com/quartet-cards/quartet/internal/database"
	"github.com/quartet-cards/quartet/internal/models"
)

// Phase enumerates the round state machine's states.
type Phase string

const (
	PhaseInitialPeek  Phase = "initial_peek"
	PhasePlayerTurn   Phase = "player_turn"
	PhaseSameRank     Phase = "same_rank_window"
	PhaseSpecialCards Phase = "special_cards_window"
	PhaseRoundEnd     Phase = "round_end"
	PhaseGameEnded    Phase = "game_ended"
)

// SpecialCardEvent is one pending special power, queued in play order.
type SpecialCardEvent struct {
	PlayerID uuid.UUID           `json:"player_id"`
	CardID   uuid.UUID           `json:"card_id"`
	Power    models.SpecialPower `json:"power"`
}

// OnMatchEndFunc receives the final outcome for lobby/persistence fan-out.
// Winner is uuid.Nil when no victory was granted.
type OnMatchEndFunc func(matchID uuid.UUID, winner uuid.UUID, scores map[uuid.UUID]int)

// Default timing constants. Tests override the corresponding Match fields.
const (
	defaultSameRankWindow  = 5 * time.Second
	defaultSpecialDecision = 10 * time.Second
	defaultCosmeticDelay   = 1 * time.Second
	defaultSettleDelay     = 3 * time.Second
)

// defaultRememberProbs is the per-difficulty probability that an observing
// computer player retains knowledge across a reveal-relevant event.
var defaultRememberProbs = map[models.Difficulty]float64{
	models.DifficultyEasy:   0.70,
	models.DifficultyMedium: 0.80,
	models.DifficultyHard:   0.90,
	models.DifficultyExpert: 1.00,
}

// Match holds the entire state for a single match instance in memory.
// All mutation is funneled through Mu: handlers lock before calling into the
// engine, and timer callbacks re-acquire the lock and re-validate the phase
// (epoch counters) before acting, so a stale timer is always a no-op.
type Match struct {
	ID     uuid.UUID
	RoomID uuid.UUID

	Phase              Phase
	Players            []*models.Player
	CurrentPlayerIndex int
	TurnID             int

	DrawPile     []uuid.UUID    // identity-only; resolved via cardIndex
	DiscardPile  []*models.Card // last element is the revealed top
	SpecialQueue []SpecialCardEvent

	FinalRoundCalled   bool
	FinalRoundCallerID uuid.UUID
	FinalRoundPenalty  int

	SameRankWindow  time.Duration
	SpecialDecision time.Duration
	CosmeticDelay   time.Duration
	SettleDelay     time.Duration

	RememberProbs map[models.Difficulty]float64

	Started  bool
	GameOver bool

	Mu sync.Mutex

	// BroadcastFn sends an event to all players. If nil, no broadcast is done.
	BroadcastFn func(ev MatchEvent)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev MatchEvent)

	// Decisions drives every action point for computer-controlled players.
	Decisions DecisionMaker

	// OnMatchEnd is invoked once at match end with the final results.
	OnMatchEnd OnMatchEndFunc

	cardIndex   map[uuid.UUID]*models.Card
	rng         *rand.Rand
	log         logrus.FieldLogger
	actionIndex int

	// Epoch counters guard timer callbacks against windows that were already
	// closed by another path.
	windowEpoch  int
	specialEpoch int

	pendingSpecial *SpecialCardEvent

	sameRankTimer *time.Timer
	specialTimer  *time.Timer
	settleTimer   *time.Timer
	cosmeticTimer *time.Timer
	thinkTimer    *time.Timer
}

// NewMatch builds a match from room metadata with a freshly shuffled deck.
// Seat order is turn order.
func NewMatch(room models.RoomMetadata, logger logrus.FieldLogger) *Match {
	id, _ := uuid.NewRandom()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &Match{
		ID:                id,
		RoomID:            room.ID,
		Phase:             PhaseInitialPeek,
		DrawPile:          []uuid.UUID{},
		DiscardPile:       []*models.Card{},
		FinalRoundPenalty: room.FinalRoundPenalty,
		SameRankWindow:    defaultSameRankWindow,
		SpecialDecision:   defaultSpecialDecision,
		CosmeticDelay:     defaultCosmeticDelay,
		SettleDelay:       defaultSettleDelay,
		RememberProbs:     defaultRememberProbs,
		cardIndex:         make(map[uuid.UUID]*models.Card),
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
		log:               logger.WithField("match", id),
	}
	if m.FinalRoundPenalty <= 0 {
		m.FinalRoundPenalty = 1
	}
	for _, seat := range room.Seats {
		pid := seat.PlayerID
		if pid == uuid.Nil {
			pid, _ = uuid.NewRandom()
		}
		m.Players = append(m.Players, &models.Player{
			ID:         pid,
			Name:       seat.Name,
			IsHuman:    seat.IsHuman,
			Difficulty: seat.Difficulty,
			Status:     models.StatusWaiting,
			KnownCards: make(map[uuid.UUID]map[uuid.UUID]*models.Card),
			Connected:  !seat.IsHuman, // humans connect over WS, computers are always present
		})
	}
	m.buildDeck()
	return m
}

// SeedRNG replaces the match RNG. Deterministic tests only.
func (m *Match) SeedRNG(seed int64) {
	m.rng = rand.New(rand.NewSource(seed))
}

// Begin deals the starting hands and opens the initial-peek phase. Computer
// players complete their peek (and collection-rank nomination) immediately;
// the match settles into the first turn once every player has peeked.
func (m *Match) Begin() {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Started || m.GameOver {
		return
	}
	m.dealHands()
	m.Phase = PhaseInitialPeek
	for _, p := range m.Players {
		p.Status = models.StatusInitialPeek
	}
	m.logAction(uuid.Nil, string(EventMatchStart), map[string]interface{}{"players": len(m.Players)})
	m.fireEvent(MatchEvent{Type: EventMatchStart, Payload: map[string]interface{}{
		"drawPileSize": len(m.DrawPile),
	}})
	m.persistInitialState()

	for _, p := range m.Players {
		if p.IsHuman {
			continue
		}
		if m.Decisions == nil {
			m.applyInitialPeek(p, m.randomPeekPair(p), "")
			continue
		}
		ids, rank := m.Decisions.InitialPeek(m.decisionView(p))
		m.applyInitialPeek(p, ids, rank)
	}
	m.maybeFinishInitialPeek()
}

// HandleCompleteInitialPeek records a human player's chosen two peek cards
// and optional collection-rank nomination.
func (m *Match) HandleCompleteInitialPeek(playerID uuid.UUID, cardIDs [2]uuid.UUID, collectionRank string) {
	p := m.playerByID(playerID)
	if p == nil {
		return
	}
	if m.Phase != PhaseInitialPeek {
		m.rejectAction(playerID, "The initial peek phase is over.")
		return
	}
	if p.PeekedInitial {
		m.rejectAction(playerID, "You have already completed your initial peek.")
		return
	}
	for _, id := range cardIDs {
		if _, idx := p.HandCard(id); idx < 0 {
			m.rejectAction(playerID, "Peek target is not in your hand.")
			return
		}
	}
	m.applyInitialPeek(p, cardIDs, collectionRank)
	m.maybeFinishInitialPeek()
}

// applyInitialPeek commits a peek selection: the two cards enter the player's
// self-knowledge, and the collection rank is nominated (defaulting to the
// first peeked card's rank). Assumes lock is held.
func (m *Match) applyInitialPeek(p *models.Player, cardIDs [2]uuid.UUID, collectionRank string) {
	var peeked []*models.Card
	for _, id := range cardIDs {
		if card, idx := p.HandCard(id); idx >= 0 {
			p.Remember(p.ID, card)
			peeked = append(peeked, card)
		}
	}
	if collectionRank == "" && len(peeked) > 0 {
		collectionRank = peeked[0].Rank
	}
	p.CollectionRank = collectionRank
	p.PeekedInitial = true
	p.Status = models.StatusWaiting

	if len(peeked) == 2 {
		i0 := handIndexOf(p, peeked[0].ID)
		i1 := handIndexOf(p, peeked[1].ID)
		m.fireEventToPlayer(p.ID, MatchEvent{
			Type:  EventPrivateInitialPeek,
			Card1: buildEventCard(&cardRef{card: peeked[0], idx: i0, owner: p.ID}, true),
			Card2: buildEventCard(&cardRef{card: peeked[1], idx: i1, owner: p.ID}, true),
		})
	}
	m.logAction(p.ID, "initial_peek_complete", map[string]interface{}{"collectionRank": collectionRank})
}

// randomPeekPair picks two distinct starting slots for a computer player
// without a decision maker wired in.
func (m *Match) randomPeekPair(p *models.Player) [2]uuid.UUID {
	var ids [2]uuid.UUID
	if len(p.Hand) < 2 {
		return ids
	}
	perm := m.rng.Perm(len(p.Hand))
	n := 0
	for _, i := range perm {
		if p.Hand[i] == nil {
			continue
		}
		ids[n] = p.Hand[i].ID
		n++
		if n == 2 {
			break
		}
	}
	return ids
}

// maybeFinishInitialPeek starts the settle timer once every player has
// completed the peek; the first turn begins when it fires.
// Assumes lock is held.
func (m *Match) maybeFinishInitialPeek() {
	if m.Phase != PhaseInitialPeek {
		return
	}
	for _, p := range m.Players {
		if !p.PeekedInitial {
			return
		}
	}
	m.resetTimer(&m.settleTimer, m.SettleDelay, func() {
		m.Mu.Lock()
		defer m.Mu.Unlock()
		if m.Phase != PhaseInitialPeek || m.GameOver {
			return
		}
		m.startFirstTurn()
	})
}

// startFirstTurn picks a uniformly random starting player and enters the
// turn cycle. Assumes lock is held.
func (m *Match) startFirstTurn() {
	m.Started = true
	m.CurrentPlayerIndex = m.rng.Intn(len(m.Players))
	m.TurnID = 1
	m.log.WithField("starter", m.Players[m.CurrentPlayerIndex].ID).Info("match started")
	m.beginTurn()
}

// playerByID is a helper to find a player struct by id.
// Assumes lock is held.
func (m *Match) playerByID(playerID uuid.UUID) *models.Player {
	for _, p := range m.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// currentPlayer returns the seat whose turn it is, or nil in a broken state.
// Assumes lock is held.
func (m *Match) currentPlayer() *models.Player {
	if m.CurrentPlayerIndex < 0 || m.CurrentPlayerIndex >= len(m.Players) {
		return nil
	}
	return m.Players[m.CurrentPlayerIndex]
}

// resetTimer stops any pending timer in the slot and schedules fn after d.
// Starting a new timer for a window type implicitly cancels the previous one.
func (m *Match) resetTimer(t **time.Timer, d time.Duration, fn func()) {
	if *t != nil {
		(*t).Stop()
	}
	*t = time.AfterFunc(d, fn)
}

// Dispose cancels all outstanding timers and marks the match over. Used when
// a match is evicted from the store without a natural ending.
func (m *Match) Dispose() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.GameOver = true
	m.Phase = PhaseGameEnded
	for _, t := range []*time.Timer{m.sameRankTimer, m.specialTimer, m.settleTimer, m.cosmeticTimer, m.thinkTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

// HandleDisconnect marks a player disconnected. If it was their turn the
// turn is surrendered: a held drawn card is played outright so the round can
// move on.
func (m *Match) HandleDisconnect(playerID uuid.UUID) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	p := m.playerByID(playerID)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	p.Conn = nil
	m.logAction(playerID, "player_disconnect", nil)

	if !m.Started || m.GameOver {
		return
	}
	cur := m.currentPlayer()
	if cur != nil && cur.ID == playerID && m.Phase == PhasePlayerTurn {
		if p.DrawnCard != nil {
			m.playCard(p, p.DrawnCard.ID)
			return
		}
		m.advanceTurn()
	}
}

// HandleReconnect re-attaches a player's connection and re-sends their
// private snapshot.
func (m *Match) HandleReconnect(playerID uuid.UUID, conn *websocket.Conn) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	p := m.playerByID(playerID)
	if p == nil {
		if conn != nil {
			conn.Close(websocket.StatusPolicyViolation, "You are not a player in this match.")
		}
		return
	}
	p.Connected = true
	p.Conn = conn
	m.logAction(playerID, "player_reconnect", nil)
	m.sendSyncState(playerID)
}

// sendSyncState sends the per-viewer obfuscated snapshot to one player.
// Assumes lock is held.
func (m *Match) sendSyncState(playerID uuid.UUID) {
	state := m.viewStateFor(playerID)
	m.fireEventToPlayer(playerID, MatchEvent{Type: EventPrivateSyncState, State: &state})
}

// broadcastSyncStateToAll re-syncs every connected human.
// Assumes lock is held.
func (m *Match) broadcastSyncStateToAll() {
	for _, p := range m.Players {
		if p.IsHuman && p.Connected {
			m.sendSyncState(p.ID)
		}
	}
}

// HandleCallFinalRound starts the endgame: every other player gets exactly
// one more turn, then scores are compared. Only the current player may call,
// once per match.
func (m *Match) HandleCallFinalRound(playerID uuid.UUID) {
	p := m.playerByID(playerID)
	if p == nil {
		return
	}
	if m.FinalRoundCalled {
		m.rejectAction(playerID, "The final round has already been called.")
		return
	}
	cur := m.currentPlayer()
	if m.Phase != PhasePlayerTurn || cur == nil || cur.ID != playerID {
		m.rejectAction(playerID, "You can only call the final round at the start of your turn.")
		return
	}
	if p.DrawnCard != nil {
		m.rejectAction(playerID, "You cannot call the final round after drawing.")
		return
	}
	m.FinalRoundCalled = true
	m.FinalRoundCallerID = playerID
	p.CalledFinal = true
	m.logAction(playerID, string(EventFinalRoundCalled), nil)
	m.fireEvent(MatchEvent{Type: EventFinalRoundCalled, Player: &EventPlayer{ID: playerID}})
	// Calling consumes the caller's turn.
	m.advanceTurn()
}

// winnerByState returns a player who has met an immediate win condition, or
// nil. Assumes lock is held.
func (m *Match) winnerByState() *models.Player {
	for _, p := range m.Players {
		if len(p.CollectionCards) >= startingHandSize {
			return p
		}
		if m.Started && p.DrawnCard == nil && playableHandSize(p) == 0 {
			return p
		}
	}
	return nil
}

// computeScores sums the points of each player's playable hand cards.
// Collected cards are out of play and do not count against their owner.
// Assumes lock is held.
func (m *Match) computeScores() map[uuid.UUID]int {
	scores := make(map[uuid.UUID]int, len(m.Players))
	for _, p := range m.Players {
		sum := 0
		for _, c := range p.Hand {
			if c != nil && !p.IsCollected(c.ID) {
				sum += c.Points
			}
		}
		scores[p.ID] = sum
	}
	return scores
}

// EndMatch finalizes scoring, emits the match_end event and invokes the end
// callback. immediateWinner is non-nil when a win condition (empty hand,
// completed collection) fired; otherwise lowest points wins, with the
// final-round caller winning any tie it participates in and eating a penalty
// when it loses. Assumes lock is held.
func (m *Match) EndMatch(immediateWinner *models.Player) {
	if m.GameOver {
		return
	}
	m.GameOver = true
	m.Phase = PhaseGameEnded
	for _, t := range []*time.Timer{m.sameRankTimer, m.specialTimer, m.settleTimer, m.cosmeticTimer, m.thinkTimer} {
		if t != nil {
			t.Stop()
		}
	}
	for _, p := range m.Players {
		p.Status = models.StatusWaiting
	}

	scores := m.computeScores()
	var winner uuid.UUID
	if immediateWinner != nil {
		winner = immediateWinner.ID
	} else {
		winner = m.decideWinnerByScore(scores)
	}

	payload := map[string]interface{}{
		"winner": winner.String(),
		"scores": map[string]int{},
	}
	for pid, s := range scores {
		payload["scores"].(map[string]int)[pid.String()] = s
	}
	if m.FinalRoundCalled {
		payload["caller"] = m.FinalRoundCallerID.String()
	}
	m.logAction(uuid.Nil, string(EventMatchEnd), payload)
	m.fireEvent(MatchEvent{Type: EventMatchEnd, Payload: payload})
	m.persistFinalState(scores, winner)

	if m.OnMatchEnd != nil {
		m.OnMatchEnd(m.ID, winner, scores)
	}
	m.log.WithFields(map[string]interface{}{"winner": winner, "scores": scores}).Info("match ended")
}

// decideWinnerByScore applies the lowest-points rule plus final-round caller
// logic. Returns uuid.Nil when no victory is granted. Assumes lock is held.
func (m *Match) decideWinnerByScore(scores map[uuid.UUID]int) uuid.UUID {
	if len(scores) == 0 {
		return uuid.Nil
	}
	lowest := 0
	first := true
	for _, s := range scores {
		if first || s < lowest {
			lowest = s
			first = false
		}
	}
	var lowestIDs []uuid.UUID
	for _, p := range m.Players { // seat order keeps results deterministic
		if scores[p.ID] == lowest {
			lowestIDs = append(lowestIDs, p.ID)
		}
	}

	if !m.FinalRoundCalled || m.FinalRoundCallerID == uuid.Nil {
		if len(lowestIDs) == 1 {
			return lowestIDs[0]
		}
		return uuid.Nil // tie, no victory granted
	}

	for _, id := range lowestIDs {
		if id == m.FinalRoundCallerID {
			// Caller wins ties it participates in.
			return m.FinalRoundCallerID
		}
	}
	// False call: penalty to the caller, single lowest non-caller wins.
	scores[m.FinalRoundCallerID] += m.FinalRoundPenalty
	if len(lowestIDs) == 1 {
		return lowestIDs[0]
	}
	return uuid.Nil
}

// persistInitialState saves the entire deck order and each player's starting
// hand so a replay can reconstruct the deal. Assumes lock is held.
func (m *Match) persistInitialState() {
	type initialState struct {
		DrawPile []uuid.UUID               `json:"draw_pile"`
		Players  map[string][]*models.Card `json:"players"`
	}
	snap := initialState{
		DrawPile: make([]uuid.UUID, len(m.DrawPile)),
		Players:  make(map[string][]*models.Card),
	}
	copy(snap.DrawPile, m.DrawPile)
	for _, p := range m.Players {
		hand := make([]*models.Card, len(p.Hand))
		copy(hand, p.Hand)
		snap.Players[p.ID.String()] = hand
	}
	go database.UpsertInitialMatchState(context.Background(), m.ID, snap)
}

// persistFinalState saves final hands, scores and the winner.
// Assumes lock is held.
func (m *Match) persistFinalState(scores map[uuid.UUID]int, winner uuid.UUID) {
	type finalPlayerState struct {
		Hand       []*models.Card `json:"hand"`
		Collection []*models.Card `json:"collection"`
		Score      int            `json:"score"`
	}
	snapshot := map[string]interface{}{
		"winner":  winner,
		"players": map[string]finalPlayerState{},
	}
	states := snapshot["players"].(map[string]finalPlayerState)
	for _, p := range m.Players {
		hand := make([]*models.Card, len(p.Hand))
		copy(hand, p.Hand)
		collection := make([]*models.Card, len(p.CollectionCards))
		copy(collection, p.CollectionCards)
		states[p.ID.String()] = finalPlayerState{Hand: hand, Collection: collection, Score: scores[p.ID]}
	}
	go database.StoreFinalMatchState(context.Background(), m.ID, snapshot)
}

// logAction publishes the action to the historian queue via Redis.
// Assumes lock is held.
func (m *Match) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	m.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.MatchActionRecord{
		MatchID:       m.ID,
		ActionIndex:   m.actionIndex,
		ActorPlayerID: actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.MatchActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cache.Rdb == nil {
			return
		}
		if err := cache.PublishMatchAction(ctx, rec); err != nil {
			logrus.WithError(err).WithField("match", rec.MatchID).Warn("failed to publish match action")
		}
	}(record)
}
