// internal/bot/engine_test.go
package bot

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartet-cards/quartet/internal/engine"
	"github.com/quartet-cards/quartet/internal/models"
)

func newTestEngine() *Engine {
	e := New(nil, nil)
	e.SeedRNG(1)
	return e
}

// slot builds one known, unlocked hand slot.
func slot(idx int, rank string, points int) engine.DecisionSlot {
	return engine.DecisionSlot{
		Index:  idx,
		CardID: uuid.New(),
		Rank:   rank,
		Points: points,
		Known:  true,
	}
}

func unknownSlot(idx int) engine.DecisionSlot {
	return engine.DecisionSlot{Index: idx, CardID: uuid.New()}
}

func TestJackSwapTradesHighOwnForLowTheirs(t *testing.T) {
	e := newTestEngine()

	me := uuid.New()
	opp := uuid.New()
	own := slot(0, "K", 13)
	theirs := slot(0, "2", 2)
	view := engine.DecisionView{
		PlayerID:   me,
		Difficulty: models.DifficultyExpert,
		Hand:       []engine.DecisionSlot{own, slot(1, "5", 5)},
		Opponents: []engine.DecisionOpponent{
			{PlayerID: opp, Hand: []engine.DecisionSlot{theirs, unknownSlot(1)}},
		},
	}

	first, second := e.JackSwap(view)
	assert.Equal(t, engine.SwapTarget{PlayerID: me, CardID: own.CardID}, first)
	assert.Equal(t, engine.SwapTarget{PlayerID: opp, CardID: theirs.CardID}, second)
}

func TestJackSwapSkipsLosingTrade(t *testing.T) {
	e := newTestEngine()

	view := engine.DecisionView{
		PlayerID:   uuid.New(),
		Difficulty: models.DifficultyExpert,
		Hand:       []engine.DecisionSlot{slot(0, "2", 2)},
		Opponents: []engine.DecisionOpponent{
			{PlayerID: uuid.New(), Hand: []engine.DecisionSlot{slot(0, "K", 13)}},
		},
	}

	first, second := e.JackSwap(view)
	assert.Equal(t, uuid.Nil, first.CardID, "a swap that gains points for the opponent is declined")
	assert.Equal(t, uuid.Nil, second.CardID)
}

func TestJackSwapIgnoresLockedCards(t *testing.T) {
	e := newTestEngine()

	locked := slot(0, "2", 2)
	locked.Locked = true
	view := engine.DecisionView{
		PlayerID:   uuid.New(),
		Difficulty: models.DifficultyExpert,
		Hand:       []engine.DecisionSlot{slot(0, "K", 13)},
		Opponents: []engine.DecisionOpponent{
			{PlayerID: uuid.New(), Hand: []engine.DecisionSlot{locked}},
		},
	}

	first, second := e.JackSwap(view)
	assert.Equal(t, uuid.Nil, first.CardID, "collection-locked cards are not swap targets")
	assert.Equal(t, uuid.Nil, second.CardID)
}

func TestRandomPairSpansTwoOpponents(t *testing.T) {
	e := newTestEngine()

	oppA := uuid.New()
	oppB := uuid.New()
	view := engine.DecisionView{
		PlayerID:   uuid.New(),
		Difficulty: models.DifficultyEasy,
		Hand:       []engine.DecisionSlot{unknownSlot(0), unknownSlot(1)},
		Opponents: []engine.DecisionOpponent{
			{PlayerID: oppA, Hand: []engine.DecisionSlot{unknownSlot(0)}},
			{PlayerID: oppB, Hand: []engine.DecisionSlot{unknownSlot(0)}},
		},
	}

	first, second := e.resolveSwapPair(view, "random_pair")
	require.NotEqual(t, uuid.Nil, first.CardID)
	require.NotEqual(t, uuid.Nil, second.CardID)
	assert.NotEqual(t, first.PlayerID, second.PlayerID, "the pair names two different hands")
	owners := []uuid.UUID{oppA, oppB}
	assert.Contains(t, owners, first.PlayerID)
	assert.Contains(t, owners, second.PlayerID)
}

func TestRandomPairFallsBackToOwnHand(t *testing.T) {
	e := newTestEngine()

	me := uuid.New()
	opp := uuid.New()
	view := engine.DecisionView{
		PlayerID:   me,
		Difficulty: models.DifficultyEasy,
		Hand:       []engine.DecisionSlot{unknownSlot(0)},
		Opponents: []engine.DecisionOpponent{
			{PlayerID: opp, Hand: []engine.DecisionSlot{unknownSlot(0)}},
		},
	}

	first, second := e.resolveSwapPair(view, "random_pair")
	assert.Equal(t, me, first.PlayerID, "with one opponent the pair includes the seat's own hand")
	assert.Equal(t, opp, second.PlayerID)
}

func TestQueenPeekTargetsUnknownOpponentCard(t *testing.T) {
	e := newTestEngine()

	unknown := unknownSlot(1)
	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Opponents: []engine.DecisionOpponent{
			{PlayerID: uuid.New(), Hand: []engine.DecisionSlot{slot(0, "5", 5), unknown}},
		},
	}

	assert.Equal(t, unknown.CardID, e.QueenPeek(view))
}

func TestQueenPeekSkipsWhenEverythingIsKnown(t *testing.T) {
	e := newTestEngine()

	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Opponents: []engine.DecisionOpponent{
			{PlayerID: uuid.New(), Hand: []engine.DecisionSlot{slot(0, "5", 5)}},
		},
	}

	assert.Equal(t, uuid.Nil, e.QueenPeek(view))
}

func TestCollectFromDiscardDefaultsToGrab(t *testing.T) {
	e := newTestEngine()
	view := engine.DecisionView{Difficulty: models.DifficultyEasy}
	top := &models.Card{ID: uuid.New(), Rank: "9", Points: 9}

	assert.True(t, e.CollectFromDiscard(view, top))
}

func TestPlayCardOptimalDumpsHighestKnown(t *testing.T) {
	e := newTestEngine()
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyExpert: {OptimalProb: 1.0},
	})

	low := slot(0, "3", 3)
	high := slot(1, "9", 9)
	drawn := &models.Card{ID: uuid.New(), Rank: "5", Points: 5}
	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Hand: []engine.DecisionSlot{
			low, high,
			{Index: 2, CardID: drawn.ID, Rank: drawn.Rank, Points: drawn.Points, Known: true},
		},
		DrawnCard: drawn,
	}

	assert.Equal(t, high.CardID, e.PlayCard(view))
}

func TestPlayCardOptimalPrefersDrawnWhenHighest(t *testing.T) {
	e := newTestEngine()
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyExpert: {OptimalProb: 1.0},
	})

	drawn := &models.Card{ID: uuid.New(), Rank: "K", Points: 13}
	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Hand: []engine.DecisionSlot{
			slot(0, "3", 3),
			{Index: 1, CardID: drawn.ID, Rank: drawn.Rank, Points: drawn.Points, Known: true},
		},
		DrawnCard: drawn,
	}

	assert.Equal(t, drawn.ID, e.PlayCard(view))
}

func TestSameRankPicksMatchingCard(t *testing.T) {
	e := newTestEngine()
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyExpert: {SameRankPlayProb: 1.0, WrongRankProb: 0.0},
	})

	matching := slot(0, "7", 7)
	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Hand:       []engine.DecisionSlot{matching, slot(1, "9", 9), unknownSlot(2)},
	}

	assert.Equal(t, matching.CardID, e.SameRank(view, "7"))
}

func TestSameRankDeliberateMisfire(t *testing.T) {
	e := newTestEngine()
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyEasy: {SameRankPlayProb: 1.0, WrongRankProb: 1.0},
	})

	matching := slot(0, "7", 7)
	wrong := slot(1, "9", 9)
	view := engine.DecisionView{
		Difficulty: models.DifficultyEasy,
		Hand:       []engine.DecisionSlot{matching, wrong},
	}

	assert.Equal(t, wrong.CardID, e.SameRank(view, "7"), "wrong-rank probability forces the misfire")
}

func TestSameRankStaysOutWithoutKnownMatch(t *testing.T) {
	e := newTestEngine()
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyExpert: {SameRankPlayProb: 1.0, WrongRankProb: 0.0},
	})

	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Hand:       []engine.DecisionSlot{unknownSlot(0), unknownSlot(1)},
	}

	assert.Equal(t, uuid.Nil, e.SameRank(view, "7"))
}

func TestSameRankRuleListOverridesProfile(t *testing.T) {
	rules := RuleSet{
		EventSameRank: []Rule{
			{Priority: 10, Action: Action{Use: true}},
		},
	}
	e := New(rules, nil)
	e.SeedRNG(1)
	// The profile says never interject; the configured list says always.
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyEasy: {SameRankPlayProb: 0.0},
	})

	matching := slot(0, "7", 7)
	view := engine.DecisionView{
		Difficulty: models.DifficultyEasy,
		Hand:       []engine.DecisionSlot{matching, slot(1, "9", 9)},
	}

	assert.Equal(t, matching.CardID, e.SameRank(view, "7"))
}

func TestSameRankRuleSkipKeepsSeatOut(t *testing.T) {
	rules := RuleSet{
		EventSameRank: []Rule{
			{Priority: 10, Action: Action{Use: false}},
		},
	}
	e := New(rules, nil)
	e.SeedRNG(1)
	e.SetProfiles(map[models.Difficulty]Profile{
		models.DifficultyExpert: {SameRankPlayProb: 1.0},
	})

	view := engine.DecisionView{
		Difficulty: models.DifficultyExpert,
		Hand:       []engine.DecisionSlot{slot(0, "7", 7)},
	}

	assert.Equal(t, uuid.Nil, e.SameRank(view, "7"))
}

func TestDrawSourceDefaultsToDeck(t *testing.T) {
	e := newTestEngine()
	view := engine.DecisionView{Difficulty: models.DifficultyMedium}

	assert.Equal(t, "deck", e.DrawSource(view, false))
}

func TestInitialPeekPicksTwoDistinctCards(t *testing.T) {
	e := newTestEngine()
	view := engine.DecisionView{
		Difficulty: models.DifficultyMedium,
		Hand:       []engine.DecisionSlot{unknownSlot(0), unknownSlot(1), unknownSlot(2), unknownSlot(3)},
	}

	ids, rank := e.InitialPeek(view)
	assert.Empty(t, rank, "rank nomination defers to the first peeked card")
	require.NotEqual(t, uuid.Nil, ids[0])
	require.NotEqual(t, uuid.Nil, ids[1])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestThinkDelayStaysNearProfile(t *testing.T) {
	e := newTestEngine()
	view := engine.DecisionView{Difficulty: models.DifficultyExpert}
	base := DefaultProfiles[models.DifficultyExpert].DecisionDelayMs

	for i := 0; i < 20; i++ {
		d := e.ThinkDelay(view)
		assert.GreaterOrEqual(t, d, base-base/4)
		assert.LessOrEqual(t, d, base+base/4)
	}
}
