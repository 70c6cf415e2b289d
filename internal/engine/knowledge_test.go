// internal/engine/knowledge_test.go
package engine

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/quartet-cards/quartet/internal/models"
)

// knowledgeFixture builds a bare match with two computer seats and a fixed
// retention probability, bypassing the lifecycle.
func knowledgeFixture(prob float64) (*Match, *models.Player, *models.Player) {
	a := &models.Player{ID: uuid.New(), Difficulty: models.DifficultyEasy, KnownCards: map[uuid.UUID]map[uuid.UUID]*models.Card{}}
	b := &models.Player{ID: uuid.New(), Difficulty: models.DifficultyEasy, KnownCards: map[uuid.UUID]map[uuid.UUID]*models.Card{}}
	m := &Match{
		Players: []*models.Player{a, b},
		RememberProbs: map[models.Difficulty]float64{
			models.DifficultyEasy: prob,
		},
		rng: rand.New(rand.NewSource(1)),
		log: logrus.New().WithField("test", true),
	}
	return m, a, b
}

func TestNoteOwnDrawAlwaysKnown(t *testing.T) {
	m, a, b := knowledgeFixture(0.0)
	card := &models.Card{ID: uuid.New(), Rank: "5", Points: 5}

	m.noteOwnDraw(a, card, false)

	assert.Same(t, card, a.Knows(a.ID, card.ID), "the drawer knows its own draw with certainty")
	assert.Nil(t, b.Knows(a.ID, card.ID), "a hidden draw teaches observers nothing")
}

func TestNoteOwnDrawFromDiscardObservedAtFullRetention(t *testing.T) {
	m, a, b := knowledgeFixture(1.0)
	card := &models.Card{ID: uuid.New(), Rank: "5", Points: 5}

	m.noteOwnDraw(a, card, true)

	assert.Same(t, card, b.Knows(a.ID, card.ID), "a face-up draw is observed by everyone at p=1")
}

func TestNoteCardPlayedClearsEveryBucket(t *testing.T) {
	m, a, b := knowledgeFixture(1.0)
	card := &models.Card{ID: uuid.New(), Rank: "5", Points: 5}
	a.Remember(a.ID, card)
	b.Remember(a.ID, card)

	m.noteCardPlayed(card)

	assert.Nil(t, a.Knows(a.ID, card.ID))
	assert.Nil(t, b.Knows(a.ID, card.ID))
}

func TestNoteSwapRelocatesAtFullRetention(t *testing.T) {
	m, a, b := knowledgeFixture(1.0)
	ownCard := &models.Card{ID: uuid.New(), Rank: "K", Points: 13}
	theirCard := &models.Card{ID: uuid.New(), Rank: "2", Points: 2}
	b.Remember(a.ID, ownCard)
	b.Remember(b.ID, theirCard)

	// Post-swap: ownCard now with b, theirCard now with a.
	m.noteSwap(a, ownCard, b, theirCard)

	assert.Same(t, ownCard, b.Knows(b.ID, ownCard.ID), "belief follows the card to its new owner")
	assert.Same(t, theirCard, b.Knows(a.ID, theirCard.ID))
	assert.Nil(t, b.Knows(a.ID, ownCard.ID), "the old-owner entry is gone")
}

func TestNoteSwapForgetsAtZeroRetention(t *testing.T) {
	m, a, b := knowledgeFixture(0.0)
	ownCard := &models.Card{ID: uuid.New(), Rank: "K", Points: 13}
	theirCard := &models.Card{ID: uuid.New(), Rank: "2", Points: 2}
	b.Remember(a.ID, ownCard)
	b.Remember(b.ID, theirCard)

	m.noteSwap(a, ownCard, b, theirCard)

	assert.Nil(t, b.Knows(a.ID, ownCard.ID))
	assert.Nil(t, b.Knows(b.ID, ownCard.ID))
	assert.Nil(t, b.Knows(a.ID, theirCard.ID))
	assert.Nil(t, b.Knows(b.ID, theirCard.ID))
}

func TestNoteSwapIgnoresUnknownCards(t *testing.T) {
	m, a, b := knowledgeFixture(1.0)
	ownCard := &models.Card{ID: uuid.New(), Rank: "K", Points: 13}
	theirCard := &models.Card{ID: uuid.New(), Rank: "2", Points: 2}

	m.noteSwap(a, ownCard, b, theirCard)

	assert.Nil(t, b.Knows(b.ID, ownCard.ID), "no belief appears out of thin air")
	assert.Nil(t, a.Knows(a.ID, theirCard.ID))
}

func TestHumansNeverForget(t *testing.T) {
	m, a, _ := knowledgeFixture(0.0)
	a.IsHuman = true

	assert.Equal(t, 1.0, m.rememberProb(a))
}
