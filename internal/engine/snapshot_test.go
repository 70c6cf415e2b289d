// internal/engine/snapshot_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartet-cards/quartet/internal/models"
)

func TestViewStateHidesWhatTheViewerCannotKnow(t *testing.T) {
	m, players, _ := setupTestMatch(t, 2)
	p0 := players[0]

	m.Mu.Lock()
	defer m.Mu.Unlock()
	state := m.viewStateFor(p0.ID)

	require.Len(t, state.Players, 2)
	var self, other ViewPlayer
	for _, vp := range state.Players {
		if vp.ID == p0.ID {
			self = vp
		} else {
			other = vp
		}
	}

	// The viewer peeked slots 0 and 1 during setup.
	assert.NotEmpty(t, self.Hand[0].Rank)
	assert.NotEmpty(t, self.Hand[1].Rank)
	assert.Empty(t, self.Hand[2].Rank, "unpeeked own cards stay face-down")

	for i, vc := range other.Hand {
		assert.Emptyf(t, vc.Rank, "opponent slot %d must be obfuscated", i)
	}
	assert.Equal(t, p0.CollectionRank, self.CollectionRank)
	assert.Empty(t, other.CollectionRank, "opponent collection ranks are secret")
}

func TestViewStateCarriesDrawnCardForViewerOnly(t *testing.T) {
	m, players, _ := setupTestMatch(t, 2)
	p0, p1 := players[0], players[1]

	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.HandleDrawCard(p0.ID, "deck")

	own := m.viewStateFor(p0.ID)
	require.NotNil(t, own.DrawnCard)
	assert.Equal(t, p0.DrawnCard.Rank, own.DrawnCard.Rank)

	theirs := m.viewStateFor(p1.ID)
	assert.Nil(t, theirs.DrawnCard)
}

func TestViewStateQueenPeekReveal(t *testing.T) {
	m, players, _ := setupTestMatch(t, 2)
	p0, p1 := players[0], players[1]

	queen := giveCardWithRank(t, m, p0, 0, "Q")

	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.HandleDrawCard(p0.ID, "deck")
	m.HandlePlayCard(p0.ID, queen.ID)
	m.closeSameRankWindowLocked(m.windowEpoch)
	target := p1.Hand[0]
	m.HandleQueenPeek(p0.ID, target.ID)

	state := m.viewStateFor(p0.ID)
	require.NotNil(t, state.PeekCard)
	assert.Equal(t, target.Rank, state.PeekCard.Rank)
	assert.Equal(t, models.StatusPeeking, p0.Status, "the peeker holds the peeking status while the reveal plays out")
}
