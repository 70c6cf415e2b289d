// internal/engine/hand.go
package engine

import (
	"github.com/google/uuid"

	"github.com/quartet-cards/quartet/internal/models"
)

// startingHandSize is the fixed "starting four" layout: slots 0..3 are never
// compacted away, even when blank, so the presentation layer can keep a
// stable four-slot frame per player.
const startingHandSize = 4

// removeHandSlot clears the card at index i following the blank-slot policy:
//
//   - i <= 3: the slot always stays, blank.
//   - i > 3 with any non-blank slot at a higher index: the slot stays blank,
//     so indices remain stable reference points for in-flight relocations.
//   - i > 3 with nothing occupied beyond it: the slot is removed outright and
//     trailing blanks above index 3 are trimmed with it.
func removeHandSlot(p *models.Player, i int) {
	if i < 0 || i >= len(p.Hand) {
		return
	}
	p.Hand[i] = nil
	if i <= startingHandSize-1 {
		return
	}
	for j := i + 1; j < len(p.Hand); j++ {
		if p.Hand[j] != nil {
			return
		}
	}
	// Nothing occupied beyond i: shrink, then trim any blank tail that is now
	// free to compact (but never below the starting four).
	end := i
	for end > startingHandSize && p.Hand[end-1] == nil {
		end--
	}
	p.Hand = p.Hand[:end]
}

// placeInSlot puts card into the blank slot at index i, or appends it when
// the slot no longer exists or is occupied.
func placeInSlot(p *models.Player, i int, card *models.Card) {
	if i >= 0 && i < len(p.Hand) && p.Hand[i] == nil {
		p.Hand[i] = card
		return
	}
	p.Hand = append(p.Hand, card)
}

// playableHandSize counts non-blank slots that are not locked in the
// player's collection registry.
func playableHandSize(p *models.Player) int {
	n := 0
	for _, c := range p.Hand {
		if c != nil && !p.IsCollected(c.ID) {
			n++
		}
	}
	return n
}

// handIndexOf returns the slot index of the card id, or -1.
func handIndexOf(p *models.Player, cardID uuid.UUID) int {
	_, idx := p.HandCard(cardID)
	return idx
}

// lastHandIndexOf returns the highest slot index holding the card id, or -1.
// Used when the same card briefly occupies two slots mid-relocation.
func lastHandIndexOf(p *models.Player, cardID uuid.UUID) int {
	for i := len(p.Hand) - 1; i >= 0; i-- {
		if p.Hand[i] != nil && p.Hand[i].ID == cardID {
			return i
		}
	}
	return -1
}

// firstBlankSlot returns the lowest blank slot index, or -1 when the hand has
// no blanks (the caller appends instead).
func firstBlankSlot(p *models.Player) int {
	for i, c := range p.Hand {
		if c == nil {
			return i
		}
	}
	return -1
}
