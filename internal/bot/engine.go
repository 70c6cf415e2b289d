// internal/bot/engine.go
package bot

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quartet-cards/quartet/internal/engine"
	"github.com/quartet-cards/quartet/internal/models"
)

// Engine evaluates the declarative rule lists and difficulty profiles to
// drive computer seats. One Engine instance can serve every match: it holds
// no per-match state, only configuration and an RNG.
type Engine struct {
	mu       sync.Mutex
	rng      *rand.Rand
	profiles map[models.Difficulty]Profile
	rules    RuleSet
	log      logrus.FieldLogger
}

// New builds a decision engine from a rule set. A nil rule set falls back to
// the shipped defaults.
func New(rules RuleSet, logger logrus.FieldLogger) *Engine {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	rules.sortRules()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		profiles: DefaultProfiles,
		rules:    rules,
		log:      logger,
	}
}

// SetProfiles replaces the difficulty profile table.
func (e *Engine) SetProfiles(profiles map[models.Difficulty]Profile) {
	e.profiles = profiles
}

// SeedRNG replaces the engine RNG. Deterministic tests only.
func (e *Engine) SeedRNG(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rand.New(rand.NewSource(seed))
}

func (e *Engine) roll(prob float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < prob
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// fireRule walks the event's rule list in priority order and returns the
// first rule whose condition holds, whose probability roll passes, and whose
// action the resolver accepts as a valid target. The bool reports whether a
// rule list exists for the event at all, so callers can fall back to profile
// probabilities when configuration is absent.
func (e *Engine) fireRule(event EventType, view engine.DecisionView, resolve func(Action) bool) (*Rule, bool) {
	rules, ok := e.rules[event]
	if !ok {
		return nil, false
	}
	fields := snapshotFields(view)
	for i := range rules {
		r := &rules[i]
		if !r.Condition.Holds(fields) {
			continue
		}
		if prob, has := r.Probability[view.Difficulty]; has && !e.roll(prob) {
			continue
		}
		if !resolve(r.Action) {
			continue
		}
		return r, true
	}
	return nil, true
}

// ThinkDelay applies the profile's decision delay with a little jitter so
// seats do not act in lockstep.
func (e *Engine) ThinkDelay(view engine.DecisionView) int64 {
	base := e.profileFor(view.Difficulty).DecisionDelayMs
	if base <= 0 {
		return 0
	}
	jitter := int64(e.intn(int(base/2+1))) - base/4
	return base + jitter
}

// DrawSource picks "deck" or "discard". A configured rule decides first;
// without one the profile's draw-from-discard probability applies, but only
// when the face-up top is actually worth holding (low points or a collection
// match).
func (e *Engine) DrawSource(view engine.DecisionView, canDiscard bool) string {
	if !canDiscard || view.DiscardTop == nil {
		return "deck"
	}
	source := "deck"
	rule, configured := e.fireRule(EventDrawSource, view, func(a Action) bool {
		if a.Use {
			source = "discard"
		}
		return true
	})
	if configured && rule != nil {
		return source
	}
	prof := e.profileFor(view.Difficulty)
	worthTaking := view.DiscardTop.Points <= 4 ||
		(view.CollectionRank != "" && strings.EqualFold(view.DiscardTop.Rank, view.CollectionRank))
	if worthTaking && e.roll(prof.DrawFromDiscardProb) {
		return "discard"
	}
	return "deck"
}

// PlayCard picks the card to put on the discard pile. With the profile's
// optimal probability the seat dumps its highest-points known card (the drawn
// card is always known); otherwise it plays a uniformly random legal card.
func (e *Engine) PlayCard(view engine.DecisionView) uuid.UUID {
	candidates := e.playableCards(view)
	if len(candidates) == 0 {
		if view.DrawnCard != nil {
			return view.DrawnCard.ID
		}
		return uuid.Nil
	}

	strategy := ""
	e.fireRule(EventPlayCard, view, func(a Action) bool {
		strategy = a.Strategy
		return a.Use
	})
	if strategy == "" {
		if e.roll(e.profileFor(view.Difficulty).OptimalProb) {
			strategy = "optimal"
		} else {
			strategy = "random"
		}
	}

	if strategy == "optimal" {
		best := uuid.Nil
		bestPoints := -1
		for _, c := range candidates {
			if c.Known && c.Points > bestPoints {
				best, bestPoints = c.CardID, c.Points
			}
		}
		if view.DrawnCard != nil && view.DrawnCard.Points >= bestPoints {
			return view.DrawnCard.ID
		}
		if best != uuid.Nil {
			return best
		}
	}
	return candidates[e.intn(len(candidates))].CardID
}

// SameRank decides an interjection. A configured rule list decides first; a
// fired rule throws in a known matching card and a list that resolves nothing
// stays out. Without configuration the profile gates eagerness, with a
// wrong-rank roll modeling the deliberate misfire that costs a penalty card.
func (e *Engine) SameRank(view engine.DecisionView, topRank string) uuid.UUID {
	var matching, offRank []DecisionCard
	for _, c := range e.playableCards(view) {
		if !c.Known {
			continue
		}
		if strings.EqualFold(c.Rank, topRank) {
			matching = append(matching, c)
		} else {
			offRank = append(offRank, c)
		}
	}

	pick := uuid.Nil
	rule, configured := e.fireRule(EventSameRank, view, func(a Action) bool {
		if !a.Use {
			pick = uuid.Nil
			return true
		}
		if len(matching) == 0 {
			return false
		}
		pick = matching[e.intn(len(matching))].CardID
		return true
	})
	if configured {
		if rule == nil {
			return uuid.Nil
		}
		return pick
	}

	prof := e.profileFor(view.Difficulty)
	if !e.roll(prof.SameRankPlayProb) {
		return uuid.Nil
	}
	if len(offRank) > 0 && e.roll(prof.WrongRankProb) {
		return offRank[e.intn(len(offRank))].CardID
	}
	if len(matching) == 0 {
		return uuid.Nil
	}
	return matching[e.intn(len(matching))].CardID
}

// JackSwap resolves the rule list for the swap power. If no rule fires the
// power is skipped.
func (e *Engine) JackSwap(view engine.DecisionView) (engine.SwapTarget, engine.SwapTarget) {
	var first, second engine.SwapTarget
	e.fireRule(EventJackSwap, view, func(a Action) bool {
		if !a.Use {
			first, second = engine.SwapTarget{}, engine.SwapTarget{}
			return true
		}
		f, s := e.resolveSwapPair(view, a.Strategy)
		if f.CardID == uuid.Nil || s.CardID == uuid.Nil {
			return false
		}
		first, second = f, s
		return true
	})
	return first, second
}

// resolveSwapPair picks the two swap targets for a strategy, or zero targets
// when the strategy has no valid resolution.
func (e *Engine) resolveSwapPair(view engine.DecisionView, strategy string) (engine.SwapTarget, engine.SwapTarget) {
	none := engine.SwapTarget{}
	switch strategy {
	case "highest_own_for_lowest_theirs":
		own := uuid.Nil
		ownPoints := -1
		for _, c := range e.playableCards(view) {
			if c.Known && c.Points > ownPoints {
				own, ownPoints = c.CardID, c.Points
			}
		}
		theirs := none
		theirPoints := 99
		for _, o := range view.Opponents {
			for _, s := range o.Hand {
				if s.Blank || s.Locked || !s.Known {
					continue
				}
				if s.Points < theirPoints {
					theirs = engine.SwapTarget{PlayerID: o.PlayerID, CardID: s.CardID}
					theirPoints = s.Points
				}
			}
		}
		// The trade must actually gain points.
		if own == uuid.Nil || theirs.CardID == uuid.Nil || theirPoints >= ownPoints {
			return none, none
		}
		return engine.SwapTarget{PlayerID: view.PlayerID, CardID: own}, theirs
	case "random_pair":
		// One random card from each of two different opponents. With a single
		// opponent the pair spans that hand and the seat's own.
		var pools []struct {
			owner uuid.UUID
			cards []uuid.UUID
		}
		for _, o := range view.Opponents {
			var cards []uuid.UUID
			for _, s := range o.Hand {
				if !s.Blank && !s.Locked {
					cards = append(cards, s.CardID)
				}
			}
			if len(cards) > 0 {
				pools = append(pools, struct {
					owner uuid.UUID
					cards []uuid.UUID
				}{o.PlayerID, cards})
			}
		}
		if len(pools) >= 2 {
			i := e.intn(len(pools))
			j := e.intn(len(pools) - 1)
			if j >= i {
				j++
			}
			a, b := pools[i], pools[j]
			return engine.SwapTarget{PlayerID: a.owner, CardID: a.cards[e.intn(len(a.cards))]},
				engine.SwapTarget{PlayerID: b.owner, CardID: b.cards[e.intn(len(b.cards))]}
		}
		ownCards := e.playableCards(view)
		if len(pools) == 0 || len(ownCards) == 0 {
			return none, none
		}
		pool := pools[0]
		return engine.SwapTarget{PlayerID: view.PlayerID, CardID: ownCards[e.intn(len(ownCards))].CardID},
			engine.SwapTarget{PlayerID: pool.owner, CardID: pool.cards[e.intn(len(pool.cards))]}
	}
	return none, none
}

// QueenPeek targets an opponent card the seat does not already know.
func (e *Engine) QueenPeek(view engine.DecisionView) uuid.UUID {
	target := uuid.Nil
	e.fireRule(EventQueenPeek, view, func(a Action) bool {
		if !a.Use {
			target = uuid.Nil
			return true
		}
		var unknown []uuid.UUID
		for _, o := range view.Opponents {
			for _, s := range o.Hand {
				if !s.Blank && !s.Locked && !s.Known {
					unknown = append(unknown, s.CardID)
				}
			}
		}
		if len(unknown) == 0 {
			return false
		}
		target = unknown[e.intn(len(unknown))]
		return true
	})
	return target
}

// CollectFromDiscard is pure upside, so the default is to always grab a
// matching top card; rules can make a seat hesitate.
func (e *Engine) CollectFromDiscard(view engine.DecisionView, top *models.Card) bool {
	use := true
	rule, configured := e.fireRule(EventCollect, view, func(a Action) bool {
		use = a.Use
		return true
	})
	if configured && rule == nil {
		return false
	}
	return use
}

// InitialPeek looks at two random starting cards and defers the collection
// rank nomination to the first peeked card.
func (e *Engine) InitialPeek(view engine.DecisionView) ([2]uuid.UUID, string) {
	var ids [2]uuid.UUID
	var present []uuid.UUID
	for _, s := range view.Hand {
		if !s.Blank {
			present = append(present, s.CardID)
		}
	}
	if len(present) < 2 {
		return ids, ""
	}
	i := e.intn(len(present))
	j := e.intn(len(present) - 1)
	if j >= i {
		j++
	}
	ids[0], ids[1] = present[i], present[j]
	return ids, ""
}
