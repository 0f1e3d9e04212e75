package service

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"guardwars/config"
	"guardwars/models"
)

// Random is the source of the single draw made per attack
type Random interface {
	Float64() float64
}

// lockedRand is a math/rand source safe for concurrent use
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a goroutine-safe random source seeded with seed
func NewRandom(seed int64) Random {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// ResolveContext carries what resolution needs besides the two combatants
type ResolveContext struct {
	Now time.Time
	War *models.ClanWar
}

// CombatResolver turns two combatant snapshots into an attack outcome.
// It performs no I/O; applying the outcome is the transfer ledger's job.
type CombatResolver struct {
	rng Random
}

// NewCombatResolver creates a resolver drawing from rng
func NewCombatResolver(rng Random) *CombatResolver {
	if rng == nil {
		rng = NewRandom(time.Now().UnixNano())
	}
	return &CombatResolver{rng: rng}
}

// WinChance maps attacker and defender strength to a win probability. The curve is
// monotonic in attacker strength and clamped to the configured floor and ceiling.
func WinChance(attackerStrength, defenderStrength int64) float64 {
	cfg := config.Get()

	ratio := 0.5
	if total := attackerStrength + defenderStrength; total > 0 {
		ratio = float64(attackerStrength) / float64(total)
	}

	p := 0.5 + cfg.WinChanceSlope*(ratio-0.5)
	return math.Min(cfg.WinChanceCeiling, math.Max(cfg.WinChanceFloor, p))
}

// Resolve validates preconditions, draws once and decides what a win would steal
func (r *CombatResolver) Resolve(attacker, defender *models.CombatantSnapshot, rc ResolveContext) (*models.AttackOutcome, error) {
	if attacker.Account.ID == defender.Account.ID {
		return nil, ErrSameAccount
	}
	if defender.HasBoost(models.BoostTypeShield) {
		return nil, ErrShieldActive
	}

	var warID *int64
	if rc.War != nil {
		if !rc.War.IsActiveAt(rc.Now) {
			return nil, ErrWarNotActive
		}
		if err := checkWarSides(rc.War, attacker.Account, defender.Account); err != nil {
			return nil, err
		}
		id := rc.War.ID
		warID = &id
	}

	chance := WinChance(attacker.Strength(), defender.Strength())
	outcome := &models.AttackOutcome{
		WinChance: chance,
		IsWin:     r.rng.Float64() < chance,
		WarID:     warID,
	}
	if !outcome.IsWin {
		return outcome, nil
	}

	outcome.StolenMoney = StealAmount(defender.Account.Balance, attacker.HasBoost(models.BoostTypeRewardDoubling))
	if outcome.StolenMoney > 0 {
		outcome.Drafts = append(outcome.Drafts, models.StolenItemDraft{
			Type:  models.StolenItemTypeMoney,
			Value: outcome.StolenMoney,
		})
	}

	for _, g := range weakestCapturable(defender.Guards, config.Get().CapturedGuards) {
		id := g.ID
		outcome.CapturedGuardIDs = append(outcome.CapturedGuardIDs, id)
		outcome.Drafts = append(outcome.Drafts, models.StolenItemDraft{
			Type:    models.StolenItemTypeGuard,
			Value:   g.Strength,
			GuardID: &id,
		})
	}

	return outcome, nil
}

// StealAmount is the configured share of balance, doubled when reward doubling is
// active and never more than the balance itself
func StealAmount(balance int64, doubled bool) int64 {
	if balance <= 0 {
		return 0
	}
	amount := applyBasisPoints(balance, config.Get().StealBasisPoints)
	if doubled {
		amount = saturatingAdd(amount, amount)
	}
	if amount > balance {
		amount = balance
	}
	return amount
}

// applyBasisPoints returns floor(value*bps/10000) for non-negative inputs without
// overflowing the intermediate product; results beyond int64 saturate
func applyBasisPoints(value, bps int64) int64 {
	if value <= 0 || bps <= 0 {
		return 0
	}
	whole, rem := value/10000, value%10000
	if whole > math.MaxInt64/bps {
		return math.MaxInt64
	}
	return saturatingAdd(whole*bps, rem*bps/10000)
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func checkWarSides(war *models.ClanWar, attacker, defender *models.Account) error {
	if attacker.ClanID == nil || defender.ClanID == nil {
		return ErrNotWarParticipant
	}
	a, d := *attacker.ClanID, *defender.ClanID
	if a == d || !war.Involves(a) || !war.Involves(d) {
		return ErrNotWarParticipant
	}
	return nil
}

// weakestCapturable returns up to n non-first guards, weakest first, ties by id
func weakestCapturable(guards []*models.Guard, n int) []*models.Guard {
	if n <= 0 {
		return nil
	}
	eligible := make([]*models.Guard, 0, len(guards))
	for _, g := range guards {
		if g.Capturable() {
			eligible = append(eligible, g)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Strength != eligible[j].Strength {
			return eligible[i].Strength < eligible[j].Strength
		}
		return eligible[i].ID < eligible[j].ID
	})
	if len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible
}
