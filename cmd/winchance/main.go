// Standalone win chance analysis for the combat resolver.
// Runs many resolutions per strength pairing and compares observed win rates to the curve.
package main

import (
	"flag"
	"fmt"
	"math"
	"time"

	"guardwars/config"
	"guardwars/models"
	"guardwars/service"
)

type pairing struct {
	attacker int64
	defender int64
}

func main() {
	trials := flag.Int("trials", 100000, "resolutions per pairing")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	config.SetTestConfig(config.NewTestConfig())
	cfg := config.Get()

	fmt.Println("=== Guard Wars Win Chance Analysis ===")
	fmt.Printf("floor=%.2f ceiling=%.2f slope=%.2f steal=%dbps\n\n",
		cfg.WinChanceFloor, cfg.WinChanceCeiling, cfg.WinChanceSlope, cfg.StealBasisPoints)

	pairings := []pairing{
		{10, 1000}, {10, 100}, {50, 100}, {100, 100}, {100, 50}, {100, 10}, {1000, 10},
	}

	resolver := service.NewCombatResolver(service.NewRandom(*seed))
	for _, p := range pairings {
		analyzePairing(resolver, p, *trials)
	}
}

// analyzePairing resolves trials attacks and reports the deviation from WinChance
func analyzePairing(resolver *service.CombatResolver, p pairing, trials int) {
	attacker := combatant(1, 0, p.attacker)
	defender := combatant(2, 1000, p.defender)
	expected := service.WinChance(p.attacker, p.defender)

	wins := 0
	var stolen int64
	for i := 0; i < trials; i++ {
		outcome, err := resolver.Resolve(attacker, defender, service.ResolveContext{Now: time.Now()})
		if err != nil {
			fmt.Printf("%d vs %d: resolve failed: %v\n", p.attacker, p.defender, err)
			return
		}
		if outcome.IsWin {
			wins++
			stolen += outcome.StolenMoney
		}
	}

	actual := float64(wins) / float64(trials)
	expectedWins := float64(trials) * expected
	expectedLosses := float64(trials) * (1 - expected)
	chiSquared := math.Pow(float64(wins)-expectedWins, 2)/expectedWins +
		math.Pow(float64(trials-wins)-expectedLosses, 2)/expectedLosses

	status := "PASS"
	if math.Abs(actual-expected) > 0.02 {
		status = "FAIL"
	}

	avgSteal := 0.0
	if wins > 0 {
		avgSteal = float64(stolen) / float64(wins)
	}
	fmt.Printf("%5d vs %-5d | expected %.4f | actual %.4f | chi2 %6.2f | avg steal %.1f | %s\n",
		p.attacker, p.defender, expected, actual, chiSquared, avgSteal, status)
}

func combatant(id, balance, strength int64) *models.CombatantSnapshot {
	return &models.CombatantSnapshot{
		Account:     &models.Account{ID: id, Balance: balance},
		Guards:      []*models.Guard{{ID: id * 10, AccountID: id, Strength: strength, IsFirst: true}},
		ActiveBoost: map[models.BoostType]bool{},
	}
}
