package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardwars/config"
	"guardwars/events"
	"guardwars/metrics"
	"guardwars/models"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

const warDeclareCooldownKind = "war_declare"

type clanWarService struct {
	uowFactory UnitOfWorkFactory
	pipeline   *AttackPipeline
}

// NewClanWarService creates a new clan war service
func NewClanWarService(uowFactory UnitOfWorkFactory, pipeline *AttackPipeline) ClanWarService {
	return &clanWarService{
		uowFactory: uowFactory,
		pipeline:   pipeline,
	}
}

func (s *clanWarService) DeclareWar(ctx context.Context, leaderID, targetClanID int64, now time.Time) (*models.ClanWar, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	leader, err := uow.AccountRepository().GetByID(ctx, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if leader == nil {
		return nil, fmt.Errorf("account %d: %w", leaderID, ErrNotFound)
	}
	if leader.ClanID == nil {
		return nil, ErrNotLeader
	}
	ownClanID := *leader.ClanID
	if ownClanID == targetClanID {
		return nil, ErrSelfWarForbidden
	}

	// Lock both clans in id order so crossing declarations cannot deadlock
	clans := make(map[int64]*models.Clan, 2)
	for _, id := range uniqueSorted([]int64{ownClanID, targetClanID}) {
		clan, err := uow.ClanRepository().GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get clan: %w", err)
		}
		if clan == nil {
			return nil, fmt.Errorf("clan %d: %w", id, ErrNotFound)
		}
		clans[id] = clan
	}

	own := clans[ownClanID]
	if !own.IsLeader(leaderID) {
		return nil, ErrNotLeader
	}
	if own.WarCooldownUntil != nil && now.Before(*own.WarCooldownUntil) {
		return nil, &CooldownActiveError{Kind: warDeclareCooldownKind, NextEligibleAt: *own.WarCooldownUntil}
	}

	existing, err := uow.ClanWarRepository().GetActiveBetween(ctx, ownClanID, targetClanID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing war: %w", err)
	}
	if existing != nil {
		return nil, ErrWarAlreadyActive
	}

	war := &models.ClanWar{
		Clan1ID:   ownClanID,
		Clan2ID:   targetClanID,
		StartTime: now,
		EndTime:   now.Add(cfg.WarDuration),
		Status:    models.ClanWarStatusInProgress,
	}
	if err := uow.ClanWarRepository().Create(ctx, war); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrWarAlreadyActive
		}
		return nil, fmt.Errorf("failed to create clan war: %w", err)
	}

	if err := uow.ClanRepository().SetWarCooldown(ctx, ownClanID, now.Add(cfg.WarDeclareCooldown)); err != nil {
		return nil, fmt.Errorf("failed to set war cooldown: %w", err)
	}

	uow.EventBus().Publish(events.WarDeclaredEvent{
		WarID:           war.ID,
		DeclaringClanID: ownClanID,
		TargetClanID:    targetClanID,
		EndTime:         war.EndTime,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"warID":        war.ID,
		"clanID":       ownClanID,
		"targetClanID": targetClanID,
		"endTime":      war.EndTime,
	}).Info("Clan war declared")

	return war, nil
}

func (s *clanWarService) AttackInWar(ctx context.Context, attackerID, defenderID, warID int64, now time.Time) (*models.AttackResult, error) {
	war, err := s.getWar(ctx, warID)
	if err != nil {
		return nil, err
	}
	if !war.IsActiveAt(now) {
		return nil, ErrWarNotActive
	}

	result, err := s.pipeline.Run(ctx, attackerID, defenderID, war, now)
	if err != nil {
		return nil, err
	}

	if result.Outcome.IsWin && result.Commit != nil && config.Get().WarEarlyDefeat {
		if err := s.checkEarlyDefeat(ctx, war, attackerID, defenderID, result.Commit.CapturedGuardIDs, now); err != nil {
			// The attack itself is committed; the sweep still closes the war later
			log.WithFields(log.Fields{
				"warID": warID,
				"error": err,
			}).Error("Failed to check early defeat")
		}
	}

	return result, nil
}

func (s *clanWarService) Sweep(ctx context.Context, now time.Time) (*models.SweepReport, error) {
	started := time.Now()
	defer func() { metrics.RecordSweep(time.Since(started)) }()

	expired, err := s.listExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &models.SweepReport{Examined: len(expired)}
	var failed int
	var firstErr error

	for _, war := range expired {
		completed, err := s.finalize(ctx, war.ID, nil, now)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			log.WithFields(log.Fields{
				"warID": war.ID,
				"error": err,
			}).Error("Failed to finalize clan war")
			continue
		}
		if completed {
			report.Completed = append(report.Completed, war.ID)
		} else {
			report.Skipped = append(report.Skipped, war.ID)
		}
	}

	if failed > 0 {
		return report, fmt.Errorf("%d of %d wars failed to finalize: %w", failed, len(expired), firstErr)
	}
	return report, nil
}

func (s *clanWarService) getWar(ctx context.Context, warID int64) (*models.ClanWar, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	war, err := uow.ClanWarRepository().GetByID(ctx, warID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clan war: %w", err)
	}
	if war == nil {
		return nil, fmt.Errorf("clan war %d: %w", warID, ErrNotFound)
	}
	return war, nil
}

func (s *clanWarService) listExpired(ctx context.Context, now time.Time) ([]*models.ClanWar, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wars, err := uow.ClanWarRepository().ListExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired wars: %w", err)
	}
	return wars, nil
}

// checkEarlyDefeat ends the war in the attacker clan's favour when the attack just
// captured the defending clan's last capturable guard. A clan that never had
// capturable guards is not defeated by a win that took none.
func (s *clanWarService) checkEarlyDefeat(ctx context.Context, war *models.ClanWar, attackerID, defenderID int64, captured []int64, now time.Time) error {
	if len(captured) == 0 {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	attacker, err := uow.AccountRepository().GetByID(ctx, attackerID)
	if err != nil {
		return fmt.Errorf("failed to get attacker: %w", err)
	}
	if attacker == nil || attacker.ClanID == nil || !war.Involves(*attacker.ClanID) {
		return nil
	}
	defendingClanID := war.Opponent(*attacker.ClanID)

	remaining, err := uow.GuardRepository().CountCapturableByClan(ctx, defendingClanID)
	if err != nil {
		return fmt.Errorf("failed to count capturable guards: %w", err)
	}
	uow.Rollback()

	if remaining > 0 {
		return nil
	}

	winner := *attacker.ClanID
	completed, err := s.finalize(ctx, war.ID, &winner, now)
	if err != nil {
		return err
	}
	if completed {
		log.WithFields(log.Fields{
			"warID":        war.ID,
			"winnerClanID": winner,
			"defenderID":   defenderID,
		}).Info("Clan war ended early, defending clan has no guards left")
	}
	return nil
}

// finalize completes one war in a single transaction. The conditional status update
// makes it safe to call any number of times; only the first call tallies.
func (s *clanWarService) finalize(ctx context.Context, warID int64, forcedWinner *int64, now time.Time) (bool, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	war, err := uow.ClanWarRepository().Complete(ctx, warID, now)
	if err != nil {
		return false, fmt.Errorf("failed to complete war %d: %w", warID, err)
	}
	if war == nil {
		return false, nil
	}

	winner := forcedWinner
	if winner == nil {
		tally, err := uow.ClanWarRepository().Tally(ctx, warID, cfg.WarGuardValue)
		if err != nil {
			return false, fmt.Errorf("failed to tally war %d: %w", warID, err)
		}
		winner = DecideWarWinner(war, tally, cfg.WarTallyPolicy, cfg.WarTieBreak)
	}

	if winner != nil {
		if err := uow.ClanWarRepository().SetWinner(ctx, warID, *winner); err != nil {
			return false, fmt.Errorf("failed to set war winner: %w", err)
		}
		if err := uow.ClanRepository().RecordWarResult(ctx, *winner, war.Opponent(*winner)); err != nil {
			return false, fmt.Errorf("failed to record war result: %w", err)
		}
		war.WinnerClanID = winner
	}

	uow.EventBus().Publish(events.WarCompletedEvent{
		WarID:        war.ID,
		Clan1ID:      war.Clan1ID,
		Clan2ID:      war.Clan2ID,
		WinnerClanID: winner,
		EarlyDefeat:  forcedWinner != nil,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"warID":        war.ID,
		"winnerClanID": winnerField(winner),
	}).Info("Clan war completed")

	return true, nil
}

// DecideWarWinner applies the tally policy and tie-break to a war. A nil result is a draw.
func DecideWarWinner(war *models.ClanWar, tally *models.WarTally, policy, tieBreak string) *int64 {
	var first, second int64
	switch policy {
	case config.WarTallyAttackCount:
		first, second = int64(tally.Clan1Attacks), int64(tally.Clan2Attacks)
	default:
		first, second = tally.Clan1Value, tally.Clan2Value
	}

	switch {
	case first > second:
		return &war.Clan1ID
	case second > first:
		return &war.Clan2ID
	}

	switch tieBreak {
	case config.WarTieBreakDeclarer:
		return &war.Clan1ID
	case config.WarTieBreakDefender:
		return &war.Clan2ID
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// winnerField renders a war winner for log fields
func winnerField(winner *int64) interface{} {
	if winner == nil {
		return "draw"
	}
	return *winner
}
