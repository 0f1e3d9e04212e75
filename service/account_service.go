package service

import (
	"context"
	"fmt"
	"strings"

	"guardwars/config"
	"guardwars/models"

	log "github.com/sirupsen/logrus"
)

const firstGuardName = "Recruit"

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{uowFactory: uowFactory}
}

func (s *accountService) Register(ctx context.Context, username string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().Create(ctx, username, cfg.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	first := &models.Guard{
		AccountID: account.ID,
		Name:      firstGuardName,
		Strength:  cfg.FirstGuardStrength,
		IsFirst:   true,
	}
	if err := uow.GuardRepository().Create(ctx, first); err != nil {
		return nil, fmt.Errorf("failed to create first guard: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID": account.ID,
		"username":  username,
	}).Info("Account registered")

	return account, nil
}

func (s *accountService) CreateClan(ctx context.Context, leaderID int64, name string) (*models.Clan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("clan name cannot be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	locked, err := uow.AccountRepository().LockByIDs(ctx, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	leader := locked[leaderID]
	if leader == nil {
		return nil, fmt.Errorf("account %d: %w", leaderID, ErrNotFound)
	}
	if leader.ClanID != nil {
		return nil, fmt.Errorf("account %d in clan %d: %w", leaderID, *leader.ClanID, ErrAlreadyInClan)
	}

	clan, err := uow.ClanRepository().Create(ctx, name, &leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create clan: %w", err)
	}
	if err := uow.AccountRepository().SetClan(ctx, leaderID, &clan.ID); err != nil {
		return nil, fmt.Errorf("failed to join clan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return clan, nil
}

func (s *accountService) JoinClan(ctx context.Context, accountID, clanID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	clan, err := uow.ClanRepository().GetByID(ctx, clanID)
	if err != nil {
		return fmt.Errorf("failed to get clan: %w", err)
	}
	if clan == nil {
		return fmt.Errorf("clan %d: %w", clanID, ErrNotFound)
	}

	locked, err := uow.AccountRepository().LockByIDs(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	account := locked[accountID]
	if account == nil {
		return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	// Leaving a clan is not supported, so a leader can never strand their clan
	if account.ClanID != nil {
		return fmt.Errorf("account %d in clan %d: %w", accountID, *account.ClanID, ErrAlreadyInClan)
	}

	if err := uow.AccountRepository().SetClan(ctx, accountID, &clanID); err != nil {
		return fmt.Errorf("failed to join clan: %w", err)
	}

	return uow.Commit()
}
