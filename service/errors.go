package service

import (
	"errors"
	"fmt"
	"time"

	"guardwars/models"
)

var (
	ErrShieldActive           = errors.New("defender is protected by an active shield")
	ErrSameAccount            = errors.New("cannot attack yourself")
	ErrNotFound               = errors.New("not found")
	ErrWarNotActive           = errors.New("clan war is not active")
	ErrSelfWarForbidden       = errors.New("a clan cannot declare war on itself")
	ErrNotLeader              = errors.New("only the clan leader can do that")
	ErrNotWarParticipant      = errors.New("attacker and defender must be on opposite sides of the war")
	ErrWarAlreadyActive       = errors.New("a war between these clans is already in progress")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrentModification = errors.New("concurrent modification, try again")
	ErrCooldownActive         = errors.New("cooldown active")
	ErrInvalidAccessory       = errors.New("accessory cannot be used that way")
	ErrAlreadyInClan          = errors.New("account already belongs to a clan")
)

// CooldownActiveError reports when an action becomes available again
type CooldownActiveError struct {
	Kind           string
	NextEligibleAt time.Time
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("%s cooldown active until %s", e.Kind, e.NextEligibleAt.Format(time.RFC3339))
}

// Is lets errors.Is(err, ErrCooldownActive) match
func (e *CooldownActiveError) Is(target error) bool {
	return target == ErrCooldownActive
}

func newCooldownError(kind models.ActionKind, next time.Time) error {
	return &CooldownActiveError{Kind: string(kind), NextEligibleAt: next}
}

// IsRetryable reports whether the caller may safely retry the same request
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
