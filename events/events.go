package events

import (
	"context"
	"sync"
	"time"

	"guardwars/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeAttackResolved EventType = "attack_resolved"
	EventTypeBoostExtended  EventType = "boost_extended"
	EventTypeWarDeclared    EventType = "war_declared"
	EventTypeWarCompleted   EventType = "war_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change outside of combat
type BalanceChangeEvent struct {
	AccountID    int64
	OldBalance   int64
	NewBalance   int64
	Reason       models.EventType
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AttackResolvedEvent is published once an attack has been committed
type AttackResolvedEvent struct {
	AttackerID       int64
	DefenderID       int64
	ClanWarID        *int64
	WinChance        float64
	IsWin            bool
	StolenMoney      int64
	CapturedGuardIDs []int64
	OccurredAt       time.Time
}

func (e AttackResolvedEvent) Type() EventType {
	return EventTypeAttackResolved
}

// BoostExtendedEvent represents a boost being granted or extended
type BoostExtendedEvent struct {
	AccountID int64
	BoostType models.BoostType
	EndTime   *time.Time
}

func (e BoostExtendedEvent) Type() EventType {
	return EventTypeBoostExtended
}

// WarDeclaredEvent represents a new clan war
type WarDeclaredEvent struct {
	WarID           int64
	DeclaringClanID int64
	TargetClanID    int64
	EndTime         time.Time
}

func (e WarDeclaredEvent) Type() EventType {
	return EventTypeWarDeclared
}

// WarCompletedEvent represents a clan war transitioning to completed
type WarCompletedEvent struct {
	WarID        int64
	Clan1ID      int64
	Clan2ID      int64
	WinnerClanID *int64 // nil on a draw
	EarlyDefeat  bool
}

func (e WarCompletedEvent) Type() EventType {
	return EventTypeWarCompleted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			log.WithFields(log.Fields{
				"eventType":    event.Type(),
				"handlerIndex": handlerIndex,
			}).Debug("Calling event handler")
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Handlers outlive the request that committed the transaction
	eventCtx := context.Background()

	for _, ev := range b.pending {
		log.WithFields(log.Fields{
			"eventType": ev.Type(),
		}).Debug("Emitting event to main event bus")
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	log.Debug("All pending events flushed, transactional bus cleared")
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
