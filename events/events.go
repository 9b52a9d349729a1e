package events

import (
	"context"
	"sync"

	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeUserCreated     EventType = "user_created"
	EventTypeOfferCreated    EventType = "pvp_offer_created"
	EventTypeDuelFinished    EventType = "pvp_duel_finished"
	EventTypePromoRedeemed   EventType = "promo_redeemed"
	EventTypeGiveawayJoined  EventType = "giveaway_joined"
	EventTypeSocialSubmitted EventType = "social_submitted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                  `json:"user_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a first-time registration
type UserCreatedEvent struct {
	UserID         int64  `json:"user_id"`
	ShortID        int64  `json:"short_id"`
	Username       string `json:"username"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// OfferCreatedEvent is emitted when a challenger posts a duel offer
type OfferCreatedEvent struct {
	BattleID     int64 `json:"battle_id"`
	ChallengerID int64 `json:"challenger_id"`
	Bet          int64 `json:"bet"`
}

func (e OfferCreatedEvent) Type() EventType {
	return EventTypeOfferCreated
}

// DuelFinishedEvent is emitted once a duel has been settled
type DuelFinishedEvent struct {
	BattleID       int64              `json:"battle_id"`
	ChallengerID   int64              `json:"challenger_id"`
	AcceptorID     int64              `json:"acceptor_id"`
	Bet            int64              `json:"bet"`
	ChallengerRoll int                `json:"challenger_roll"`
	AcceptorRoll   int                `json:"acceptor_roll"`
	Outcome        models.DuelOutcome `json:"outcome"`
}

func (e DuelFinishedEvent) Type() EventType {
	return EventTypeDuelFinished
}

// PromoRedeemedEvent is emitted after a successful promo activation
type PromoRedeemedEvent struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
	Reward int64  `json:"reward"`
}

func (e PromoRedeemedEvent) Type() EventType {
	return EventTypePromoRedeemed
}

// GiveawayJoinedEvent is emitted when a user enters a giveaway for the first time
type GiveawayJoinedEvent struct {
	GiveawayID int64 `json:"giveaway_id"`
	UserID     int64 `json:"user_id"`
}

func (e GiveawayJoinedEvent) Type() EventType {
	return EventTypeGiveawayJoined
}

// SocialSubmittedEvent is emitted when a social account is queued for moderation
type SocialSubmittedEvent struct {
	UserID   int64                 `json:"user_id"`
	Platform models.SocialPlatform `json:"platform"`
	Nick     string                `json:"nick"`
}

func (e SocialSubmittedEvent) Type() EventType {
	return EventTypeSocialSubmitted
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

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
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
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a request
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
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

// TransactionalBus holds events raised inside a unit of work until it commits.
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

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	out := make([]Event, len(b.pending))
	copy(out, b.pending)
	return out
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events to main event bus")

	// The request context may already be cancelled by the time handlers run
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
