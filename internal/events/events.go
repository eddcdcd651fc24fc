package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/lending/api/internal/model"
	"github.com/google/uuid"
)

// Routing keys published on the lending exchange
const (
	LoanCreated              = "loan.created"
	LoanUpdated              = "loan.updated"
	LoanDeleted              = "loan.deleted"
	LoanStatusChanged        = "loan.status_changed"
	AccountRegistered        = "account.registered"
	AccountBlocked           = "account.blocked"
	AccountUnblocked         = "account.unblocked"
	AccountAccountantCreated = "account.accountant_created"
)

// DefaultExchange is the topic exchange events are published to
const DefaultExchange = "lending.events"

const publishTimeout = 5 * time.Second

// Event is the envelope for every published message
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	ActorID    string      `json:"actor_id,omitempty"`
	Data       interface{} `json:"data"`
}

// Publisher sends a message under a routing key
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// Recorder counts publish attempts
type Recorder interface {
	RecordEvent(routingKey string, err error)
}

// Emitter wraps a Publisher with the event envelope. Publishing is best
// effort: failures are logged and counted, never returned.
type Emitter struct {
	publisher Publisher
	recorder  Recorder
	now       func() time.Time
}

// EmitterConfig holds configuration for the emitter
type EmitterConfig struct {
	Publisher Publisher
	Recorder  Recorder // optional
	Now       func() time.Time
}

// NewEmitter creates a new emitter
func NewEmitter(cfg EmitterConfig) *Emitter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Emitter{publisher: cfg.Publisher, recorder: cfg.Recorder, now: cfg.Now}
}

// Emit publishes one event on behalf of actor
func (e *Emitter) Emit(ctx context.Context, routingKey string, actor model.Actor, data interface{}) {
	if e == nil || e.publisher == nil {
		return
	}

	evt := Event{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: e.now().UTC(),
		ActorID:    actor.ID,
		Data:       data,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := e.publisher.Publish(ctx, routingKey, evt)
	if e.recorder != nil {
		e.recorder.RecordEvent(routingKey, err)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("routing_key", routingKey),
			slog.String("event_id", evt.ID),
			slog.String("error", err.Error()),
		)
	}
}

// LoanPayload is the data carried by loan events
type LoanPayload struct {
	LoanID   string `json:"loan_id"`
	OwnerID  string `json:"owner_id"`
	Category string `json:"category,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Status   string `json:"status,omitempty"`
}

// NewLoanPayload builds the event data for loan
func NewLoanPayload(loan *model.Loan) LoanPayload {
	p := LoanPayload{
		LoanID:   loan.ID,
		OwnerID:  loan.OwnerID,
		Category: string(loan.Category),
		Amount:   loan.Amount.StringFixed(2),
		Status:   string(loan.Status),
	}
	if loan.Currency != nil {
		p.Currency = *loan.Currency
	}
	return p
}

// AccountPayload is the data carried by account events
type AccountPayload struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Blocked   bool   `json:"blocked"`
}

// NewAccountPayload builds the event data for account
func NewAccountPayload(account *model.Account) AccountPayload {
	return AccountPayload{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
		Blocked:   account.Blocked,
	}
}
