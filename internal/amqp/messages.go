package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by ledger events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Entities carried by ledger events.
const (
	EntityTransaction = "transaction"
	EntityInvoice     = "invoice"
)

// LedgerEventMessage announces that a collection changed. It carries
// only the entity kind, id and action; consumers re-read the current
// collections from storage, so a lost or reordered message can never
// corrupt derived state.
type LedgerEventMessage struct {
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event for one entity mutation.
func NewLedgerEvent(entity, entityID, action string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
