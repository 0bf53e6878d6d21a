package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Transaction lifecycle actions carried on the event feed.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// TransactionEventMessage is a lightweight record of a transaction lifecycle
// event. It carries ids only; consumers that need more fetch from storage.
type TransactionEventMessage struct {
	Action        string    `json:"action"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(action string, userID, transactionID int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		Action:        action,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// Validate rejects events with an unknown action or missing ids.
func (m *TransactionEventMessage) Validate() error {
	if m.Action != ActionCreated && m.Action != ActionDeleted {
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.UserID <= 0 || m.TransactionID <= 0 {
		return fmt.Errorf("incomplete event: user_id=%d transaction_id=%d", m.UserID, m.TransactionID)
	}
	return nil
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal transaction event: %w", err)
	}
	return &msg, nil
}
