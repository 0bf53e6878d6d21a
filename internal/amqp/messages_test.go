package amqp

import (
	"testing"
)

func TestTransactionEventMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     TransactionEventMessage
		wantErr bool
	}{
		{"valid created", TransactionEventMessage{Action: ActionCreated, UserID: 1, TransactionID: 2}, false},
		{"valid deleted", TransactionEventMessage{Action: ActionDeleted, UserID: 1, TransactionID: 2}, false},
		{"unknown action", TransactionEventMessage{Action: "updated", UserID: 1, TransactionID: 2}, true},
		{"missing user", TransactionEventMessage{Action: ActionCreated, TransactionID: 2}, true},
		{"missing transaction", TransactionEventMessage{Action: ActionCreated, UserID: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionEventMessageJSON(t *testing.T) {
	msg := NewTransactionEventMessage(ActionCreated, 7, 42)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	decoded, err := TransactionEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if decoded.Action != ActionCreated || decoded.UserID != 7 || decoded.TransactionID != 42 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}

	if _, err := TransactionEventMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
