package events

import "time"

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventTransactionSubmitted     EventType = "TransactionSubmitted"
	EventTransactionStatusChanged EventType = "TransactionStatusChanged"
	EventTransactionEvicted       EventType = "TransactionEvicted"
)

// LedgerEvent represents any change to the tracked transaction ledger
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	TxHash() string
}

// TransactionSubmitted event when a transaction enters the ledger
type TransactionSubmitted struct {
	txHash    string
	kind      string
	status    string
	timestamp time.Time
}

func NewTransactionSubmitted(txHash, kind, status string) *TransactionSubmitted {
	return &TransactionSubmitted{
		txHash:    txHash,
		kind:      kind,
		status:    status,
		timestamp: time.Now(),
	}
}

func (e *TransactionSubmitted) Type() EventType {
	return EventTransactionSubmitted
}

func (e *TransactionSubmitted) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionSubmitted) TxHash() string {
	return e.txHash
}

func (e *TransactionSubmitted) Kind() string {
	return e.kind
}

func (e *TransactionSubmitted) Status() string {
	return e.status
}

// TransactionStatusChanged event when a tracked transaction moves to a
// new lifecycle state
type TransactionStatusChanged struct {
	txHash    string
	from      string
	to        string
	timestamp time.Time
}

func NewTransactionStatusChanged(txHash, from, to string) *TransactionStatusChanged {
	return &TransactionStatusChanged{
		txHash:    txHash,
		from:      from,
		to:        to,
		timestamp: time.Now(),
	}
}

func (e *TransactionStatusChanged) Type() EventType {
	return EventTransactionStatusChanged
}

func (e *TransactionStatusChanged) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionStatusChanged) TxHash() string {
	return e.txHash
}

func (e *TransactionStatusChanged) From() string {
	return e.from
}

func (e *TransactionStatusChanged) To() string {
	return e.to
}

// TransactionEvicted event when a transaction is dropped from tracking
// by capacity eviction
type TransactionEvicted struct {
	txHash    string
	status    string
	timestamp time.Time
}

func NewTransactionEvicted(txHash, status string) *TransactionEvicted {
	return &TransactionEvicted{
		txHash:    txHash,
		status:    status,
		timestamp: time.Now(),
	}
}

func (e *TransactionEvicted) Type() EventType {
	return EventTransactionEvicted
}

func (e *TransactionEvicted) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionEvicted) TxHash() string {
	return e.txHash
}

func (e *TransactionEvicted) Status() string {
	return e.status
}
