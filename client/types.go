package client

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/meadowhq/mdwd/transaction"
)

var (
	ErrInvalidAmount = errors.New("client: amount must be > 0")
	ErrEmptyEndpoint = errors.New("client: node endpoint not configured")
)

// Tx is the unsigned registry transaction payload sent to the node.
type Tx struct {
	Kind      string
	Sender    string
	Amount    *uint256.Int
	Fee       *uint256.Int
	Nonce     uint64
	Timestamp uint64
	Memo      string
}

// SignedTx pairs a transaction with its base58-encoded signature.
type SignedTx struct {
	Tx  *Tx
	Sig string
}

// SubmitResult is what the daemon keeps from a successful submission:
// the handle used to track the transaction and the status the node
// reported at submission time.
type SubmitResult struct {
	TxHash string
	Status transaction.Status
}

// Node-side transaction status codes.
const (
	TxStatusFailed   int32 = 0
	TxStatusIncluded int32 = 1
	TxStatusPending  int32 = 2 // accepted, awaiting inclusion in a block
	TxStatusQueued   int32 = 3 // queued until the registry approves the operation
)

// statusFromCode maps a node status code onto the ledger lifecycle.
// Unknown codes yield ok=false, which callers treat as "no answer".
func statusFromCode(code int32) (transaction.Status, bool) {
	switch code {
	case TxStatusFailed:
		return transaction.StatusRejected, true
	case TxStatusIncluded:
		return transaction.StatusIncluded, true
	case TxStatusPending:
		return transaction.StatusAwaitingInclusion, true
	case TxStatusQueued:
		return transaction.StatusPendingApproval, true
	}
	return "", false
}

// --- wire types mirroring the node's JSON-RPC surface ---

type txMsg struct {
	Kind      string `json:"kind"`
	Sender    string `json:"sender"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
	Nonce     uint64 `json:"nonce"`
	Timestamp uint64 `json:"timestamp"`
	Memo      string `json:"memo,omitempty"`
}

type submitTxParams struct {
	TxMsg     txMsg  `json:"tx_msg"`
	Signature string `json:"signature"`
}

type submitTxResponse struct {
	Ok     bool   `json:"ok"`
	TxHash string `json:"tx_hash"`
	Status int32  `json:"status"`
	Error  string `json:"error"`
}

type txStatusRequest struct {
	TxHash string `json:"tx_hash"`
}

type txStatusResponse struct {
	TxHash       string `json:"tx_hash"`
	Found        bool   `json:"found"`
	Status       int32  `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type healthCheckResponse struct {
	Ok bool `json:"ok"`
}

func (tx *Tx) wire() txMsg {
	return txMsg{
		Kind:      tx.Kind,
		Sender:    tx.Sender,
		Amount:    uint256ToString(tx.Amount),
		Fee:       uint256ToString(tx.Fee),
		Nonce:     tx.Nonce,
		Timestamp: tx.Timestamp,
		Memo:      tx.Memo,
	}
}

// uint256ToString converts a *uint256.Int to string, returning "0" if nil
func uint256ToString(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
