package interfaces

import (
	"context"

	"github.com/meadowhq/mdwd/client"
	"github.com/meadowhq/mdwd/transaction"
)

// ChainClient is the node-facing capability the daemon consumes:
// submit a signed transaction, query inclusion status, check liveness.
type ChainClient interface {
	transaction.StatusLookup
	SubmitTx(ctx context.Context, signed client.SignedTx) (client.SubmitResult, error)
	CheckHealth(ctx context.Context) error
	Close() error
}
