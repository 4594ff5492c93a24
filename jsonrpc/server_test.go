package jsonrpc

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/meadowhq/mdwd/client"
	"github.com/meadowhq/mdwd/events"
	"github.com/meadowhq/mdwd/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	submitResult client.SubmitResult
	submitErr    error
	submitted    []client.SignedTx
	statuses     map[string]transaction.Status
}

func (f *fakeChain) SubmitTx(ctx context.Context, signed client.SignedTx) (client.SubmitResult, error) {
	f.submitted = append(f.submitted, signed)
	if f.submitErr != nil {
		return client.SubmitResult{}, f.submitErr
	}
	return f.submitResult, nil
}

func (f *fakeChain) LookupStatus(ctx context.Context, txHash string) (transaction.Status, bool, error) {
	s, ok := f.statuses[txHash]
	return s, ok, nil
}

func (f *fakeChain) CheckHealth(ctx context.Context) error { return nil }
func (f *fakeChain) Close() error                          { return nil }

func newTestServer(t *testing.T, chain *fakeChain) (*Server, *transaction.Ledger) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	ledger := transaction.NewLedger(5, chain)
	return NewServer(":0", ledger, chain, events.NewEventBus(), priv), ledger
}

func TestRPCSubmitTx(t *testing.T) {
	chain := &fakeChain{
		submitResult: client.SubmitResult{TxHash: "0x1", Status: transaction.StatusAwaitingInclusion},
	}
	s, ledger := newTestServer(t, chain)

	res, rpcErr := s.rpcSubmitTx(context.Background(), submitTxParams{
		Kind:   "top_up",
		Amount: "100",
		Fee:    "1",
		Nonce:  1,
	})
	require.Nil(t, rpcErr)

	resp := res.(*submitTxResponse)
	assert.True(t, resp.Ok)
	assert.Equal(t, "0x1", resp.TxHash)
	assert.Equal(t, "AwaitingInclusion", resp.Status)

	require.Len(t, chain.submitted, 1)
	signed := chain.submitted[0]
	assert.Equal(t, "TopUp", signed.Tx.Kind)
	assert.Equal(t, s.sender, signed.Tx.Sender)
	assert.True(t, client.Verify(signed.Tx, signed.Sig))

	snapshot := ledger.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "0x1", snapshot[0].Hash)
	assert.Equal(t, transaction.StatusAwaitingInclusion, snapshot[0].Status)
	assert.Equal(t, "TopUp", snapshot[0].KindName())
}

func TestRPCSubmitTxPublishesLedgerEvents(t *testing.T) {
	chain := &fakeChain{}
	s, ledger := newTestServer(t, chain)
	_, ch := s.bus.Subscribe()

	// One more submission than the ledger holds, so the oldest record
	// is pushed out and an eviction is announced alongside it.
	total := ledger.Capacity() + 1
	for i := 1; i <= total; i++ {
		chain.submitResult = client.SubmitResult{
			TxHash: fmt.Sprintf("0x%d", i),
			Status: transaction.StatusAwaitingInclusion,
		}
		res, rpcErr := s.rpcSubmitTx(context.Background(), submitTxParams{
			Kind:  "update_beneficiaries",
			Fee:   "1",
			Nonce: uint64(i),
		})
		require.Nil(t, rpcErr)
		require.True(t, res.(*submitTxResponse).Ok)
	}

	var submitted, evicted []events.LedgerEvent
	for len(submitted)+len(evicted) < total+1 {
		select {
		case ev := <-ch:
			switch ev.Type() {
			case events.EventTransactionSubmitted:
				submitted = append(submitted, ev)
			case events.EventTransactionEvicted:
				evicted = append(evicted, ev)
			default:
				t.Fatalf("unexpected event type %s", ev.Type())
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events, got %d submitted and %d evicted",
				len(submitted), len(evicted))
		}
	}

	require.Len(t, submitted, total)
	first := submitted[0].(*events.TransactionSubmitted)
	assert.Equal(t, "0x1", first.TxHash())
	assert.Equal(t, "UpdateBeneficiaries", first.Kind())

	require.Len(t, evicted, 1)
	assert.Equal(t, "0x1", evicted[0].TxHash())
}

func TestRPCSubmitTxChainFailureLeavesLedgerUntouched(t *testing.T) {
	chain := &fakeChain{submitErr: errors.New("node unreachable")}
	s, ledger := newTestServer(t, chain)

	res, rpcErr := s.rpcSubmitTx(context.Background(), submitTxParams{
		Kind:   "collect_funds",
		Amount: "50",
		Fee:    "1",
	})
	require.Nil(t, rpcErr)

	resp := res.(*submitTxResponse)
	assert.False(t, resp.Ok)
	assert.Contains(t, resp.Error, "node unreachable")
	assert.Equal(t, 0, ledger.Len())
}

func TestRPCSubmitTxValidation(t *testing.T) {
	s, _ := newTestServer(t, &fakeChain{})

	cases := []struct {
		name   string
		params submitTxParams
	}{
		{"unknown kind", submitTxParams{Kind: "burn_it_all", Fee: "1"}},
		{"missing amount", submitTxParams{Kind: "top_up", Fee: "1"}},
		{"bad amount", submitTxParams{Kind: "top_up", Amount: "not-a-number", Fee: "1"}},
		{"missing fee", submitTxParams{Kind: "update_beneficiaries"}},
		{"missing project name", submitTxParams{Kind: "register_project", Fee: "1"}},
		{"missing user handle", submitTxParams{Kind: "register_user", Fee: "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, rpcErr := s.rpcSubmitTx(context.Background(), tc.params)
			require.NotNil(t, rpcErr)
			assert.Equal(t, -32602, rpcErr.Code)
		})
	}
}

func TestRPCListTransactions(t *testing.T) {
	s, ledger := newTestServer(t, &fakeChain{})

	ledger.Add(transaction.Record{
		Hash:      "0x1",
		Status:    transaction.StatusAwaitingInclusion,
		Kind:      transaction.TopUp{Amount: amount(t, "100")},
		Fee:       amount(t, "1"),
		Timestamp: 1700000000,
	})
	ledger.Add(transaction.Record{
		Hash:   "0x2",
		Status: transaction.StatusPendingApproval,
		Kind:   transaction.RegisterProject{Name: "meadow"},
	})

	res, rpcErr := s.rpcListTransactions()
	require.Nil(t, rpcErr)

	resp := res.(*listTransactionsResponse)
	assert.Equal(t, uint64(2), resp.TotalCount)
	require.Len(t, resp.Txs, 2)

	assert.Equal(t, "0x1", resp.Txs[0].TxHash)
	assert.Equal(t, "TopUp", resp.Txs[0].Kind)
	assert.Equal(t, "100", resp.Txs[0].Amount)
	assert.Equal(t, "1", resp.Txs[0].Fee)
	assert.Equal(t, "AwaitingInclusion", resp.Txs[0].Status)

	assert.Equal(t, "RegisterProject", resp.Txs[1].Kind)
	assert.Empty(t, resp.Txs[1].Amount)
}

func TestRPCTxStatus(t *testing.T) {
	s, ledger := newTestServer(t, &fakeChain{})
	ledger.Add(transaction.Record{Hash: "0x1", Status: transaction.StatusIncluded, Kind: transaction.UpdateBeneficiaries{}})

	res, rpcErr := s.rpcTxStatus(txStatusRequest{TxHash: "0x1"})
	require.Nil(t, rpcErr)
	resp := res.(*txStatusResponse)
	assert.True(t, resp.Found)
	assert.Equal(t, "Included", resp.Status)

	res, rpcErr = s.rpcTxStatus(txStatusRequest{TxHash: "0x404"})
	require.Nil(t, rpcErr)
	assert.False(t, res.(*txStatusResponse).Found)

	_, rpcErr = s.rpcTxStatus(txStatusRequest{})
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestRPCRefresh(t *testing.T) {
	chain := &fakeChain{statuses: map[string]transaction.Status{
		"0x1": transaction.StatusIncluded,
	}}
	s, ledger := newTestServer(t, chain)
	ledger.Add(transaction.Record{Hash: "0x1", Status: transaction.StatusAwaitingInclusion, Kind: transaction.UpdateBeneficiaries{}})
	ledger.Add(transaction.Record{Hash: "0x2", Status: transaction.StatusAwaitingInclusion, Kind: transaction.UpdateBeneficiaries{}})

	res, rpcErr := s.rpcRefresh(context.Background())
	require.Nil(t, rpcErr)
	assert.Equal(t, 1, res.(*refreshResponse).Changed)
	assert.Equal(t, transaction.StatusIncluded, ledger.Snapshot()[0].Status)
	assert.Equal(t, transaction.StatusAwaitingInclusion, ledger.Snapshot()[1].Status)
}

func amount(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}
