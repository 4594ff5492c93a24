package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/meadowhq/mdwd/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresherPublishesStatusChanges(t *testing.T) {
	lookup := StatusLookupFunc(func(ctx context.Context, txHash string) (Status, bool, error) {
		return StatusIncluded, true, nil
	})
	ledger := NewLedger(5, lookup)
	ledger.Add(awaiting("0x1"))

	bus := events.NewEventBus()
	_, ch := bus.Subscribe()

	r := NewRefresher(ledger, bus, 10*time.Millisecond)
	r.Start()
	defer r.Stop()

	select {
	case ev := <-ch:
		require.Equal(t, events.EventTransactionStatusChanged, ev.Type())
		assert.Equal(t, "0x1", ev.TxHash())
		changed := ev.(*events.TransactionStatusChanged)
		assert.Equal(t, string(StatusAwaitingInclusion), changed.From())
		assert.Equal(t, string(StatusIncluded), changed.To())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for status change event")
	}

	assert.Equal(t, StatusIncluded, ledger.Snapshot()[0].Status)
}

func TestRefresherStopTerminatesLoop(t *testing.T) {
	rounds := make(chan struct{}, 64)
	lookup := StatusLookupFunc(func(ctx context.Context, txHash string) (Status, bool, error) {
		select {
		case rounds <- struct{}{}:
		default:
		}
		return "", false, nil
	})
	ledger := NewLedger(5, lookup)
	ledger.Add(awaiting("0x1"))

	r := NewRefresher(ledger, nil, 10*time.Millisecond)
	r.Start()

	select {
	case <-rounds:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for first refresh round")
	}

	r.Stop()

	// Stop is idempotent.
	r.Stop()

	// No further rounds once stopped.
	for len(rounds) > 0 {
		<-rounds
	}
	select {
	case <-rounds:
		t.Fatal("refresh round ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRefresherDefaultInterval(t *testing.T) {
	r := NewRefresher(NewLedger(5, nil), nil, 0)
	assert.Equal(t, DefaultRefreshInterval, r.interval)
}
