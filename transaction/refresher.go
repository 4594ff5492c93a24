package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meadowhq/mdwd/events"
	"github.com/meadowhq/mdwd/logx"
)

// DefaultRefreshInterval is how often tracked transactions are
// re-polled for inclusion status when nothing else is configured.
const DefaultRefreshInterval = 10 * time.Second

// Refresher drives periodic status refresh rounds against the ledger
// and publishes every applied transition on the event bus. Stop must
// be called on daemon teardown; the ticker does not outlive its owner.
type Refresher struct {
	ledger   *Ledger
	bus      *events.EventBus
	interval time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewRefresher(ledger *Ledger, bus *events.EventBus, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		ledger:   ledger,
		bus:      bus,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (r *Refresher) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.runRound()
			case <-r.done:
				return
			}
		}
	}()
	logx.Info("REFRESHER", fmt.Sprintf("Started status refresh loop (interval: %s)", r.interval))
}

// Stop terminates the refresh loop and waits for an in-flight round to
// finish. Safe to call more than once.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	logx.Info("REFRESHER", "Stopped status refresh loop")
}

func (r *Refresher) runRound() {
	// One round must not bleed into the next.
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	changes := r.ledger.RefreshAll(ctx)
	if r.bus == nil {
		return
	}
	for _, ch := range changes {
		r.bus.Publish(events.NewTransactionStatusChanged(ch.TxHash, string(ch.From), string(ch.To)))
	}
}
