package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meadowhq/mdwd/logx"
	"github.com/meadowhq/mdwd/monitoring"
)

// DefaultCapacity is the number of recently submitted transactions
// retained for display when no explicit capacity is configured.
const DefaultCapacity = 7

// StatusLookup queries the chain for the current inclusion state of a
// transaction hash. ok=false means "no new information", not an error.
type StatusLookup interface {
	LookupStatus(ctx context.Context, txHash string) (Status, bool, error)
}

// StatusLookupFunc adapts a plain function to StatusLookup.
type StatusLookupFunc func(ctx context.Context, txHash string) (Status, bool, error)

func (f StatusLookupFunc) LookupStatus(ctx context.Context, txHash string) (Status, bool, error) {
	return f(ctx, txHash)
}

// StatusChange reports one transition applied during a refresh round.
type StatusChange struct {
	TxHash string
	From   Status
	To     Status
}

// Ledger maintains a capacity-bounded, insertion-ordered record of
// recently submitted transactions. Oldest records are evicted purely
// on count, never on status, so a still-pending transaction is dropped
// from tracking once enough newer ones arrive.
type Ledger struct {
	mu       sync.Mutex
	records  []Record
	capacity int
	lookup   StatusLookup
}

func NewLedger(capacity int, lookup StatusLookup) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		lookup:   lookup,
	}
}

// Add appends rec and trims from the front once the ledger exceeds
// capacity. Duplicate hashes are retained. Returns the evicted
// records, oldest first.
func (l *Ledger) Add(rec Record) []Record {
	l.mu.Lock()
	l.records = append(l.records, rec)
	var evicted []Record
	if n := len(l.records) - l.capacity; n > 0 {
		evicted = make([]Record, n)
		copy(evicted, l.records[:n])
		l.records = append(l.records[:0], l.records[n:]...)
	}
	l.updateGaugesLocked()
	l.mu.Unlock()

	logx.Info("LEDGER", fmt.Sprintf("Tracking transaction: %s (kind: %s, status: %s)",
		rec.Hash, rec.KindName(), rec.Status))
	for _, ev := range evicted {
		monitoring.IncreaseEvictedTxCount()
		logx.Warn("LEDGER", fmt.Sprintf("Evicted transaction from tracking: %s (status: %s)",
			ev.Hash, ev.Status))
	}
	return evicted
}

// UpdateStatus overwrites the status of the first record matching
// txHash. An absent hash is a silent no-op, as is any update against a
// record already in a terminal state. Returns whether a record changed.
func (l *Ledger) UpdateStatus(txHash string, status Status) bool {
	l.mu.Lock()
	changed := l.updateStatusLocked(txHash, status)
	if changed {
		l.updateGaugesLocked()
	}
	l.mu.Unlock()

	if changed {
		logx.Info("LEDGER", fmt.Sprintf("Transaction %s is now %s", txHash, status))
	}
	return changed
}

func (l *Ledger) updateStatusLocked(txHash string, status Status) bool {
	for i := range l.records {
		if l.records[i].Hash != txHash {
			continue
		}
		if l.records[i].Status.Terminal() || l.records[i].Status == status {
			return false
		}
		l.records[i].Status = status
		return true
	}
	return false
}

// updateAllMatchingLocked overwrites the status of every record with
// txHash, so duplicate hashes all move in the same refresh round. The
// prior status is read under the lock, making the reported From the
// transition actually applied.
func (l *Ledger) updateAllMatchingLocked(txHash string, status Status) []StatusChange {
	var changes []StatusChange
	for i := range l.records {
		if l.records[i].Hash != txHash {
			continue
		}
		if l.records[i].Status.Terminal() || l.records[i].Status == status {
			continue
		}
		changes = append(changes, StatusChange{TxHash: txHash, From: l.records[i].Status, To: status})
		l.records[i].Status = status
	}
	return changes
}

// RefreshAll queries the lookup capability once per record retained at
// entry and applies every reported status. A lookup returning no
// answer leaves its record unchanged, and a failing lookup is logged
// and skipped so the rest of the round proceeds. Records added or
// evicted while the round is running are not revisited until the next
// round. Length, ordering and all non-status fields are untouched.
func (l *Ledger) RefreshAll(ctx context.Context) []StatusChange {
	start := time.Now()

	l.mu.Lock()
	hashes := make([]string, len(l.records))
	for i, rec := range l.records {
		hashes[i] = rec.Hash
	}
	l.mu.Unlock()

	var changes []StatusChange
	for _, txHash := range hashes {
		status, ok, err := l.lookup.LookupStatus(ctx, txHash)
		if err != nil {
			monitoring.IncreaseLookupErrorCount()
			logx.Warn("LEDGER", fmt.Sprintf("Status lookup failed for %s: %v", txHash, err))
			continue
		}
		if !ok {
			continue
		}

		l.mu.Lock()
		applied := l.updateAllMatchingLocked(txHash, status)
		if len(applied) > 0 {
			l.updateGaugesLocked()
		}
		l.mu.Unlock()

		for _, ch := range applied {
			changes = append(changes, ch)
			logx.Info("LEDGER", fmt.Sprintf("Transaction %s is now %s (was %s)", ch.TxHash, ch.To, ch.From))
		}
	}

	monitoring.RecordRefreshRoundTime(time.Since(start))
	return changes
}

// Snapshot returns a copy of the current contents for display,
// insertion order preserved, most recent last.
func (l *Ledger) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	for i, rec := range l.records {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of currently retained records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Capacity returns the maximum number of retained records.
func (l *Ledger) Capacity() int {
	return l.capacity
}

func (l *Ledger) updateGaugesLocked() {
	counts := make(map[Status]int64, 4)
	for _, rec := range l.records {
		counts[rec.Status]++
	}
	for _, s := range []Status{StatusPendingApproval, StatusAwaitingInclusion, StatusIncluded, StatusRejected} {
		monitoring.SetTrackedTx(counts[s], string(s))
	}
}
