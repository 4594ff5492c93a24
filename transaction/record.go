package transaction

import "github.com/holiman/uint256"

// Status is the lifecycle state of a tracked transaction.
// PendingApproval -> AwaitingInclusion -> Included is the success path,
// AwaitingInclusion -> Rejected the failure path. A transaction already
// mined by submission time may enter directly at Included.
type Status string

const (
	StatusPendingApproval   Status = "PendingApproval"
	StatusAwaitingInclusion Status = "AwaitingInclusion"
	StatusIncluded          Status = "Included"
	StatusRejected          Status = "Rejected"
)

// Terminal reports whether no transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusIncluded || s == StatusRejected
}

// Kind tags the operation payload carried by a record. Each variant
// carries only the fields relevant to it.
type Kind interface {
	KindName() string
}

type TopUp struct {
	Amount *uint256.Int
}

type CollectFunds struct {
	Amount *uint256.Int
}

type UpdateContribution struct {
	Amount *uint256.Int
}

type UpdateBeneficiaries struct{}

type RegisterProject struct {
	Name string
}

type RegisterUser struct {
	Handle string
}

func (TopUp) KindName() string               { return "TopUp" }
func (CollectFunds) KindName() string        { return "CollectFunds" }
func (UpdateContribution) KindName() string  { return "UpdateContribution" }
func (UpdateBeneficiaries) KindName() string { return "UpdateBeneficiaries" }
func (RegisterProject) KindName() string     { return "RegisterProject" }
func (RegisterUser) KindName() string        { return "RegisterUser" }

// Record represents one submitted on-chain operation tracked by the
// daemon. Hash is assigned at submission time and immutable; only
// Status is mutated afterwards.
type Record struct {
	Hash      string
	Status    Status
	Kind      Kind
	Fee       *uint256.Int
	Timestamp uint64
}

func (r Record) KindName() string {
	if r.Kind == nil {
		return ""
	}
	return r.Kind.KindName()
}

// Clone returns a copy of r sharing no mutable state with the
// original. Amount pointers are duplicated so callers holding a
// snapshot cannot reach back into tracked records.
func (r Record) Clone() Record {
	r.Fee = cloneAmount(r.Fee)
	switch k := r.Kind.(type) {
	case TopUp:
		r.Kind = TopUp{Amount: cloneAmount(k.Amount)}
	case CollectFunds:
		r.Kind = CollectFunds{Amount: cloneAmount(k.Amount)}
	case UpdateContribution:
		r.Kind = UpdateContribution{Amount: cloneAmount(k.Amount)}
	}
	return r
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
