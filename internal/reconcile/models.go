package reconcile

import "dhruva/pkg/domain"

// DriftStatus compares an approved vetting request with the ledger's
// issuer registry.
type DriftStatus string

const (
	DriftInSync DriftStatus = "in_sync"
	// DriftMissingOnChain means the wallet is not authorized and the caller
	// could fix it with a sync.
	DriftMissingOnChain DriftStatus = "missing_on_chain"
	// DriftUnauthorizedCaller means the wallet is not authorized and the
	// caller lacks the ledger privilege to authorize it.
	DriftUnauthorizedCaller DriftStatus = "unauthorized_caller"
)

type Drift struct {
	RequestID domain.VettingID
	Wallet    string
	Caller    string
	Status    DriftStatus
}

type SyncStatus string

const (
	SyncAuthorized        SyncStatus = "authorized"
	SyncAlreadyAuthorized SyncStatus = "already_authorized"
)

type SyncOutcome struct {
	RequestID domain.VettingID
	Wallet    string
	Status    SyncStatus
	TxHash    string
}

// Repair reports whether the account half of an approval had to be
// rewritten.
type Repair struct {
	RequestID domain.VettingID
	AccountID domain.AccountID
	Repaired  bool
}

type SweepFailure struct {
	RequestID domain.VettingID
	Err       error
}

// SweepReport summarizes one pass over approved vetting requests.
type SweepReport struct {
	Checked  int
	Repaired int
	Drift    []Drift
	Failures []SweepFailure
}

// OutOfSync returns the drift entries that are not in sync.
func (r *SweepReport) OutOfSync() []Drift {
	var out []Drift
	for _, d := range r.Drift {
		if d.Status != DriftInSync {
			out = append(out, d)
		}
	}
	return out
}
