package audit

import (
	"time"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	// ID is a ULID, so lexical order matches emission order.
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Category  EventCategory `json:"category"`
	Action    string        `json:"action"`
	// Subject is the record the event is about: a request ID, wallet or hash.
	Subject   string `json:"subject"`
	ActorID   string `json:"actor_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type EventCategory string

const (
	CategoryWorkflow EventCategory = "workflow"
	CategoryVetting  EventCategory = "vetting"
	CategoryLedger   EventCategory = "ledger"
	CategoryIdentity EventCategory = "identity"
)

// Actions emitted by the workflow modules.
const (
	ActionApprovalSubmitted   = "approval_submitted"
	ActionApprovalDecided     = "approval_decided"
	ActionApprovalCancelled   = "approval_cancelled"
	ActionCredentialIssued    = "credential_issued"
	ActionCredentialRevoked   = "credential_revoked"
	ActionVettingSubmitted    = "vetting_submitted"
	ActionVettingDecided      = "vetting_decided"
	ActionIssuerAuthorized    = "issuer_authorized"
	ActionIssuerAuthFailed    = "issuer_authorization_failed"
	ActionIssuerAuthOrphaned  = "issuer_authorized_without_approval"
	ActionAccountRepaired     = "account_repaired"
	ActionAccountRegistered   = "account_registered"
	ActionWalletLinked        = "wallet_linked"
	ActionWalletUnlinked      = "wallet_unlinked"
	ActionCorruptRecordPurged = "corrupt_record_purged"
)

// CategoryFor derives the category from an action name.
func CategoryFor(action string) EventCategory {
	switch action {
	case ActionVettingSubmitted, ActionVettingDecided, ActionAccountRepaired, ActionCorruptRecordPurged:
		return CategoryVetting
	case ActionIssuerAuthorized, ActionIssuerAuthFailed, ActionIssuerAuthOrphaned, ActionCredentialIssued, ActionCredentialRevoked:
		return CategoryLedger
	case ActionAccountRegistered, ActionWalletLinked, ActionWalletUnlinked:
		return CategoryIdentity
	default:
		return CategoryWorkflow
	}
}
