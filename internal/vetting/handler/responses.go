package handler

import (
	"time"

	"dhruva/internal/vetting/models"
)

type RequestResponse struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"accountId"`
	WalletAddress    string     `json:"walletAddress"`
	OrganizationName string     `json:"organizationName"`
	Website          string     `json:"website,omitempty"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	ReviewedBy       string     `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason  string     `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type AccountSnapshotResponse struct {
	Username      string `json:"username"`
	WalletAddress string `json:"walletAddress"`
	IsApproved    bool   `json:"isApproved"`
}

type ListingResponse struct {
	RequestResponse
	Account AccountSnapshotResponse `json:"account"`
}

type ListResponse struct {
	Requests []ListingResponse `json:"requests"`
	Total    int               `json:"total"`
}

type SubmitResponse struct {
	Request RequestResponse `json:"request"`
	Created bool            `json:"created"`
}

type LedgerSyncResponse struct {
	Status string `json:"status"`
	TxHash string `json:"txHash,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type DecisionResponse struct {
	Request    RequestResponse     `json:"request"`
	LedgerSync *LedgerSyncResponse `json:"ledgerSync,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}

func toRequestResponse(r *models.Request) RequestResponse {
	return RequestResponse{
		ID:               r.ID.String(),
		AccountID:        r.AccountID.String(),
		WalletAddress:    r.WalletAddress,
		OrganizationName: r.OrganizationName,
		Website:          r.Website,
		Description:      r.Description,
		Status:           r.Status.String(),
		ReviewedBy:       r.ReviewedBy,
		ReviewedAt:       r.ReviewedAt,
		RejectionReason:  r.RejectionReason,
		CreatedAt:        r.CreatedAt,
	}
}

func toListResponse(listings []models.Listing) ListResponse {
	out := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, ListingResponse{
			RequestResponse: toRequestResponse(l.Request),
			Account: AccountSnapshotResponse{
				Username:      l.Account.Username,
				WalletAddress: l.Account.WalletAddress,
				IsApproved:    l.Account.IsApproved,
			},
		})
	}
	return ListResponse{Requests: out, Total: len(out)}
}

func toDecisionResponse(d *models.Decision) DecisionResponse {
	resp := DecisionResponse{Request: toRequestResponse(d.Request), Warnings: d.Warnings}
	if d.LedgerSync != nil {
		resp.LedgerSync = &LedgerSyncResponse{
			Status: string(d.LedgerSync.Status),
			TxHash: d.LedgerSync.TxHash,
			Kind:   d.LedgerSync.Kind,
			Reason: d.LedgerSync.Reason,
		}
	}
	return resp
}
