package handler

import (
	"time"

	"dhruva/internal/identity/models"
)

type AccountResponse struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Role             string     `json:"role"`
	WalletAddress    string     `json:"walletAddress,omitempty"`
	IsApproved       bool       `json:"isApproved"`
	ApprovedBy       string     `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	OrganizationName string     `json:"organizationName,omitempty"`
	Website          string     `json:"website,omitempty"`
	Description      string     `json:"description,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type UnlinkResponse struct {
	Account                  AccountResponse `json:"account"`
	OldWalletAddress         string          `json:"oldWalletAddress"`
	RequiresLedgerRevocation bool            `json:"requiresLedgerRevocation"`
}

func toAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID.String(),
		Username:         a.Username,
		Role:             string(a.Role),
		WalletAddress:    a.WalletAddress,
		IsApproved:       a.IsApproved,
		ApprovedBy:       a.ApprovedBy,
		ApprovedAt:       a.ApprovedAt,
		OrganizationName: a.Organization.Name,
		Website:          a.Organization.Website,
		Description:      a.Organization.Description,
		CreatedAt:        a.CreatedAt,
	}
}
